package models

import "time"

// DateRange bounds are inclusive calendar days; nil means unbounded.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// AgeRange bounds are inclusive; nil means unbounded.
type AgeRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// FilterCriteria is the complete set of active filter constraints. An empty
// facet slice places no constraint on that facet.
type FilterCriteria struct {
	DateRange      DateRange `json:"date_range"`
	Genders        []string  `json:"genders"`
	Categories     []string  `json:"categories"`
	PaymentMethods []string  `json:"payment_methods"`
	Malls          []string  `json:"malls"`
	AgeRange       AgeRange  `json:"age_range"`
}

// Facet names a categorical record dimension.
type Facet string

const (
	FacetGender   Facet = "gender"
	FacetCategory Facet = "category"
	FacetPayment  Facet = "payment"
	FacetMall     Facet = "mall"
)

var Facets = []Facet{FacetGender, FacetCategory, FacetPayment, FacetMall}

// Value returns the record's value for facet f.
func (f Facet) Value(r Record) string {
	switch f {
	case FacetGender:
		return r.Gender
	case FacetCategory:
		return r.Category
	case FacetPayment:
		return r.PaymentMethod
	case FacetMall:
		return r.Mall
	default:
		return ""
	}
}

// Valid reports whether f is a known facet.
func (f Facet) Valid() bool {
	for _, known := range Facets {
		if f == known {
			return true
		}
	}
	return false
}

// Selection returns the criteria's allowed values for facet f.
func (c FilterCriteria) Selection(f Facet) []string {
	switch f {
	case FacetGender:
		return c.Genders
	case FacetCategory:
		return c.Categories
	case FacetPayment:
		return c.PaymentMethods
	case FacetMall:
		return c.Malls
	default:
		return nil
	}
}

// WithSelection returns a copy of c whose facet f allows exactly values.
func (c FilterCriteria) WithSelection(f Facet, values []string) FilterCriteria {
	switch f {
	case FacetGender:
		c.Genders = values
	case FacetCategory:
		c.Categories = values
	case FacetPayment:
		c.PaymentMethods = values
	case FacetMall:
		c.Malls = values
	}
	return c
}

func TimePtr(t time.Time) *time.Time { return &t }

func IntPtr(v int) *int { return &v }
