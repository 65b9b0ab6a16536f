package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

type TimeBucket struct {
	PeriodStart time.Time       `json:"period_start"`
	Value       decimal.Decimal `json:"value"`
}

type CohortRow struct {
	Cohort string                     `json:"cohort"`
	Values map[string]decimal.Decimal `json:"values"`
}

// CohortResult holds one row per age cohort and the segment keys every row
// carries, in stacking order.
type CohortResult struct {
	Rows []CohortRow `json:"rows"`
	Keys []string    `json:"keys"`
}

type FlowNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Tier  int    `json:"tier"`
}

type FlowEdge struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Weight decimal.Decimal `json:"weight"`
}

type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

type Summary struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Transactions  int             `json:"transactions"`
	Customers     int             `json:"customers"`
	Units         int             `json:"units"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// FilterOptions describes the choices offered by the filter bar.
type FilterOptions struct {
	Genders        []string  `json:"genders"`
	Categories     []string  `json:"categories"`
	PaymentMethods []string  `json:"payment_methods"`
	Malls          []string  `json:"malls"`
	MinAge         int       `json:"min_age"`
	MaxAge         int       `json:"max_age"`
	MinDate        time.Time `json:"min_date"`
	MaxDate        time.Time `json:"max_date"`
}

// Values returns the offered values for facet f.
func (o FilterOptions) Values(f Facet) []string {
	switch f {
	case FacetGender:
		return o.Genders
	case FacetCategory:
		return o.Categories
	case FacetPayment:
		return o.PaymentMethods
	case FacetMall:
		return o.Malls
	default:
		return nil
	}
}
