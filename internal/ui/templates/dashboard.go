// Package templates renders the dashboard page and the fragments the SSE
// handlers patch into it. The components live in dashboard.templ; run
// `templ generate` after editing it.
package templates

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

// Element ids patched by the SSE handlers.
const (
	KPIsID   = "kpis"
	NoDataID = "no-data"
)

// PageSignals seeds the browser signal store before /sse/init answers.
type PageSignals struct {
	Genders          []string `json:"genders"`
	Categories       []string `json:"categories"`
	Payments         []string `json:"payments"`
	Malls            []string `json:"malls"`
	AgeMin           string   `json:"ageMin"`
	AgeMax           string   `json:"ageMax"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	BrushLo          float64  `json:"brushLo"`
	BrushHi          float64  `json:"brushHi"`
	Granularity      string   `json:"granularity"`
	CohortMode       string   `json:"cohortMode"`
	CohortMeasure    string   `json:"cohortMeasure"`
	CohortFacet      string   `json:"cohortFacet"`
	CohortCategories []string `json:"cohortCategories"`
}

// NewPageSignals returns the signals of an unfiltered dashboard.
func NewPageSignals(opts models.FilterOptions, view pipeline.View) PageSignals {
	return PageSignals{
		Genders:          []string{},
		Categories:       []string{},
		Payments:         []string{},
		Malls:            []string{},
		AgeMin:           strconv.Itoa(opts.MinAge),
		AgeMax:           strconv.Itoa(opts.MaxAge),
		StartDate:        day(opts.MinDate),
		EndDate:          day(opts.MaxDate),
		BrushLo:          0,
		BrushHi:          1,
		Granularity:      string(view.Granularity),
		CohortMode:       string(view.Cohort.Mode),
		CohortMeasure:    string(view.Cohort.Measure),
		CohortFacet:      string(view.Cohort.Facet),
		CohortCategories: []string{},
	}
}

// facetGroup is one fieldset of check boxes bound to a signal array.
type facetGroup struct {
	Facet  models.Facet
	Signal string
	Title  string
}

var facetGroups = []facetGroup{
	{models.FacetGender, "genders", "Gender"},
	{models.FacetCategory, "categories", "Category"},
	{models.FacetPayment, "payments", "Payment method"},
	{models.FacetMall, "malls", "Shopping mall"},
}

type kpiItem struct {
	Label    string
	Current  string
	Previous string
}

func kpiItems(current, previous models.Summary) []kpiItem {
	return []kpiItem{
		{"Revenue", money(current.Revenue), money(previous.Revenue)},
		{"Transactions", strconv.Itoa(current.Transactions), strconv.Itoa(previous.Transactions)},
		{"Customers", strconv.Itoa(current.Customers), strconv.Itoa(previous.Customers)},
		{"Units", strconv.Itoa(current.Units), strconv.Itoa(previous.Units)},
		{"Avg. order", money(current.AvgOrderValue), money(previous.AvgOrderValue)},
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func day(t time.Time) string {
	return t.Format(models.DateLayout)
}
