package pipeline

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

const (
	defaultMinAge = 0
	defaultMaxAge = 100
)

// Summarize computes the headline counters of a filtered set.
func Summarize(records []models.Record) models.Summary {
	var s models.Summary
	customers := make(map[string]struct{})
	for _, r := range records {
		s.Revenue = s.Revenue.Add(r.Revenue())
		s.Units += r.Quantity
		if r.CustomerID != "" {
			customers[r.CustomerID] = struct{}{}
		}
	}
	s.Transactions = len(records)
	s.Customers = len(customers)
	if s.Transactions > 0 {
		s.AvgOrderValue = s.Revenue.Div(decimal.NewFromInt(int64(s.Transactions))).Round(2)
	}
	return s
}

// Options derives the filter bar choices from the full record store. When no
// record carries a valid date the date span falls back to the six months
// ending at now.
func Options(records []models.Record, now time.Time) models.FilterOptions {
	opts := models.FilterOptions{
		Genders:        distinct(records, models.FacetGender),
		Categories:     distinct(records, models.FacetCategory),
		PaymentMethods: distinct(records, models.FacetPayment),
		Malls:          distinct(records, models.FacetMall),
		MinAge:         defaultMinAge,
		MaxAge:         defaultMaxAge,
	}

	if len(records) > 0 {
		opts.MinAge, opts.MaxAge = records[0].Age, records[0].Age
		for _, r := range records[1:] {
			opts.MinAge = min(opts.MinAge, r.Age)
			opts.MaxAge = max(opts.MaxAge, r.Age)
		}
	}

	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		d := models.TruncateDay(r.InvoiceDate)
		if opts.MinDate.IsZero() || d.Before(opts.MinDate) {
			opts.MinDate = d
		}
		if opts.MaxDate.IsZero() || d.After(opts.MaxDate) {
			opts.MaxDate = d
		}
	}
	if opts.MinDate.IsZero() {
		opts.MaxDate = models.TruncateDay(now)
		opts.MinDate = opts.MaxDate.AddDate(0, -6, 0)
	}
	return opts
}

func distinct(records []models.Record, f models.Facet) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := strings.TrimSpace(f.Value(r))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return values
}
