package pipeline

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

// Cohorts lists the age cohort labels in display order. The bins are
// exhaustive: anything up to 25 is the first bin, anything above 65 the last.
var Cohorts = []string{"<=25", "26-35", "36-45", "46-55", "56-65", "65+"}

// CohortOf maps an age to its cohort label.
func CohortOf(age int) string {
	switch {
	case age <= 25:
		return Cohorts[0]
	case age <= 35:
		return Cohorts[1]
	case age <= 45:
		return Cohorts[2]
	case age <= 55:
		return Cohorts[3]
	case age <= 65:
		return Cohorts[4]
	default:
		return Cohorts[5]
	}
}

type CohortMode string

const (
	ModeSpend CohortMode = "spend"
	ModeFacet CohortMode = "facet"
)

type Measure string

const (
	MeasureCount   Measure = "count"
	MeasureRevenue Measure = "revenue"
)

type SpendPolicyKind string

const (
	SpendFixed   SpendPolicyKind = "fixed"
	SpendTertile SpendPolicyKind = "tertile"
)

const (
	SegmentHigh   = "High"
	SegmentMedium = "Medium"
	SegmentLow    = "Low"
	SegmentOthers = "Others"

	// TopFacetValues is how many facet values keep their own segment before
	// the rest collapse into Others.
	TopFacetValues = 5
)

// SpendPolicy decides the revenue thresholds of the spend segments. With
// SpendFixed, High and Medium are used as given; with SpendTertile they are
// replaced by the 66th and 33rd percentiles of the records being aggregated.
type SpendPolicy struct {
	Kind   SpendPolicyKind
	High   decimal.Decimal
	Medium decimal.Decimal
}

func DefaultSpendPolicy() SpendPolicy {
	return SpendPolicy{
		Kind:   SpendFixed,
		High:   decimal.NewFromInt(300),
		Medium: decimal.NewFromInt(100),
	}
}

type CohortOptions struct {
	Mode    CohortMode
	Measure Measure
	// Facet is the dimension split into segments in ModeFacet.
	Facet models.Facet
	// Categories optionally narrows the aggregation to these categories.
	Categories []string
	Spend      SpendPolicy
	// TopN overrides TopFacetValues when positive.
	TopN int
}

func DefaultCohortOptions() CohortOptions {
	return CohortOptions{
		Mode:    ModeSpend,
		Measure: MeasureCount,
		Facet:   models.FacetMall,
		Spend:   DefaultSpendPolicy(),
	}
}

// Validate checks the option values coming from the UI.
func (o CohortOptions) Validate() error {
	switch o.Mode {
	case ModeSpend, ModeFacet:
	default:
		return fmt.Errorf("unknown cohort mode %q", o.Mode)
	}
	switch o.Measure {
	case MeasureCount, MeasureRevenue:
	default:
		return fmt.Errorf("unknown measure %q", o.Measure)
	}
	if o.Mode == ModeFacet && !o.Facet.Valid() {
		return fmt.Errorf("unknown facet %q", o.Facet)
	}
	return nil
}

// AggregateCohorts crosses the age cohorts with spend or facet segments.
// Every row holds a value for every key, zeros included, so the result can
// be stacked directly. Segment thresholds and the top facet values are
// resolved once per call and shared by all rows.
func AggregateCohorts(records []models.Record, opts CohortOptions) models.CohortResult {
	if len(opts.Categories) > 0 {
		records = Apply(records, models.FilterCriteria{Categories: opts.Categories})
	}

	var (
		keys     []string
		classify func(models.Record) string
	)
	switch opts.Mode {
	case ModeFacet:
		keys, classify = facetSegments(records, opts.Facet, opts.TopN)
	default:
		keys, classify = spendSegments(records, opts.Spend)
	}

	rows := make([]models.CohortRow, len(Cohorts))
	index := make(map[string]int, len(Cohorts))
	for i, label := range Cohorts {
		values := make(map[string]decimal.Decimal, len(keys))
		for _, k := range keys {
			values[k] = decimal.Zero
		}
		rows[i] = models.CohortRow{Cohort: label, Values: values}
		index[label] = i
	}

	one := decimal.NewFromInt(1)
	for _, r := range records {
		row := rows[index[CohortOf(r.Age)]]
		seg := classify(r)
		v := one
		if opts.Measure == MeasureRevenue {
			v = r.Revenue()
		}
		row.Values[seg] = row.Values[seg].Add(v)
	}

	return models.CohortResult{Rows: rows, Keys: keys}
}

// Thresholds resolves the High and Medium cutoffs of p for records.
func (p SpendPolicy) Thresholds(records []models.Record) (high, medium decimal.Decimal) {
	if p.Kind != SpendTertile {
		return p.High, p.Medium
	}
	if len(records) == 0 {
		return decimal.Zero, decimal.Zero
	}
	revenues := make([]decimal.Decimal, len(records))
	for i, r := range records {
		revenues[i] = r.Revenue()
	}
	slices.SortFunc(revenues, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return quantile(revenues, 0.66), quantile(revenues, 0.33)
}

// quantile interpolates linearly between the closest ranks of a sorted slice.
func quantile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := decimal.NewFromFloat(p).Mul(decimal.NewFromInt(int64(n - 1)))
	lo := int(pos.IntPart())
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos.Sub(decimal.NewFromInt(int64(lo)))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}

func spendSegments(records []models.Record, policy SpendPolicy) ([]string, func(models.Record) string) {
	high, medium := policy.Thresholds(records)
	keys := []string{SegmentHigh, SegmentMedium, SegmentLow}
	return keys, func(r models.Record) string {
		rev := r.Revenue()
		switch {
		case rev.GreaterThan(high):
			return SegmentHigh
		case rev.GreaterThan(medium):
			return SegmentMedium
		default:
			return SegmentLow
		}
	}
}

func facetSegments(records []models.Record, facet models.Facet, topN int) ([]string, func(models.Record) string) {
	if topN <= 0 {
		topN = TopFacetValues
	}
	if !facet.Valid() {
		facet = models.FacetMall
	}

	ranked := RankFacet(records, facet)
	if len(ranked) <= topN {
		keys := make([]string, len(ranked))
		for i, fc := range ranked {
			keys[i] = fc.Value
		}
		return keys, facet.Value
	}

	named := make(map[string]struct{}, topN)
	keys := make([]string, 0, topN+1)
	for _, fc := range ranked[:topN] {
		named[fc.Value] = struct{}{}
		keys = append(keys, fc.Value)
	}
	keys = append(keys, SegmentOthers)

	return keys, func(r models.Record) string {
		v := facet.Value(r)
		if _, ok := named[v]; ok {
			return v
		}
		return SegmentOthers
	}
}

type FacetCount struct {
	Value string
	Count int
}

// RankFacet counts records per value of facet, most frequent first. Ties
// are ordered by value so the ranking is stable across calls.
func RankFacet(records []models.Record, facet models.Facet) []FacetCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[facet.Value(r)]++
	}

	ranked := make([]FacetCount, 0, len(counts))
	for v, c := range counts {
		ranked = append(ranked, FacetCount{Value: v, Count: c})
	}
	slices.SortFunc(ranked, func(a, b FacetCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return ranked
}
