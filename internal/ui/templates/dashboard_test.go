package templates

import (
	"context"
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func testOptions() models.FilterOptions {
	return models.FilterOptions{
		Genders:        []string{"Female", "Male"},
		Categories:     []string{"Books", "Food & Beverage"},
		PaymentMethods: []string{"Cash"},
		Malls:          []string{"Kanyon", "Mall of Istanbul"},
		MinAge:         18,
		MaxAge:         69,
		MinDate:        models.Day(2021, time.January, 1),
		MaxDate:        models.Day(2023, time.March, 8),
	}
}

func TestDashboard(t *testing.T) {
	page := render(t, Dashboard(testOptions(), pipeline.DefaultView()))

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Retail Dashboard</title>")
	assert.Contains(t, page, `<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@`)
	assert.Contains(t, page, `data-init="@get('/sse/init')"`)
	assert.Contains(t, page, `id="`+KPIsID+`"`)
	assert.Contains(t, page, `id="`+NoDataID+`"`)
	assert.Contains(t, page, `id="chart-flow"`)

	m := regexp.MustCompile(`data-signals="([^"]*)"`).FindStringSubmatch(page)
	require.Len(t, m, 2)
	var sig PageSignals
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &sig))
	assert.Equal(t, "2021-01-01", sig.StartDate)
	assert.Equal(t, "2023-03-08", sig.EndDate)
	assert.Equal(t, "18", sig.AgeMin)
	assert.Equal(t, "daily", sig.Granularity)
	assert.Equal(t, 1.0, sig.BrushHi)
	assert.NotNil(t, sig.Genders)
}

func TestFilterBar(t *testing.T) {
	out := render(t, FilterBar(testOptions()))

	assert.Contains(t, out, `value="Mall of Istanbul" data-bind="malls"`)
	assert.Contains(t, out, `data-bind="payments"`)
	assert.Contains(t, out, "Food &amp; Beverage")
	assert.NotContains(t, out, "Food & Beverage")
	assert.Contains(t, out, `min="2021-01-01" max="2023-03-08"`)
	assert.Contains(t, out, "@post('/sse/range/gesture')")
	assert.Contains(t, out, "@post('/sse/reset')")
	assert.Equal(t, 7, strings.Count(out, `type="checkbox"`))
}

func TestViewControls(t *testing.T) {
	out := render(t, ViewControls(testOptions()))

	for _, g := range pipeline.Granularities {
		assert.Contains(t, out, `<option value="`+string(g)+`">`)
	}
	assert.Contains(t, out, `<option value="mall">`)
	assert.Contains(t, out, "data-bind:cohort-categories")
}

func TestKPIs(t *testing.T) {
	current := models.Summary{Revenue: decimal.RequireFromString("1234.5"), Transactions: 12}
	previous := models.Summary{Revenue: decimal.NewFromInt(99), Transactions: 3}

	out := render(t, KPIs(current, previous))

	assert.Contains(t, out, `data-from="$99.00">$1234.50<`)
	assert.Contains(t, out, `data-from="3">12<`)
	assert.Equal(t, 5, strings.Count(out, `class="kpi"`))
}

func TestComponents_StopOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	err := Dashboard(testOptions(), pipeline.DefaultView()).Render(ctx, &b)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.String())
}

func TestNoData(t *testing.T) {
	assert.Contains(t, render(t, NoData(false)), " hidden>")
	assert.NotContains(t, render(t, NoData(true)), "hidden")
}
