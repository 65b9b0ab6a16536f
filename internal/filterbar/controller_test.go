package filterbar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/models"
)

type controllerFixture struct {
	c       *Controller
	gesture *fakeGesture
	fields  *fakeFields
	emitted []models.FilterCriteria
}

func newControllerFixture() *controllerFixture {
	fx := &controllerFixture{gesture: &fakeGesture{}, fields: &fakeFields{}}
	opts := models.FilterOptions{
		Genders:        []string{"Female", "Male"},
		Categories:     []string{"Books", "Clothing", "Shoes"},
		PaymentMethods: []string{"Cash", "Credit Card"},
		Malls:          []string{"Kanyon", "Zorlu"},
		MinAge:         18,
		MaxAge:         69,
		MinDate:        spanStart,
		MaxDate:        spanEnd,
	}
	fx.c = NewController(opts, fx.gesture, fx.fields, func(c models.FilterCriteria) {
		fx.emitted = append(fx.emitted, c)
	})
	fx.gesture.notify = func() { fx.c.OnGesture() }
	fx.fields.notify = func() { fx.c.OnFieldsChanged() }
	return fx
}

func (fx *controllerFixture) last(t *testing.T) models.FilterCriteria {
	t.Helper()
	require.NotEmpty(t, fx.emitted)
	return fx.emitted[len(fx.emitted)-1]
}

func TestController_InitialState(t *testing.T) {
	fx := newControllerFixture()

	assert.Empty(t, fx.emitted)
	c := fx.c.Criteria()
	assert.Empty(t, c.Genders)
	assert.Nil(t, c.DateRange.Start)
	assert.Nil(t, c.DateRange.End)
	assert.Equal(t, 18, *c.AgeRange.Min)
	assert.Equal(t, 69, *c.AgeRange.Max)
}

func TestController_Update(t *testing.T) {
	fx := newControllerFixture()

	fx.c.Update(Selections{
		Genders:    []string{"Male", " Female", "Male", ""},
		Categories: []string{"Shoes"},
		AgeMin:     "40",
		AgeMax:     "25",
	})

	require.Len(t, fx.emitted, 1)
	c := fx.last(t)
	assert.Equal(t, []string{"Female", "Male"}, c.Genders)
	assert.Equal(t, []string{"Shoes"}, c.Categories)
	assert.Empty(t, c.Malls)
	assert.Equal(t, 25, *c.AgeRange.Min)
	assert.Equal(t, 40, *c.AgeRange.Max)
	assert.Nil(t, c.DateRange.Start)
}

func TestController_AgeFallbacks(t *testing.T) {
	tests := []struct {
		name             string
		min, max         string
		wantMin, wantMax int
	}{
		{"empty", "", "", 0, 100},
		{"zero reads as unset", "0", "0", 0, 100},
		{"garbage", "abc", "x1", 0, 100},
		{"fractional", "20.7", "30.2", 20, 30},
		{"only max", "", "50", 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newControllerFixture()
			fx.c.SetAgeInputs(tt.min, tt.max)
			c := fx.last(t)
			assert.Equal(t, tt.wantMin, *c.AgeRange.Min)
			assert.Equal(t, tt.wantMax, *c.AgeRange.Max)
		})
	}
}

func TestController_Toggle(t *testing.T) {
	fx := newControllerFixture()

	require.NoError(t, fx.c.Toggle(models.FacetMall, "Zorlu", true))
	require.NoError(t, fx.c.Toggle(models.FacetMall, "Kanyon", true))
	assert.Equal(t, []string{"Kanyon", "Zorlu"}, fx.last(t).Malls)

	require.NoError(t, fx.c.Toggle(models.FacetMall, "Zorlu", false))
	assert.Equal(t, []string{"Kanyon"}, fx.last(t).Malls)
	assert.Len(t, fx.emitted, 3)

	assert.Error(t, fx.c.Toggle("region", "North", true))
	assert.Len(t, fx.emitted, 3)
}

func TestController_SetFacet(t *testing.T) {
	fx := newControllerFixture()

	require.NoError(t, fx.c.SetFacet(models.FacetPayment, []string{"Credit Card", "Cash", "Cash"}))
	require.Len(t, fx.emitted, 1)
	assert.Equal(t, []string{"Cash", "Credit Card"}, fx.last(t).PaymentMethods)

	require.NoError(t, fx.c.SetFacet(models.FacetPayment, nil))
	assert.Empty(t, fx.last(t).PaymentMethods)

	assert.Error(t, fx.c.SetFacet("country", []string{"TR"}))
	assert.Len(t, fx.emitted, 2)
}

func TestController_DateActionsEmitOnce(t *testing.T) {
	fx := newControllerFixture()

	fx.gesture.drag(0.25, 0.5)
	require.True(t, fx.c.OnGesture())
	require.Len(t, fx.emitted, 1)
	fx.c.Tick()

	fx.fields.start, fx.fields.end = "2024-02-01", "2024-02-29"
	require.True(t, fx.c.OnFieldsChanged())
	require.Len(t, fx.emitted, 2)

	c := fx.last(t)
	assert.Equal(t, models.Day(2024, time.February, 1), *c.DateRange.Start)
	assert.Equal(t, models.Day(2024, time.February, 29), *c.DateRange.End)
}

func TestController_Reset(t *testing.T) {
	fx := newControllerFixture()

	fx.c.Update(Selections{Genders: []string{"Male"}, Malls: []string{"Zorlu"}, AgeMin: "30", AgeMax: "40"})
	fx.gesture.drag(0.1, 0.3)
	fx.c.Tick()
	fx.c.OnGesture()

	before := len(fx.emitted)
	fx.c.Reset()
	require.Len(t, fx.emitted, before+1)

	c := fx.last(t)
	assert.Empty(t, c.Genders)
	assert.Empty(t, c.Malls)
	assert.Equal(t, 18, *c.AgeRange.Min)
	assert.Equal(t, 69, *c.AgeRange.Max)
	assert.Nil(t, c.DateRange.Start)
	assert.Nil(t, c.DateRange.End)
	assert.Equal(t, "2024-01-01", fx.fields.start)

	fx.c.Tick()
	fx.c.Reset()
	assert.Equal(t, c, fx.last(t))
}
