package pipeline

import (
	"reflect"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var (
	testGenders  = []string{"Female", "Male"}
	testCats     = []string{"Books", "Clothing", "Shoes", "Toys"}
	testPayments = []string{"Cash", "Credit Card", "Debit Card"}
	testMalls    = []string{"Cevahir", "Forum", "Istinye", "Kanyon", "Metrocity", "Viaport", "Zorlu"}
	epoch        = models.Day(2023, time.January, 1)
)

type recordOpt func(*models.Record)

func onDay(y int, m time.Month, d int) recordOpt {
	return func(r *models.Record) { r.InvoiceDate = models.Day(y, m, d) }
}

func undated() recordOpt {
	return func(r *models.Record) { r.InvoiceDate = time.Time{} }
}

func aged(age int) recordOpt {
	return func(r *models.Record) { r.Age = age }
}

func priced(price string, qty int) recordOpt {
	return func(r *models.Record) {
		r.Price = decimal.RequireFromString(price)
		r.Quantity = qty
	}
}

func in(gender, category, payment, mall string) recordOpt {
	return func(r *models.Record) {
		r.Gender, r.Category, r.PaymentMethod, r.Mall = gender, category, payment, mall
	}
}

func customer(id string) recordOpt {
	return func(r *models.Record) { r.CustomerID = id }
}

func newRecord(invoice string, opts ...recordOpt) models.Record {
	r := models.Record{
		InvoiceNo:     invoice,
		CustomerID:    "C" + invoice,
		Gender:        "Female",
		Age:           30,
		Category:      "Clothing",
		Quantity:      1,
		Price:         decimal.NewFromInt(10),
		PaymentMethod: "Cash",
		InvoiceDate:   models.Day(2024, time.January, 1),
		Mall:          "Kanyon",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func sumRevenue(records []models.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Revenue())
	}
	return total
}

func stringConsts(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// genRecord draws records over a small value space so that facets collide
// often. A day offset of -1 yields an undated record; negative quantities
// stand for returns.
func genRecord() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(stringConsts(testGenders)...),
		gen.IntRange(10, 80),
		gen.OneConstOf(stringConsts(testCats)...),
		gen.IntRange(-2, 5),
		gen.Int64Range(0, 60000),
		gen.OneConstOf(stringConsts(testPayments)...),
		gen.IntRange(-1, 730),
		gen.OneConstOf(stringConsts(testMalls)...),
		gen.IntRange(1, 40),
	).Map(func(v []interface{}) models.Record {
		r := models.Record{
			Gender:        v[0].(string),
			Age:           v[1].(int),
			Category:      v[2].(string),
			Quantity:      v[3].(int),
			Price:         decimal.New(v[4].(int64), -2),
			PaymentMethod: v[5].(string),
			Mall:          v[7].(string),
			CustomerID:    "C" + decimal.NewFromInt(int64(v[8].(int))).String(),
		}
		if offset := v[6].(int); offset >= 0 {
			r.InvoiceDate = epoch.AddDate(0, 0, offset)
		}
		return r
	})
}

func genRecords() gopter.Gen {
	return gen.SliceOf(genRecord(), reflect.TypeOf(models.Record{}))
}

func genSubset(values []string) gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(stringConsts(values)...), reflect.TypeOf(""))
}

// genCriteria draws criteria that may leave any dimension open.
func genCriteria() gopter.Gen {
	return gopter.CombineGens(
		genSubset(testGenders),
		genSubset(testCats),
		genSubset(testPayments),
		genSubset(testMalls),
		gen.IntRange(-1, 730),
		gen.IntRange(-1, 730),
		gen.IntRange(-1, 80),
		gen.IntRange(-1, 80),
	).Map(func(v []interface{}) models.FilterCriteria {
		c := models.FilterCriteria{
			Genders:        v[0].([]string),
			Categories:     v[1].([]string),
			PaymentMethods: v[2].([]string),
			Malls:          v[3].([]string),
		}
		if d := v[4].(int); d >= 0 {
			c.DateRange.Start = models.TimePtr(epoch.AddDate(0, 0, d))
		}
		if d := v[5].(int); d >= 0 {
			c.DateRange.End = models.TimePtr(epoch.AddDate(0, 0, d))
		}
		if a := v[6].(int); a >= 0 {
			c.AgeRange.Min = models.IntPtr(a)
		}
		if a := v[7].(int); a >= 0 {
			c.AgeRange.Max = models.IntPtr(a)
		}
		return c
	})
}
