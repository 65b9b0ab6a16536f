package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one transaction line of the shopping dataset.
type Record struct {
	InvoiceNo     string
	CustomerID    string
	Gender        string
	Age           int
	Category      string
	Quantity      int
	Price         decimal.Decimal
	PaymentMethod string
	InvoiceDate   time.Time
	Mall          string
}

// Revenue is quantity times unit price.
func (r Record) Revenue() decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// HasDate reports whether the invoice date was parsed successfully.
func (r Record) HasDate() bool {
	return !r.InvoiceDate.IsZero()
}

// Day returns the calendar day y-m-d at midnight UTC.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the wall-clock time of t, keeping its calendar day.
func TruncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Day(t.Year(), t.Month(), t.Day())
}

const DateLayout = "2006-01-02"
