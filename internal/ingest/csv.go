// Package ingest loads the shopping dataset from CSV into the fixed Record
// schema the pipeline works on. Values are validated and coerced here once
// so the aggregations never have to.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrNoRecords     = errors.New("no valid records found")
	ErrMissingColumn = errors.New("missing column")
)

var requiredColumns = []string{
	"invoice_no", "customer_id", "gender", "age", "category",
	"quantity", "price", "payment_method", "invoice_date", "shopping_mall",
}

// Result is the outcome of one load.
type Result struct {
	Records   []models.Record
	Rejected  int64
	Undated   int64
	FromCache bool
	Duration  time.Duration
}

type Loader struct {
	logger   *slog.Logger
	cacheDir string
	workers  int
}

// NewLoader returns a loader caching parsed files under cacheDir. An empty
// cacheDir disables the cache.
func NewLoader(logger *slog.Logger, cacheDir string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, cacheDir: cacheDir, workers: maxWorkers}
}

// LoadFile reads the CSV at path, reusing the cached parse when the file has
// not changed since it was cached.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if cached, err := l.loadCache(path, info.ModTime()); err == nil {
		l.logger.Info("loaded records from cache", "records", len(cached.Records), "path", path)
		return cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	res, err := l.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("process csv: %w", err)
	}

	if err := l.saveCache(path, info.ModTime(), res); err != nil {
		l.logger.Warn("failed to save cache", "error", err)
	}
	return res, nil
}

// Read parses CSV rows from r. Rows with a non-numeric age, quantity or
// price are rejected; rows with an unreadable date are kept without a date.
func (l *Loader) Read(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	res := &Result{Records: make([]models.Record, 0, batchSize)}
	var rejected, undated atomic.Int64

	batch := make([][]string, 0, batchSize)
	flush := func() error {
		parsed, err := l.processBatch(ctx, batch, cols, &rejected, &undated)
		if err != nil {
			return err
		}
		res.Records = append(res.Records, parsed...)
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejected.Add(1)
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	res.Rejected = rejected.Load()
	res.Undated = undated.Load()
	res.Duration = time.Since(start)

	if len(res.Records) == 0 {
		return nil, ErrNoRecords
	}

	l.logger.Info("csv processing complete",
		"records", len(res.Records),
		"rejected", res.Rejected,
		"undated", res.Undated,
		"duration", res.Duration,
	)
	return res, nil
}

// processBatch parses rows concurrently, keeping their input order.
func (l *Loader) processBatch(ctx context.Context, rows [][]string, cols columns, rejected, undated *atomic.Int64) ([]models.Record, error) {
	parsed := make([]models.Record, len(rows))
	valid := make([]bool, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := parseRecord(row, cols)
			if err != nil {
				rejected.Add(1)
				return nil
			}
			if !rec.HasDate() {
				undated.Add(1)
			}
			parsed[i], valid[i] = rec, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Record, 0, len(rows))
	for i, ok := range valid {
		if ok {
			out = append(out, parsed[i])
		}
	}
	return out, nil
}

type columns map[string]int

func columnIndex(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func (c columns) get(row []string, name string) string {
	i := c[name]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRecord(row []string, cols columns) (models.Record, error) {
	age, err := strconv.Atoi(cols.get(row, "age"))
	if err != nil {
		return models.Record{}, fmt.Errorf("age: %w", err)
	}
	quantity, err := strconv.Atoi(cols.get(row, "quantity"))
	if err != nil {
		return models.Record{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := decimal.NewFromString(cols.get(row, "price"))
	if err != nil {
		return models.Record{}, fmt.Errorf("price: %w", err)
	}

	date, _ := ParseInvoiceDate(cols.get(row, "invoice_date"))

	return models.Record{
		InvoiceNo:     cols.get(row, "invoice_no"),
		CustomerID:    cols.get(row, "customer_id"),
		Gender:        cols.get(row, "gender"),
		Age:           age,
		Category:      cols.get(row, "category"),
		Quantity:      quantity,
		Price:         price,
		PaymentMethod: cols.get(row, "payment_method"),
		InvoiceDate:   date,
		Mall:          cols.get(row, "shopping_mall"),
	}, nil
}
