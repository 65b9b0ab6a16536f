package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/ingest"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
)

// Settings are the aggregation and session parameters of a Dashboard.
type Settings struct {
	Spend              pipeline.SpendPolicy
	TopFacetValues     int
	DefaultGranularity models.Granularity
	SessionTTL         time.Duration
	MaxSessions        int
}

func DefaultSettings() Settings {
	return Settings{
		Spend:              pipeline.DefaultSpendPolicy(),
		TopFacetValues:     pipeline.TopFacetValues,
		DefaultGranularity: models.Daily,
		SessionTTL:         30 * time.Minute,
		MaxSessions:        10000,
	}
}

func SettingsFromConfig(cfg config.DashboardConfig) (Settings, error) {
	g, err := pipeline.ParseGranularity(cfg.DefaultGranularity)
	if err != nil {
		return Settings{}, fmt.Errorf("default granularity: %w", err)
	}
	return Settings{
		Spend: pipeline.SpendPolicy{
			Kind:   pipeline.SpendPolicyKind(cfg.SpendPolicy),
			High:   decimal.NewFromFloat(cfg.SpendHigh),
			Medium: decimal.NewFromFloat(cfg.SpendMedium),
		},
		TopFacetValues:     cfg.TopFacetValues,
		DefaultGranularity: g,
		SessionTTL:         cfg.SessionTTL,
		MaxSessions:        cfg.MaxSessions,
	}, nil
}

// Dashboard is the record store of the application together with the
// browser sessions viewing it. The record slice is replaced wholesale and
// never modified in place, so readers may keep the slice they got.
type Dashboard struct {
	mu       sync.RWMutex
	records  []models.Record
	options  models.FilterOptions
	rejected int64
	loadedAt time.Time

	settings Settings
	sessions *SessionStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewDashboard(settings Settings, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	d.sessions = NewSessionStore(settings.SessionTTL, settings.MaxSessions, d.now)
	d.options = pipeline.Options(nil, d.now())
	return d
}

// Load reads the dataset at path through loader and publishes it.
func (d *Dashboard) Load(ctx context.Context, loader *ingest.Loader, path string) error {
	ctx, span := observability.StartSpan(ctx, "dashboard.load", attribute.String("path", path))
	defer span.End()

	res, err := loader.LoadFile(ctx, path)
	if err != nil {
		observability.SetSpanError(span, err)
		return fmt.Errorf("load records: %w", err)
	}
	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.Int64("rejected", res.Rejected),
		attribute.Bool("from_cache", res.FromCache),
	)

	d.SetRecords(res.Records)
	d.mu.Lock()
	d.rejected = res.Rejected
	d.mu.Unlock()
	return nil
}

// SetRecords publishes records as the new store.
func (d *Dashboard) SetRecords(records []models.Record) {
	records = append([]models.Record(nil), records...)
	options := pipeline.Options(records, d.now())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
	d.options = options
	d.loadedAt = d.now()
}

func (d *Dashboard) Records() []models.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.records
}

func (d *Dashboard) Options() models.FilterOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options
}

func (d *Dashboard) Settings() Settings { return d.settings }

// DefaultView is the chart selection a new session starts with.
func (d *Dashboard) DefaultView() pipeline.View {
	view := pipeline.DefaultView()
	view.Granularity = d.settings.DefaultGranularity
	view.Cohort = d.CohortOptions(view.Cohort)
	return view
}

// CohortOptions fills in the configured spend policy and facet limit.
func (d *Dashboard) CohortOptions(opts pipeline.CohortOptions) pipeline.CohortOptions {
	opts.Spend = d.settings.Spend
	opts.TopN = d.settings.TopFacetValues
	return opts
}

// Run recomputes every projection for criteria and view.
func (d *Dashboard) Run(ctx context.Context, criteria models.FilterCriteria, view pipeline.View) pipeline.Snapshot {
	_, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("granularity", string(view.Granularity)),
		attribute.String("cohort_mode", string(view.Cohort.Mode)),
	)
	defer span.End()

	snap := pipeline.Run(d.Records(), criteria, view)
	span.SetAttributes(attribute.Int("filtered", snap.Filtered))
	return snap
}

// Filtered returns the records satisfying criteria, in store order.
func (d *Dashboard) Filtered(ctx context.Context, criteria models.FilterCriteria) []models.Record {
	_, span := observability.StartSpan(ctx, "pipeline.filter")
	defer span.End()

	filtered := pipeline.Apply(d.Records(), criteria)
	span.SetAttributes(attribute.Int("filtered", len(filtered)))
	return filtered
}

// Session returns the live session with id, creating a fresh one when id is
// unknown or expired.
func (d *Dashboard) Session(id string) (*Session, bool) {
	if s, ok := d.sessions.Get(id); ok {
		return s, false
	}
	s := newSession(d)
	d.sessions.Put(s)
	d.logger.Debug("session created", "session_id", s.ID, "sessions", d.sessions.Len())
	return s, true
}

func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]any{
		"record_count":    len(d.records),
		"rejected_rows":   d.rejected,
		"last_loaded":     d.loadedAt,
		"genders":         len(d.options.Genders),
		"categories":      len(d.options.Categories),
		"payment_methods": len(d.options.PaymentMethods),
		"malls":           len(d.options.Malls),
		"min_date":        d.options.MinDate.Format(models.DateLayout),
		"max_date":        d.options.MaxDate.Format(models.DateLayout),
		"sessions":        d.sessions.Len(),
	}
}
