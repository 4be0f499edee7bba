// Package extraction runs one complete order extraction against the portal
// and turns its outcome into a Result, it never returns an error or panics.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/scrapers/atgpedi"
	"rapthor-backend/lib/timezone"
	"time"

	"github.com/govalues/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Session is the portal conversation a run drives, *atgpedi.Session
// implements it.
type Session interface {
	Login(ctx context.Context, username, password string) error
	OpenListing(ctx context.Context) error
	ApplyDate(ctx context.Context, date *time.Time) error
	WaitForRows(ctx context.Context) ([]orders.RawRow, error)
	LastSnapshot() string
	Close(ctx context.Context) error
}

// Opener acquires a fresh session, `attempt` starts at 1.
type Opener func(ctx context.Context, attempt int) (Session, error)

// PortalOpener opens portal sessions with the given options, snapshots of
// later attempts are told apart by their run id.
func PortalOpener(opts atgpedi.Options) Opener {
	runId := opts.RunId
	return func(ctx context.Context, attempt int) (Session, error) {
		attemptOpts := opts
		if attempt > 1 {
			attemptOpts.RunId = fmt.Sprintf("%s-%d", runId, attempt)
		}
		session, err := atgpedi.Open(ctx, attemptOpts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

type Credentials struct {
	Username string
	Password string
}

// Window is an inclusive range of delivery days.
type Window struct {
	Start time.Time
	End   time.Time
}

var DefaultThreshold = decimal.MustParse("850")

type Options struct {
	Open Opener
	// Threshold defaults to DefaultThreshold, orders strictly above it are
	// high value.
	Threshold *decimal.Decimal
	// Window restricts the orders to a fixed range of delivery days.
	Window *Window
	// Week restricts the orders to the week (monday to sunday) of the target
	// date, or of today without one. Ignored when Window is set.
	Week bool
	// KeepPortalFilter leaves the listing's date filter as the portal
	// renders it when there is no target date, instead of clearing it.
	KeepPortalFilter bool
	// DesadvMarkers are the status markers of the text fallback, nil means
	// orders.DefaultDesadvMarkers.
	DesadvMarkers []string

	// MaxAttempts bounds the sessions a run may open, authentication
	// failures are never retried.
	MaxAttempts  int
	RetryBackoff time.Duration
	// RunTimeout bounds the whole run including retries, 0 disables it.
	RunTimeout time.Duration
}

type Service struct {
	opts      Options
	threshold decimal.Decimal
	extractor orders.Extractor
}

func NewService(opts Options) Service {
	if opts.Open == nil {
		panic("extraction: no session opener")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	return Service{
		opts:      opts,
		threshold: threshold,
		extractor: orders.NewExtractor(opts.DesadvMarkers),
	}
}

func (s Service) Threshold() decimal.Decimal {
	return s.threshold
}

// Result is everything a run hands back to its caller. On failure every
// collection is empty and Message says what went wrong.
type Result struct {
	Success         bool                          `json:"success"`
	Message         string                        `json:"message"`
	Orders          []orders.Order                `json:"orders"`
	DesadvPending   []orders.Order                `json:"desadv_pending"`
	HighValueOrders []orders.Order                `json:"high_value_orders"`
	TotalsByClient  map[string]orders.ClientTotal `json:"totals_by_client"`

	Kind     Kind                `json:"-"`
	Stats    orders.ExtractStats `json:"stats"`
	Attempts int                 `json:"attempts"`
	// Snapshot is the page captured when the portal failed, if any.
	Snapshot string `json:"snapshot,omitempty"`
}

func failure(err error) Result {
	return Result{
		Success:         false,
		Kind:            Classify(err),
		Message:         message(err),
		Orders:          []orders.Order{},
		DesadvPending:   []orders.Order{},
		HighValueOrders: []orders.Order{},
		TotalsByClient:  map[string]orders.ClientTotal{},
	}
}

var errMissingCredentials = fmt.Errorf("%w: missing username or password", atgpedi.ErrAuthentication)

// Run extracts the orders for delivery on `target`, a nil target reads the
// listing unfiltered.
func (s Service) Run(ctx context.Context, creds Credentials, target *time.Time) (result Result) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	if target != nil {
		span.SetAttributes(attribute.String("target", target.In(timezone.Location).Format(orders.DateLayout)))
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			slog.ErrorContext(ctx, "extraction panicked", "err", err)
			attempts := result.Attempts
			result = failure(err)
			result.Attempts = attempts
		}

		runsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("success", result.Success),
			attribute.String("kind", result.Kind.String()),
		))
		if !result.Success {
			span.SetStatus(codes.Error, result.Message)
		}
	}()

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	if creds.Username == "" || creds.Password == "" {
		return failure(errMissingCredentials)
	}

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt

		rows, snapshot, closeErr, err := s.fetch(ctx, creds, target, attempt)
		if err == nil {
			attempts := result.Attempts
			result = s.Evaluate(ctx, rows, target)
			result.Attempts = attempts
			if closeErr != nil {
				result.Message += fmt.Sprintf(" (warning: %s)", message(closeErr))
			}
			return result
		}

		span.RecordError(err)
		kind := Classify(err)
		if !kind.retryable() || attempt >= s.opts.MaxAttempts || ctx.Err() != nil {
			result = failure(err)
			result.Attempts = attempt
			result.Snapshot = snapshot
			return result
		}

		slog.WarnContext(
			ctx, "extraction attempt failed, retrying",
			"attempt", attempt,
			"kind", kind.String(),
			"err", err,
		)
		if waitErr := wait(ctx, s.opts.RetryBackoff); waitErr != nil {
			result = failure(errors.Join(err, waitErr))
			result.Attempts = attempt
			result.Snapshot = snapshot
			return result
		}
	}
}

// fetch drives one session from login to the listing's rows. The session is
// closed on every path, a failure to close is returned apart from err.
func (s Service) fetch(ctx context.Context, creds Credentials, target *time.Time, attempt int) (rows []orders.RawRow, snapshot string, closeErr error, err error) {
	ctx, span := tracer.Start(ctx, "fetch")
	defer span.End()
	span.SetAttributes(attribute.Int("attempt", attempt))

	session, err := s.opts.Open(ctx, attempt)
	if err != nil {
		if Classify(err) == KindInternal {
			err = fmt.Errorf("%w: open session: %w", atgpedi.ErrResource, err)
		}
		return nil, "", nil, err
	}
	defer func() {
		closeErr = session.Close(ctx)
		if closeErr != nil {
			slog.WarnContext(ctx, "failed to close portal session", "err", closeErr)
		}
		snapshot = session.LastSnapshot()
	}()

	err = session.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, "", nil, err
	}
	err = session.OpenListing(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	if target != nil || !s.opts.KeepPortalFilter {
		err = session.ApplyDate(ctx, target)
		if err != nil {
			return nil, "", nil, err
		}
	}
	rows, err = session.WaitForRows(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	return rows, "", nil, nil
}

// window is the range of delivery days a run keeps, nil keeps everything.
func (s Service) window(target *time.Time) *Window {
	if s.opts.Window != nil {
		return s.opts.Window
	}
	if !s.opts.Week {
		return nil
	}
	now := timezone.Now()
	if target != nil {
		now = *target
	}
	start, end := timezone.GetWeek(now)
	return &Window{Start: start, End: end}
}

// Evaluate decodes rows read from the listing and classifies the orders as
// a run for `target` would.
func (s Service) Evaluate(ctx context.Context, rows []orders.RawRow, target *time.Time) Result {
	extracted, stats := s.extractor.Extract(ctx, rows)

	ordersCounter.Add(ctx, int64(len(extracted)))
	skippedCounter.Add(ctx, int64(stats.Skipped+len(stats.Errors)))

	if w := s.window(target); w != nil {
		extracted = orders.FilterInWindow(extracted, w.Start, w.End)
	}
	if extracted == nil {
		extracted = []orders.Order{}
	}

	totals, err := orders.AggregateByClient(extracted)
	if err != nil {
		result := failure(err)
		result.Stats = stats
		return result
	}

	pending := orders.FilterDesadvPending(extracted)
	highValue := orders.FilterAboveThreshold(extracted, s.threshold)
	if pending == nil {
		pending = []orders.Order{}
	}
	if highValue == nil {
		highValue = []orders.Order{}
	}

	msg := fmt.Sprintf(
		"%d orders extracted, %d pending dispatch advice, %d above %s",
		len(extracted), len(pending), len(highValue), s.threshold.String(),
	)
	if len(stats.Errors) > 0 {
		msg += fmt.Sprintf(", %d rows could not be decoded", len(stats.Errors))
	}

	return Result{
		Success:         true,
		Kind:            KindNone,
		Message:         msg,
		Orders:          extracted,
		DesadvPending:   pending,
		HighValueOrders: highValue,
		TotalsByClient:  totals,
		Stats:           stats,
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
