// Package service implements the scheduling and capacity rules and
// orchestrates them over the repository ports.
//
// Each mutating operation runs as one repository transaction: the row locks
// are taken first, every check runs against the locked snapshot, and the
// writes happen only after all checks pass. Rejections are *domain.Error
// values; anything else is an infrastructure failure.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/metrics"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/telemetry"
)

// Option configures a service.
type Option func(*base)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLocation sets the zone used to render clock times in rejection
// messages. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(b *base) { b.loc = loc }
}

// base is shared by every service.
type base struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

func newBase(store repository.Store, opts []Option) base {
	b := base{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) clock() time.Time {
	return b.now().UTC()
}

// observe wraps one core operation with a span, metrics and outcome logging.
func (b *base) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	started := time.Now()
	ctx, span := telemetry.Start(ctx, op)

	err := classify(fn(ctx))

	telemetry.End(span, err)
	metrics.Observe(op, started, err)
	b.logOutcome(ctx, op, err)
	return err
}

func (b *base) logOutcome(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	de, ok := domain.As(err)
	switch {
	case !ok:
		b.logger.ErrorContext(ctx, "operation failed", "op", op, "error", err)
	case de.Kind == domain.KindConsistency:
		b.logger.ErrorContext(ctx, "consistency violation", "op", op,
			"code", de.Code, "error", err, "params", de.Params)
	default:
		b.logger.InfoContext(ctx, "operation rejected", "op", op,
			"code", de.Code, "field", de.Field)
	}
}

// classify turns a CHECK-constraint failure into a consistency error. The
// checks above the store should make these unreachable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.As(err); ok {
		return err
	}
	if errors.Is(err, repository.ErrConstraint) {
		return domain.Consistency(domain.CodeInvariantViolation,
			"stored invariant would be violated: "+err.Error(), nil)
	}
	return err
}

// lookup maps repository.ErrNotFound to a domain NotFound for entity.
func lookup(entity, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(entity, id)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}

// invalid converts ozzo-validation output into a domain error naming the
// first offending field.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for field := range verrs {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		first := fields[0]
		return domain.InvalidInput(first, verrs[first].Error())
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return fmt.Errorf("validate input: %w", internal.InternalError())
	}
	return domain.InvalidInput("", err.Error())
}

func requireID(field, id string) error {
	return invalid(validation.Errors{
		field: validation.Validate(id, validation.Required),
	}.Filter())
}
