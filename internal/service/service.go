package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
	"github.com/segyhp/loan-manager/pkg/utils"
)

// DashboardCache memoizes dashboard views per owner. Implementations must tolerate
// being disabled; errors are logged by callers and never fail a request.
type DashboardCache interface {
	Get(ctx context.Context, ownerID uuid.UUID, view string, dest interface{}) (bool, error)
	Set(ctx context.Context, ownerID uuid.UUID, view string, value interface{}) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// Clock reports the current instant and the zone business dates are taken in.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock uses time.Now in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today is the current calendar date in the clock's zone.
func (c Clock) Today() domain.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return domain.DateOf(utils.StartOfDay(now(), c.Location))
}

// AsOf is the instant overdue installments are measured against: midnight of Today,
// so an installment due today is not yet overdue.
func (c Clock) AsOf() time.Time {
	return c.Today().Time
}

func (c Clock) timestamp() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func notFoundOr(err error, notFound *customError.BusinessError) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return customError.WrapDatabaseError(err)
}

// engineError converts schedule errors into business errors. Other errors are returned unchanged.
func engineError(err error) error {
	var invalidPayment *schedule.InvalidPaymentError
	switch {
	case errors.As(err, &invalidPayment):
		return customError.WrapInvalidPaymentAmount(invalidPayment.Amount.String())
	case errors.Is(err, schedule.ErrInvalidLoan):
		return customError.WrapInvalidLoan(err)
	}
	return err
}

func isEngineError(err error) bool {
	return errors.Is(err, schedule.ErrInvalidLoan) || errors.Is(err, schedule.ErrInvalidPayment)
}

// invalidate drops an owner's dashboard snapshots after a write.
func invalidate(ctx context.Context, cache DashboardCache, ownerID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, ownerID); err != nil {
		slog.Warn("dashboard cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}
