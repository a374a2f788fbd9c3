package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// BreakerSettings tunes the circuit breaker around the payment provider.
type BreakerSettings struct {
	Name         string
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings trips after half of at least five calls fail within a minute.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

type breakerGateway struct {
	next    pkgcheckout.Gateway
	breaker *gobreaker.CircuitBreaker[*pkgcheckout.Session]
}

// WithCircuitBreaker stops calling the provider while it keeps failing. Rejections the
// provider makes because of the request itself do not count as failures, and neither
// do calls cut short by the shopper's request context.
func WithCircuitBreaker(next pkgcheckout.Gateway, st BreakerSettings, logg *logger.Logger) pkgcheckout.Gateway {
	settings := gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: 1,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < st.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= st.FailureRatio
		},
		IsExcluded: isRequestRejection,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "checkout.gateway_breaker_state")
		},
	}
	return &breakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*pkgcheckout.Session](settings),
	}
}

func (g *breakerGateway) CreateSession(ctx context.Context, req pkgcheckout.SessionRequest) (*pkgcheckout.Session, error) {
	return g.breaker.Execute(func() (*pkgcheckout.Session, error) {
		return g.next.CreateSession(ctx, req)
	})
}

func isRequestRejection(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeIdempotency:
		return true
	}
	return false
}
