package checkout

import (
	"context"
	"time"

	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	gatewayResultOK         = "ok"
	gatewayResultError      = "error"
	gatewayResultIncomplete = "incomplete"
)

type instrumentedGateway struct {
	next     pkgcheckout.Gateway
	provider string
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// InstrumentGateway counts and logs every session request sent to the provider.
func InstrumentGateway(next pkgcheckout.Gateway, provider string, m *metrics.CheckoutMetrics, logg *logger.Logger) pkgcheckout.Gateway {
	return &instrumentedGateway{next: next, provider: provider, metrics: m, logg: logg}
}

func (g *instrumentedGateway) CreateSession(ctx context.Context, req pkgcheckout.SessionRequest) (*pkgcheckout.Session, error) {
	started := time.Now()
	session, err := g.next.CreateSession(ctx, req)

	result := gatewayResultOK
	switch {
	case err != nil:
		result = gatewayResultError
	case session == nil || session.ID == "" || session.URL == "":
		result = gatewayResultIncomplete
	}
	g.metrics.IncGatewayRequest(g.provider, result)

	if g.logg != nil {
		logCtx := g.logg.WithFields(ctx, map[string]any{
			"provider":    g.provider,
			"result":      result,
			"duration_ms": time.Since(started).Milliseconds(),
			"line_items":  len(req.LineItems),
			"idempotent":  req.IdempotencyKey != "",
		})
		g.logg.Debug(logCtx, "checkout.gateway_request")
	}
	return session, err
}
