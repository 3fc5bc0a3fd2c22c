// Package gsm unifies connector-specific error codes into a canonical
// taxonomy via the gateway status map, a read-mostly table keyed by
// (connector, flow, code, message).
package gsm

import (
	"context"
	"log/slog"
)

const (
	FlowRefund    = "refund"
	FlowAuthorize = "authorize"

	DefaultUnifiedCode    = "ERR_UNMAPPED"
	DefaultUnifiedMessage = "error code not recognised for this connector"
)

type Entry struct {
	Connector      string
	Flow           string
	Code           string
	Message        string
	UnifiedCode    string
	UnifiedMessage string
}

// Lookup is the read-only view the orchestrator depends on. Backed by the
// database in production and by Table in tests.
type Lookup interface {
	Find(ctx context.Context, connector, flow, code, message string) (Entry, bool, error)
}

// Unify maps a raw (code, message) pair to the canonical pair. Lookup order:
// refund flow, then authorize flow (many connectors publish one master error
// table), then the fixed default. It never fails: this runs on the error path
// and must not be able to raise a secondary error.
func Unify(ctx context.Context, l Lookup, connectorName, code, message string, logger *slog.Logger) (string, string) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, flow := range []string{FlowRefund, FlowAuthorize} {
		e, ok, err := l.Find(ctx, connectorName, flow, code, message)
		if err != nil {
			logger.WarnContext(ctx, "gsm lookup failed",
				"connector", connectorName, "flow", flow, "code", code, "err", err)
			continue
		}
		if ok {
			return e.UnifiedCode, e.UnifiedMessage
		}
	}
	return DefaultUnifiedCode, DefaultUnifiedMessage
}
