package authcore

import (
	"context"

	"github.com/vendora/authcore/internal/audit"
)

func (e *Engine) emit(ctx context.Context, eventType string, severity audit.Severity, message string, meta map[string]any) {
	if e.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	if ip := clientIP(ctx); ip != "" {
		meta["client_ip"] = ip
	}
	e.audit.Emit(audit.Event{
		Type:     eventType,
		Severity: severity,
		Message:  message,
		Meta:     meta,
	})
}

// loginFailed records the real failure cause server-side while the caller
// only ever sees ErrInvalidCredentials.
func (e *Engine) loginFailed(ctx context.Context, detail, principal string) {
	e.metrics.Inc(MetricLoginFailure)
	e.emit(ctx, "auth.login", audit.SeverityWarn, "login failed", map[string]any{
		"detail":    detail,
		"principal": principal,
	})
}
