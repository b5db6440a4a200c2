// Package context carries the correlation values of an API request or CLI
// invocation down to the run it triggers, so run logs and events can be
// traced back to their origin.
package context

import "context"

// Trigger sources
const (
	TriggerAPI = "api"
	TriggerCLI = "cli"
)

type valuesKey struct{}

// Values are the correlation values of one request
type Values struct {
	RequestID string
	Trigger   string
	RunID     string
	Method    string
	Route     string
	RemoteIP  string
}

// Fields returns the non-empty values keyed for structured logging
func (v Values) Fields() map[string]any {
	fields := make(map[string]any, 6)
	for key, value := range map[string]string{
		"request_id": v.RequestID,
		"trigger":    v.Trigger,
		"run_id":     v.RunID,
		"method":     v.Method,
		"route":      v.Route,
		"remote_ip":  v.RemoteIP,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func With(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, valuesKey{}, v)
}

func From(ctx context.Context) Values {
	v, _ := ctx.Value(valuesKey{}).(Values)
	return v
}

// WithRunID adds the run id to the values already on ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	v := From(ctx)
	v.RunID = runID
	return With(ctx, v)
}

func RequestID(ctx context.Context) string {
	return From(ctx).RequestID
}

func RunID(ctx context.Context) string {
	return From(ctx).RunID
}
