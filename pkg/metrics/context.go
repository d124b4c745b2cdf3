// Package metrics reports to New Relic, when an application is configured, and
// to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key under which the *newrelic.Application
// is injected by the gRPC interceptors.
var NewRelicContextKey = newRelicContextKey{}

// WithNewRelicApp returns a copy of ctx carrying app.
func WithNewRelicApp(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

func newRelicApp(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app, ok && app != nil
}

// RecordEvent records a custom event with a set of attributes
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app, ok := newRelicApp(ctx); ok {
		app.RecordCustomEvent(eventName, attributes)
	}
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app, ok := newRelicApp(ctx); ok {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := newRelicApp(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}
