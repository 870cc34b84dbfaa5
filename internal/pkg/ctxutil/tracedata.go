package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries the correlation ids minted (or propagated) at the edge.
// TraceID lines up with the otel span when tracing is on; RequestID is
// always present.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}
