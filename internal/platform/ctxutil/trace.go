package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one upload across logs and spans.
type TraceData struct {
	TraceID  string
	UploadID string
	UserID   string
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

// LogFields returns the non-empty ids on ctx as logger key/value pairs.
func LogFields(ctx context.Context) []any {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []any
	if td.UploadID != "" {
		kv = append(kv, "upload_id", td.UploadID)
	}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.UserID != "" {
		kv = append(kv, "user_id", td.UserID)
	}
	return kv
}
