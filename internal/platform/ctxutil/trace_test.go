package ctxutil

import (
	"context"
	"testing"
)

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("want nil fields without trace data, got %v", got)
	}
	ctx := WithTraceData(context.Background(), &TraceData{UploadID: "u1", UserID: "42"})
	got := LogFields(ctx)
	want := []any{"upload_id", "u1", "user_id", "42"}
	if len(got) != len(want) {
		t.Fatalf("fields: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fields[%d]: want=%v got=%v", i, want[i], got[i])
		}
	}
}
