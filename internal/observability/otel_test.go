package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,broken, =x, tenant=t1")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "t1" {
		t.Fatalf("headers: got=%v", got)
	}
	if parseHeaders("  ") != nil {
		t.Fatalf("blank headers should be nil")
	}
}

func TestSampleRatio(t *testing.T) {
	cases := map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1}
	for in, want := range cases {
		if got := sampleRatio(in); got != want {
			t.Fatalf("sampleRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, end := StartSpan(context.Background(), "extract")
	if ctx == nil {
		t.Fatalf("nil context")
	}
	end(errors.New("boom"))
}
