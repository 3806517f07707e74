package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("EU_STR", "  value ")
	t.Setenv("EU_INT", "42")
	t.Setenv("EU_BADINT", "x")
	t.Setenv("EU_BOOL", "off")
	t.Setenv("EU_DUR", "1500ms")
	t.Setenv("EU_SECS", "3")

	if got := String("EU_STR", "def"); got != "value" {
		t.Fatalf("String: want=%q got=%q", "value", got)
	}
	if got := String("EU_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got=%q", got)
	}
	if got := Int("EU_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	if got := Int("EU_BADINT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
	if got := Bool("EU_BOOL", true); got {
		t.Fatalf("Bool: want=false")
	}
	if got := Duration("EU_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("Duration: got=%s", got)
	}
	if got := Duration("EU_SECS", time.Second); got != 3*time.Second {
		t.Fatalf("Duration seconds: got=%s", got)
	}
}

func TestNumericReaders(t *testing.T) {
	t.Setenv("EU_I64", "2147483648")
	t.Setenv("EU_F64", "0.25")
	t.Setenv("EU_BADF", "quarter")

	if got := Int64("EU_I64", 0); got != 2147483648 {
		t.Fatalf("Int64: got=%d", got)
	}
	if got := Float64("EU_F64", 1); got != 0.25 {
		t.Fatalf("Float64: got=%v", got)
	}
	if got := Float64("EU_BADF", 1); got != 1 {
		t.Fatalf("Float64 fallback: got=%v", got)
	}
}
