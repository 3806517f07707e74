package course

import (
	"encoding/json"
	"testing"
)

func TestLangMapResolve(t *testing.T) {
	m := NewLangMap("fr", "Bonjour", "en", "Hello")

	if text, lang, ok := m.Resolve("en"); !ok || text != "Hello" || lang != "en" {
		t.Fatalf("Resolve(en): got=%q/%q ok=%v", text, lang, ok)
	}
	if text, lang, ok := m.Resolve("de"); !ok || text != "Bonjour" || lang != "fr" {
		t.Fatalf("Resolve(de) fallback: got=%q/%q ok=%v", text, lang, ok)
	}
	var empty LangMap
	if _, _, ok := empty.Resolve("en"); ok {
		t.Fatalf("Resolve on empty map: want ok=false")
	}
}

func TestLangMapJSONKeepsOrder(t *testing.T) {
	var m LangMap
	if err := json.Unmarshal([]byte(`{"zh":"你好","en":"hi","ar":null}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := m.Langs(); len(got) != 3 || got[0] != "zh" || got[1] != "en" || got[2] != "ar" {
		t.Fatalf("langs order: got=%v", got)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"zh":"你好","en":"hi","ar":""}` {
		t.Fatalf("marshal: got=%s", b)
	}
}

func TestLangMapScanValue(t *testing.T) {
	var empty LangMap
	if v, err := empty.Value(); err != nil || v != nil {
		t.Fatalf("empty Value: v=%v err=%v", v, err)
	}

	m := NewLangMap("en", "Intro")
	v, err := m.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var back LangMap
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip: want=%s got=%s", m, back)
	}
	if err := back.Scan(nil); err != nil || back.Len() != 0 {
		t.Fatalf("Scan(nil): len=%d err=%v", back.Len(), err)
	}
	if err := back.Scan(42); err == nil {
		t.Fatalf("Scan(int): want error")
	}
}

func TestLangMapSetReplacesInPlace(t *testing.T) {
	m := NewLangMap("en", "a", "fr", "b")
	m.Set("en", "c")
	if got := m.Entries(); got[0].Lang != "en" || got[0].Text != "c" || len(got) != 2 {
		t.Fatalf("Set: got=%v", got)
	}
}
