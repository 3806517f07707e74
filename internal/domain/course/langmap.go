package course

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// LangEntry is one language-tagged text.
type LangEntry struct {
	Lang string
	Text string
}

// LangMap is an insertion-ordered language code -> text mapping. It is
// stored as a JSON object and round-trips key order.
type LangMap struct {
	entries []LangEntry
}

func NewLangMap(pairs ...string) LangMap {
	var m LangMap
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set adds or replaces the text for lang, keeping its original position.
func (m *LangMap) Set(lang, text string) {
	for i := range m.entries {
		if m.entries[i].Lang == lang {
			m.entries[i].Text = text
			return
		}
	}
	m.entries = append(m.entries, LangEntry{Lang: lang, Text: text})
}

func (m LangMap) Get(lang string) (string, bool) {
	for _, e := range m.entries {
		if e.Lang == lang {
			return e.Text, true
		}
	}
	return "", false
}

// Resolve returns the text for preferred, or the first stored language when
// preferred is absent. ok is false only for an empty map.
func (m LangMap) Resolve(preferred string) (text string, lang string, ok bool) {
	if t, found := m.Get(preferred); found {
		return t, preferred, true
	}
	if len(m.entries) == 0 {
		return "", "", false
	}
	return m.entries[0].Text, m.entries[0].Lang, true
}

func (m LangMap) Len() int { return len(m.entries) }

func (m LangMap) Entries() []LangEntry {
	out := make([]LangEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m LangMap) Langs() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Lang)
	}
	return out
}

func (m LangMap) Equal(o LangMap) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i := range m.entries {
		if m.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

func (m LangMap) String() string {
	b, _ := m.MarshalJSON()
	return string(b)
}

func (m LangMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Lang)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *LangMap) UnmarshalJSON(data []byte) error {
	m.entries = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("langmap: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val *string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("langmap %q: %w", key, err)
		}
		text := ""
		if val != nil {
			text = *val
		}
		m.Set(key, text)
	}
	_, err = dec.Token()
	return err
}

// Value stores an empty map as NULL.
func (m LangMap) Value() (driver.Value, error) {
	if len(m.entries) == 0 {
		return nil, nil
	}
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *LangMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		m.entries = nil
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		if strings.TrimSpace(v) == "" {
			m.entries = nil
			return nil
		}
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("langmap: unsupported scan type %T", src)
	}
}
