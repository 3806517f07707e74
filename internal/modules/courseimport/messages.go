package courseimport

import "fmt"

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Advisory is a non-blocking note surfaced to the uploader.
type Advisory struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (a Advisory) String() string { return string(a.Level) + ": " + a.Text }

// Messages collects advisories in emission order. The zero value is ready
// to use.
type Messages struct {
	items []Advisory
}

func (m *Messages) Info(format string, args ...any) {
	m.items = append(m.items, Advisory{Level: LevelInfo, Text: fmt.Sprintf(format, args...)})
}

func (m *Messages) Warn(format string, args ...any) {
	m.items = append(m.items, Advisory{Level: LevelWarning, Text: fmt.Sprintf(format, args...)})
}

func (m *Messages) List() []Advisory {
	out := make([]Advisory, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Messages) Len() int { return len(m.items) }
