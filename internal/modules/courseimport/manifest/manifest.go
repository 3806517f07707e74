package manifest

import (
	"github.com/beevik/etree"

	"github.com/yungbote/neurobridge-coursepack/internal/domain/course"
)

// FileName is the descriptor every course directory must contain.
const FileName = "module.xml"

// Manifest is the typed view of module.xml.
type Manifest struct {
	Shortname   string
	VersionID   int64
	Title       course.LangMap
	Description course.LangMap

	// Baseline holds the activities declared inside <meta>.
	Baseline []*Activity
	// Sections holds only sections that declare at least one activity.
	Sections []*Section
	// SkippedSections lists the 1-based positions of empty sections.
	SkippedSections []int
	Media           []MediaFile
}

type Section struct {
	Position   int
	Order      int
	Title      course.LangMap
	Activities []*Activity
}

type Activity struct {
	Type        string
	Digest      string
	Order       int
	Title       course.LangMap
	Content     *string
	Image       *string
	Description course.LangMap

	// contentEl is the first <content> node; quiz payloads are folded back
	// into it before the descriptor is rewritten.
	contentEl *etree.Element
}

func (a *Activity) IsQuiz() bool { return a.Type == course.ActivityTypeQuiz }

type MediaFile struct {
	Filename    string
	DownloadURL string
	Digest      string
	Filesize    *int64
	Length      *int
}

// ActivityCount returns the number of activities across baseline and sections.
func (m *Manifest) ActivityCount() int {
	n := len(m.Baseline)
	for _, s := range m.Sections {
		n += len(s.Activities)
	}
	return n
}

// Digests lists every activity digest in document order.
func (m *Manifest) Digests() []string {
	out := make([]string, 0, m.ActivityCount())
	for _, a := range m.Baseline {
		out = append(out, a.Digest)
	}
	for _, s := range m.Sections {
		for _, a := range s.Activities {
			out = append(out, a.Digest)
		}
	}
	return out
}
