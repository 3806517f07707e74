package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/course"
)

// Document couples the parsed manifest with the DOM it came from so the
// descriptor can be rewritten after persistence.
type Document struct {
	Manifest *Manifest
	Path     string

	tree *etree.Document
}

// Parse reads <courseDir>/module.xml.
func Parse(courseDir string) (*Document, error) {
	path := filepath.Join(courseDir, FileName)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, aggregates.NewError(aggregates.CodeMissingManifest, "manifest.parse", fmt.Sprintf("%s not found in %s", FileName, filepath.Base(courseDir)), err)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	doc, err := ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// ParseBytes parses a descriptor held in memory.
func ParseBytes(raw []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(raw); err != nil {
		return nil, malformed("invalid XML", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, malformed("document has no root element", nil)
	}

	m := &Manifest{}
	if err := parseMeta(root, m); err != nil {
		return nil, err
	}
	if err := parseStructure(root, m); err != nil {
		return nil, err
	}
	if err := parseMedia(root, m); err != nil {
		return nil, err
	}
	return &Document{Manifest: m, tree: tree}, nil
}

func parseMeta(root *etree.Element, m *Manifest) error {
	meta := root.SelectElement("meta")
	if meta == nil {
		return malformed("missing <meta>", nil)
	}
	if v := meta.SelectElement("versionid"); v != nil {
		raw := strings.TrimSpace(v.Text())
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return malformed(fmt.Sprintf("versionid %q is not an integer", raw), err)
		}
		m.VersionID = id
	}
	if sn := meta.SelectElement("shortname"); sn != nil {
		m.Shortname = strings.TrimSpace(sn.Text())
	}
	if m.Shortname == "" {
		return malformed("missing <shortname>", nil)
	}
	m.Title = langChildren(meta, "title")
	m.Description = langChildren(meta, "description")

	for i, el := range meta.FindElements(".//activity") {
		a, err := parseActivity(el, i)
		if err != nil {
			return err
		}
		m.Baseline = append(m.Baseline, a)
	}
	return checkActivityOrders("baseline", m.Baseline)
}

func parseStructure(root *etree.Element, m *Manifest) error {
	var sectionEls []*etree.Element
	if structure := root.SelectElement("structure"); structure != nil {
		sectionEls = structure.FindElements(".//section")
	}
	if len(sectionEls) == 0 {
		return aggregates.NewError(aggregates.CodeEmptyCourse, "manifest.parse", fmt.Sprintf("course %q declares no sections", m.Shortname), nil)
	}

	seenOrders := map[int]int{}
	if len(m.Baseline) > 0 {
		seenOrders[course.BaselineOrder] = 0
	}
	for idx, el := range sectionEls {
		position := idx + 1
		container := el.SelectElement("activities")
		if container == nil {
			container = el.FindElement(".//activities")
		}
		var activityEls []*etree.Element
		if container != nil {
			activityEls = container.FindElements(".//activity")
		}
		if len(activityEls) == 0 {
			m.SkippedSections = append(m.SkippedSections, position)
			continue
		}

		s := &Section{
			Position: position,
			Order:    intAttr(el, "order", position),
			Title:    langChildren(el, "title"),
		}
		if prev, dup := seenOrders[s.Order]; dup {
			return malformed(fmt.Sprintf("section %d reuses order %d of section %d", position, s.Order, prev), nil)
		}
		seenOrders[s.Order] = position

		for i, ael := range activityEls {
			a, err := parseActivity(ael, i)
			if err != nil {
				return err
			}
			s.Activities = append(s.Activities, a)
		}
		if err := checkActivityOrders(fmt.Sprintf("section %d", position), s.Activities); err != nil {
			return err
		}
		m.Sections = append(m.Sections, s)
	}
	return nil
}

func parseActivity(el *etree.Element, idx int) (*Activity, error) {
	a := &Activity{
		Type:   strings.TrimSpace(el.SelectAttrValue("type", "")),
		Digest: strings.TrimSpace(el.SelectAttrValue("digest", "")),
		Order:  intAttr(el, "order", idx+1),
		Title:  langDescendants(el, "title"),
	}
	if a.Digest == "" {
		return nil, malformed(fmt.Sprintf("activity %d (%s) has no digest", idx+1, a.Type), nil)
	}

	switch a.Type {
	case course.ActivityTypePage, course.ActivityTypeURL:
		locations := langDescendants(el, "location")
		b, err := locations.MarshalJSON()
		if err != nil {
			return nil, malformed("encode locations", err)
		}
		a.Content = strPtr(string(b))
	case course.ActivityTypeQuiz, course.ActivityTypeFeedback:
		content := ""
		for i, c := range el.FindElements(".//content") {
			if i == 0 {
				a.contentEl = c
			}
			content = c.Text()
		}
		a.Content = strPtr(content)
	case course.ActivityTypeResource:
		content := ""
		for _, c := range el.FindElements(".//location") {
			content = strings.TrimSpace(c.Text())
		}
		a.Content = strPtr(content)
	}

	for _, img := range el.FindElements(".//image") {
		a.Image = strPtr(img.SelectAttrValue("filename", ""))
	}
	a.Description = langDescendants(el, "description")
	return a, nil
}

func parseMedia(root *etree.Element, m *Manifest) error {
	container := root.SelectElement("media")
	if container == nil {
		children := root.ChildElements()
		if len(children) == 0 {
			return nil
		}
		container = children[len(children)-1]
	}
	for _, f := range container.SelectElements("file") {
		mf := MediaFile{
			Filename:    f.SelectAttrValue("filename", ""),
			DownloadURL: f.SelectAttrValue("download_url", ""),
			Digest:      f.SelectAttrValue("digest", ""),
		}
		if raw := strings.TrimSpace(f.SelectAttrValue("filesize", "")); raw != "" {
			size, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return malformed(fmt.Sprintf("media %q filesize %q", mf.Filename, raw), err)
			}
			mf.Filesize = &size
		}
		if raw := strings.TrimSpace(f.SelectAttrValue("length", "")); raw != "" {
			length, err := strconv.Atoi(raw)
			if err != nil {
				return malformed(fmt.Sprintf("media %q length %q", mf.Filename, raw), err)
			}
			mf.Length = &length
		}
		m.Media = append(m.Media, mf)
	}
	return nil
}

func checkActivityOrders(where string, acts []*Activity) error {
	seen := make(map[int]string, len(acts))
	for _, a := range acts {
		if other, dup := seen[a.Order]; dup {
			return malformed(fmt.Sprintf("%s: activities %s and %s share order %d", where, other, a.Digest, a.Order), nil)
		}
		seen[a.Order] = a.Digest
	}
	return nil
}

// langChildren collects direct children named tag into a LangMap.
func langChildren(el *etree.Element, tag string) course.LangMap {
	return collectLang(el.SelectElements(tag))
}

// langDescendants is langChildren over every descendant named tag.
func langDescendants(el *etree.Element, tag string) course.LangMap {
	return collectLang(el.FindElements(".//" + tag))
}

// Blocks without a lang attribute or without text are dropped.
func collectLang(els []*etree.Element) course.LangMap {
	var m course.LangMap
	for _, t := range els {
		lang := strings.TrimSpace(t.SelectAttrValue("lang", ""))
		text := strings.TrimSpace(t.Text())
		if lang == "" || text == "" {
			continue
		}
		m.Set(lang, text)
	}
	return m
}

func intAttr(el *etree.Element, key string, def int) int {
	raw := strings.TrimSpace(el.SelectAttrValue(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func strPtr(s string) *string { return &s }

func malformed(msg string, cause error) error {
	return aggregates.NewError(aggregates.CodeMalformedManifest, "manifest.parse", msg, cause)
}

// SetActivityContent replaces the first <content> node of a with content.
// It fails for activities that carry no <content> node.
func (d *Document) SetActivityContent(a *Activity, content string) error {
	if a == nil || a.contentEl == nil {
		return fmt.Errorf("activity has no content node")
	}
	a.contentEl.SetText(content)
	s := content
	a.Content = &s
	return nil
}

// Bytes serializes the descriptor. Only &, < and > are escaped in text, and
// the fixed post-rules turn "&amp;" into "&" and "&quot;" into a literal
// quote so embedded quiz JSON survives byte-for-byte.
func (d *Document) Bytes() ([]byte, error) {
	d.tree.WriteSettings.CanonicalText = true
	d.tree.WriteSettings.CanonicalAttrVal = true
	raw, err := d.tree.WriteToBytes()
	if err != nil {
		return nil, err
	}
	raw = bytes.ReplaceAll(raw, []byte("&amp;"), []byte("&"))
	raw = bytes.ReplaceAll(raw, []byte("&quot;"), []byte(`"`))
	return raw, nil
}

// WriteFile writes the rewritten descriptor to path (Document.Path when empty).
func (d *Document) WriteFile(path string) error {
	if path == "" {
		path = d.Path
	}
	if path == "" {
		return fmt.Errorf("manifest: no output path")
	}
	raw, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", FileName, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
