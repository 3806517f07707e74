package quizdedup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/quiz"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const op = "quizdedup.resolve"

type Deps struct {
	Log       *logger.Logger
	Quizzes   repos.QuizRepo
	Questions repos.QuestionRepo
	Responses repos.ResponseRepo
}

// Result is the canonical content that replaces the activity payload.
type Result struct {
	Content string
	QuizID  uuid.UUID
	Created bool
}

type Deduplicator struct {
	deps Deps
}

func New(deps Deps) *Deduplicator {
	if deps.Log != nil {
		deps.Log = deps.Log.With("module", "QuizDedup")
	}
	return &Deduplicator{deps: deps}
}

// Resolve returns the canonical content for a quiz payload keyed by
// props.digest. A known digest returns the stored content unchanged and
// writes nothing; an unknown one materializes the quiz tree.
func (d *Deduplicator) Resolve(dbc dbctx.Context, ownerID uuid.UUID, payload string) (*Result, error) {
	obj, err := decode(payload)
	if err != nil {
		return nil, err
	}
	digest := digestOf(obj)
	if digest == "" {
		return nil, aggregates.NewError(aggregates.CodeMalformedQuizPayload, op, "quiz payload has no props.digest", nil)
	}

	existing, err := d.deps.Quizzes.FindByProp(dbc, quiz.PropDigest, digest)
	if err != nil {
		return nil, fmt.Errorf("lookup quiz digest %s: %w", digest, err)
	}
	if existing != nil {
		if len(existing.Content) > 0 {
			return &Result{Content: string(existing.Content), QuizID: existing.ID}, nil
		}
		content, err := d.render(dbc, existing.ID)
		if err != nil {
			return nil, err
		}
		return &Result{Content: content, QuizID: existing.ID}, nil
	}

	content, quizID, err := d.create(dbc, ownerID, obj)
	if err != nil {
		return nil, err
	}
	d.debug("quiz created", "digest", digest, "quiz_id", quizID)
	return &Result{Content: content, QuizID: quizID, Created: true}, nil
}

// plan is every row of a new quiz tree, with ids assigned up front so they
// can be folded into the payload before anything is written.
type plan struct {
	quiz          *types.Quiz
	quizProps     []*types.QuizProps
	questions     []*types.Question
	links         []*types.QuizQuestion
	questionProps []*types.QuestionProps
	responses     []*types.Response
	responseProps []*types.ResponseProps
}

// create writes quiz, props, questions, links and responses. The folded
// payload becomes the quiz's canonical content.
func (d *Deduplicator) create(dbc dbctx.Context, ownerID uuid.UUID, obj map[string]any) (string, uuid.UUID, error) {
	p, err := buildPlan(ownerID, obj)
	if err != nil {
		return "", uuid.Nil, err
	}
	content, err := encode(obj)
	if err != nil {
		return "", uuid.Nil, err
	}
	p.quiz.Content = datatypes.JSON(content)

	if _, err := d.deps.Quizzes.Create(dbc, []*types.Quiz{p.quiz}); err != nil {
		return "", uuid.Nil, fmt.Errorf("create quiz: %w", err)
	}
	if _, err := d.deps.Quizzes.CreateProps(dbc, p.quizProps); err != nil {
		return "", uuid.Nil, fmt.Errorf("create quiz props: %w", err)
	}
	if _, err := d.deps.Questions.Create(dbc, p.questions); err != nil {
		return "", uuid.Nil, fmt.Errorf("create questions: %w", err)
	}
	if _, err := d.deps.Questions.LinkToQuiz(dbc, p.links); err != nil {
		return "", uuid.Nil, fmt.Errorf("link questions: %w", err)
	}
	if _, err := d.deps.Questions.CreateProps(dbc, p.questionProps); err != nil {
		return "", uuid.Nil, fmt.Errorf("create question props: %w", err)
	}
	if _, err := d.deps.Responses.Create(dbc, p.responses); err != nil {
		return "", uuid.Nil, fmt.Errorf("create responses: %w", err)
	}
	if _, err := d.deps.Responses.CreateProps(dbc, p.responseProps); err != nil {
		return "", uuid.Nil, fmt.Errorf("create response props: %w", err)
	}
	return content, p.quiz.ID, nil
}

func buildPlan(ownerID uuid.UUID, obj map[string]any) (*plan, error) {
	p := &plan{quiz: &types.Quiz{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       text(obj["title"]),
		Description: text(obj["description"]),
	}}
	obj["id"] = p.quiz.ID.String()
	for _, kv := range props(obj["props"]) {
		p.quizProps = append(p.quizProps, &types.QuizProps{QuizID: p.quiz.ID, Name: kv.name, Value: kv.value})
	}

	questions, _ := obj["questions"].([]any)
	for i, raw := range questions {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("question %d is not an object", i+1))
		}
		body, ok := entry["question"].(map[string]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("question %d has no question body", i+1))
		}
		question := &types.Question{
			ID:      uuid.New(),
			OwnerID: ownerID,
			Type:    text(body["type"]),
			Title:   text(body["title"]),
		}
		link := &types.QuizQuestion{
			ID:         uuid.New(),
			QuizID:     p.quiz.ID,
			QuestionID: question.ID,
			Order:      intOf(entry["order"]),
		}
		entry["id"] = link.ID.String()
		body["id"] = question.ID.String()
		p.questions = append(p.questions, question)
		p.links = append(p.links, link)
		for _, kv := range props(body["props"]) {
			p.questionProps = append(p.questionProps, &types.QuestionProps{QuestionID: question.ID, Name: kv.name, Value: kv.value})
		}

		responses, _ := body["responses"].([]any)
		for j, rraw := range responses {
			r, ok := rraw.(map[string]any)
			if !ok {
				return nil, malformed(fmt.Sprintf("response %d of question %d is not an object", j+1, i+1))
			}
			score, err := floatOf(r["score"])
			if err != nil {
				return nil, malformed(fmt.Sprintf("response %d of question %d: %v", j+1, i+1, err))
			}
			resp := &types.Response{
				ID:         uuid.New(),
				OwnerID:    ownerID,
				QuestionID: question.ID,
				Title:      text(r["title"]),
				Score:      score,
				Order:      intOf(r["order"]),
			}
			r["id"] = resp.ID.String()
			p.responses = append(p.responses, resp)
			for _, kv := range props(r["props"]) {
				p.responseProps = append(p.responseProps, &types.ResponseProps{ResponseID: resp.ID, Name: kv.name, Value: kv.value})
			}
		}
	}
	return p, nil
}

// render rebuilds canonical content for quizzes stored without it and
// persists the result so later lookups take the fast path.
func (d *Deduplicator) render(dbc dbctx.Context, quizID uuid.UUID) (string, error) {
	tree, err := d.deps.Quizzes.LoadTree(dbc, quizID)
	if err != nil {
		return "", fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	obj := map[string]any{
		"id":          tree.Quiz.ID.String(),
		"title":       tree.Quiz.Title,
		"description": tree.Quiz.Description,
		"props":       quizPropMap(tree.Props),
	}
	questions := make([]any, 0, len(tree.Questions))
	for _, tq := range tree.Questions {
		qProps := map[string]any{}
		for _, p := range tq.Props {
			qProps[p.Name] = p.Value
		}
		responses := make([]any, 0, len(tq.Responses))
		for _, tr := range tq.Responses {
			rProps := map[string]any{}
			for _, p := range tr.Props {
				rProps[p.Name] = p.Value
			}
			responses = append(responses, map[string]any{
				"id":    tr.Response.ID.String(),
				"title": tr.Response.Title,
				"score": tr.Response.Score,
				"order": tr.Response.Order,
				"props": rProps,
			})
		}
		questions = append(questions, map[string]any{
			"id":    tq.Link.ID.String(),
			"order": tq.Link.Order,
			"question": map[string]any{
				"id":        tq.Question.ID.String(),
				"type":      tq.Question.Type,
				"title":     tq.Question.Title,
				"props":     qProps,
				"responses": responses,
			},
		})
	}
	obj["questions"] = questions

	content, err := encode(obj)
	if err != nil {
		return "", err
	}
	if err := d.deps.Quizzes.UpdateContent(dbc, quizID, content); err != nil {
		return "", fmt.Errorf("store quiz content: %w", err)
	}
	return content, nil
}

func (d *Deduplicator) debug(msg string, kv ...interface{}) {
	if d.deps.Log != nil {
		d.deps.Log.Debug(msg, kv...)
	}
}

func quizPropMap(ps []*types.QuizProps) map[string]any {
	out := make(map[string]any, len(ps))
	for _, p := range ps {
		out[p.Name] = p.Value
	}
	return out
}

func decode(payload string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, aggregates.NewError(aggregates.CodeMalformedQuizPayload, op, "quiz payload is not a JSON object", err)
	}
	if obj == nil {
		return nil, malformed("quiz payload is null")
	}
	return obj, nil
}

func encode(obj map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return "", fmt.Errorf("encode quiz content: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func digestOf(obj map[string]any) string {
	p, ok := obj["props"].(map[string]any)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text(p[quiz.PropDigest]))
}

type prop struct {
	name  string
	value string
}

// props flattens a props object, skipping the "id" key which only ever
// carries a previously folded identifier.
func props(v any) []prop {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]prop, 0, len(keys))
	for _, k := range keys {
		out = append(out, prop{name: k, value: text(m[k])})
	}
	return out
}

// text renders scalars as-is and objects (per-language titles) as JSON.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func intOf(v any) int {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	case float64:
		return int(t)
	case int:
		return t
	}
	return 0
}

func floatOf(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return t.Float64()
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case float64:
		return t, nil
	}
	return 0, fmt.Errorf("score %v is not a number", v)
}

func malformed(msg string) error {
	return aggregates.NewError(aggregates.CodeMalformedQuizPayload, op, msg, nil)
}
