package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/chronicle/pkg/decoder"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/repository"
	"github.com/m-mizutani/chronicle/pkg/usecase/search"
	"github.com/m-mizutani/gt"
)

var padding = strings.Repeat(".", model.MinRecordLength)

// countingDecoder counts how many records reach the decoder
type countingDecoder struct {
	base  *decoder.Decoder
	calls int
}

func (x *countingDecoder) Decode(rec *model.RawRecord) (*model.Message, error) {
	x.calls++
	return x.base.Decode(rec)
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{base: decoder.New()}
}

type fixture struct {
	t    *testing.T
	repo *repository.Memory
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, repo: repository.NewMemory()}
}

func (f *fixture) dialog(project string, name string, updated int64) model.DialogID {
	id := model.DialogID(uuid.NewString())
	f.repo.PutWorkspace(&model.Workspace{
		ID:          "ws-" + string(id),
		ProjectName: project,
		FolderPath:  "/src/" + project,
		Dialogs: []*model.Dialog{
			{ID: id, Name: name, CreatedAt: updated - 10, LastUpdatedAt: updated},
		},
	})
	return id
}

func (f *fixture) message(dialogID model.DialogID, id model.MessageID, fields map[string]any) {
	f.t.Helper()
	fields["bubbleId"] = string(id)
	fields["padding"] = padding
	data, err := json.Marshal(fields)
	gt.NoError(f.t, err)
	f.repo.Put(model.MessageKey(dialogID, id), data)
}

func (f *fixture) text(dialogID model.DialogID, id model.MessageID, text string) {
	f.t.Helper()
	f.message(dialogID, id, map[string]any{"type": 1, "text": text})
}

func TestSearchCaseSensitivity(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "greeting", 100)
	f.text(d, "m1", "Hello World")
	uc := search.New(f.repo)
	ctx := context.Background()

	matches, err := uc.Search(ctx, search.Options{Pattern: "hello world"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Field, model.MatchFieldText)
	gt.Equal(t, matches[0].Content, "Hello World")

	matches, err = uc.Search(ctx, search.Options{Pattern: "hello world", CaseSensitive: true})
	gt.NoError(t, err)
	gt.A(t, matches).Length(0)

	matches, err = uc.Search(ctx, search.Options{Pattern: "Hello", CaseSensitive: true})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
}

func TestSearchUnicodeCaseFolding(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "units", 100)
	f.text(d, "m1", "temperature in K")

	matches, err := search.New(f.repo).Search(context.Background(), search.Options{Pattern: "in k"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
}

func TestSearchPrecheckSkipsDecode(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "mixed", 100)
	f.text(d, "m1", "nothing here")
	f.text(d, "m2", "the needle is here")
	f.text(d, "m3", "still nothing")

	dec := newCountingDecoder()
	matches, err := search.New(f.repo, search.WithDecoder(dec)).Search(context.Background(), search.Options{Pattern: "NEEDLE"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].MessageID, model.MessageID("m2"))
	gt.Equal(t, dec.calls, 1)
}

func TestSearchEscapedPatternDecodesEverything(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "quotes", 100)
	f.text(d, "m1", `she said "hi" twice`)
	f.text(d, "m2", "no quotes")

	dec := newCountingDecoder()
	matches, err := search.New(f.repo, search.WithDecoder(dec)).Search(context.Background(), search.Options{Pattern: `"hi"`})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, dec.calls, 2)
}

func TestSearchSubFields(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "tools", 100)
	f.message(d, "m1", map[string]any{
		"type": 2,
		"text": "running make target",
		"toolFormerData": map[string]any{
			"tool":    15,
			"name":    "run_terminal_cmd",
			"rawArgs": `{"command":"make target"}`,
			"result":  map[string]any{"output": "make: *** No rule to make target"},
		},
	})
	f.message(d, "m2", map[string]any{
		"type":               2,
		"thinking":           map[string]any{"text": "the make target is missing"},
		"thinkingDurationMs": 1200,
	})
	f.message(d, "m3", map[string]any{
		"type":     2,
		"thinking": map[string]any{"signature": "AVSoXO@@make target@@"},
	})

	matches, err := search.New(f.repo).Search(context.Background(), search.Options{Pattern: "make target"})
	gt.NoError(t, err)

	var fields []model.MatchField
	for _, m := range matches {
		fields = append(fields, m.Field)
	}
	gt.Equal(t, fields, []model.MatchField{
		model.MatchFieldText,
		model.MatchFieldToolArgs,
		model.MatchFieldToolResult,
		model.MatchFieldThinking,
	})
	gt.Equal(t, matches[1].ToolName, "run_terminal_cmd")
	gt.Equal(t, matches[1].Content, `{"command":"make target"}`)
	gt.Equal(t, matches[2].ToolName, "run_terminal_cmd")
	gt.Equal(t, matches[0].ToolName, "")
	gt.Equal(t, matches[3].MessageID, model.MessageID("m2"))
	gt.Equal(t, matches[3].Role, model.RoleAssistant)
}

func TestSearchLimitStopsScan(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "many", 100)
	for _, id := range []model.MessageID{"m1", "m2", "m3", "m4", "m5"} {
		f.text(d, id, "error: "+string(id))
	}

	dec := newCountingDecoder()
	matches, err := search.New(f.repo, search.WithDecoder(dec)).Search(context.Background(), search.Options{
		Pattern: "error",
		Limit:   2,
	})
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)
	gt.Equal(t, dec.calls, 2)
	gt.Equal(t, matches[0].MessageID, model.MessageID("m1"))

	matches, err = search.New(f.repo).Search(context.Background(), search.Options{Pattern: "error"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(5)
}

func TestSearchSortsByDialogUpdate(t *testing.T) {
	f := newFixture(t)
	older := f.dialog("api", "older", 1000)
	newer := f.dialog("web", "newer", 5000)
	f.text(older, "m1", "panic in handler")
	f.text(newer, "m1", "panic in view")

	matches, err := search.New(f.repo).Search(context.Background(), search.Options{Pattern: "panic"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)
	gt.Equal(t, matches[0].DialogID, newer)
	gt.Equal(t, matches[0].DialogName, "newer")
	gt.Equal(t, matches[0].ProjectName, "web")
	gt.Equal(t, matches[0].FolderPath, "/src/web")
	gt.Equal(t, matches[0].LastUpdatedAt, int64(5000))
	gt.Equal(t, matches[1].DialogID, older)
}

func TestSearchProjectFilter(t *testing.T) {
	f := newFixture(t)
	api := f.dialog("api-server", "a", 100)
	web := f.dialog("web-client", "b", 200)
	f.text(api, "m1", "timeout")
	f.text(web, "m1", "timeout")
	f.text(model.DialogID("orphan"), "m1", "timeout")
	f.repo.Put(model.MessageKey(api, "short"), []byte(`{"type":1,"text":"timeout"}`))

	dec := newCountingDecoder()
	matches, err := search.New(f.repo, search.WithDecoder(dec)).Search(context.Background(), search.Options{
		Pattern: "timeout",
		Project: "API",
	})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].DialogID, api)
	gt.Equal(t, dec.calls, 1)
}

func TestSearchEmptyPattern(t *testing.T) {
	_, err := search.New(repository.NewMemory()).Search(context.Background(), search.Options{})
	gt.True(t, errors.Is(err, search.ErrEmptyPattern))
}

func TestSearchProgress(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "big", 100)
	for i := 0; i < 2500; i++ {
		f.text(d, model.MessageID(uuid.NewString()), "line")
	}

	var calls []int
	_, err := search.New(f.repo).Search(context.Background(), search.Options{
		Pattern:  "absent",
		Progress: func(checked, matched int) { calls = append(calls, checked) },
	})
	gt.NoError(t, err)
	gt.Equal(t, calls, []int{1000, 2000})
}

func TestContextWindow(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "ctx", 100)
	f.text(d, "m1", "question")
	f.text(d, "m2", "answer")
	f.text(d, "m3", "thanks")
	uc := search.New(f.repo)

	window, err := uc.ContextWindow(context.Background(), d, "m2", 1)
	gt.NoError(t, err)
	gt.A(t, window).Length(3)
	gt.True(t, window[1].IsTarget)
	gt.False(t, window[0].IsTarget)
	gt.False(t, window[2].IsTarget)
	gt.Equal(t, window[0].Text, "question")

	window, err = uc.ContextWindow(context.Background(), d, "missing", 1)
	gt.NoError(t, err)
	gt.A(t, window).Length(0)
}

func TestGroupByDialog(t *testing.T) {
	groups := search.GroupByDialog([]*model.Match{
		{DialogID: "a", DialogName: "A", LastUpdatedAt: 10},
		{DialogID: "b", DialogName: "B", LastUpdatedAt: 20},
		{DialogID: "a", DialogName: "A", LastUpdatedAt: 10},
	})
	gt.A(t, groups).Length(2)
	gt.Equal(t, groups[0].DialogID, model.DialogID("b"))
	gt.Equal(t, groups[0].Count, 1)
	gt.Equal(t, groups[1].Count, 2)
}

func TestSearchThinkingOnAnyRecord(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "reasoning", 100)
	f.message(d, "m1", map[string]any{
		"type":     2,
		"text":     "Here is the answer",
		"thinking": map[string]any{"text": "secret plan"},
	})
	f.message(d, "m2", map[string]any{
		"type":     1,
		"text":     "question",
		"thinking": "user-side reasoning",
	})
	uc := search.New(f.repo)
	ctx := context.Background()

	matches, err := uc.Search(ctx, search.Options{Pattern: "secret plan"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Field, model.MatchFieldThinking)
	gt.Equal(t, matches[0].Content, "secret plan")
	gt.Equal(t, matches[0].MessageID, model.MessageID("m1"))

	matches, err = uc.Search(ctx, search.Options{Pattern: "user-side"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Field, model.MatchFieldThinking)
	gt.Equal(t, matches[0].Role, model.RoleUser)
}

func TestSearchKeepsSurroundingWhitespace(t *testing.T) {
	f := newFixture(t)
	d := f.dialog("api", "spacing", 100)
	f.text(d, "m1", "  padded text")

	matches, err := search.New(f.repo).Search(context.Background(), search.Options{Pattern: "  padded"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Content, "  padded text")
}
