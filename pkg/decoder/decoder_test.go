package decoder_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/chronicle/pkg/decoder"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/gt"
)

// newRecord builds a message record padded past the store threshold
func newRecord(t *testing.T, fields map[string]any) *model.RawRecord {
	t.Helper()
	if _, ok := fields["padding"]; !ok {
		fields["padding"] = strings.Repeat("x", model.MinRecordLength)
	}
	data, err := json.Marshal(fields)
	gt.NoError(t, err)
	return model.NewRawRecord("bubbleId:dialog-1:msg-1", data)
}

func TestDecodeUserMessage(t *testing.T) {
	msg, err := decoder.New().Decode(newRecord(t, map[string]any{
		"bubbleId": "msg-1",
		"type":     1,
		"text":     "  hello world \n",
		"tokenCount": map[string]any{
			"inputTokens":  120,
			"outputTokens": 30,
		},
		"isAgentic":   true,
		"unifiedMode": 2,
	}))
	gt.NoError(t, err)
	gt.NotNil(t, msg)
	gt.Equal(t, msg.ID, model.MessageID("msg-1"))
	gt.Equal(t, msg.DialogID, model.DialogID("dialog-1"))
	gt.Equal(t, msg.Role, model.RoleUser)
	gt.Equal(t, msg.Text, "hello world")
	gt.Equal(t, msg.RawText, "  hello world \n")
	gt.Equal(t, msg.ThinkingText, "")
	gt.Equal(t, msg.Tokens.Total(), int64(150))
	gt.True(t, msg.IsAgentic)
	gt.Equal(t, msg.UnifiedMode, 2)
	gt.Nil(t, msg.Tool)
	gt.Nil(t, msg.Thinking)
	gt.A(t, msg.Attachments).Length(0)
}

func TestDecodeUnknownRolePassesThrough(t *testing.T) {
	msg, err := decoder.New().Decode(newRecord(t, map[string]any{
		"type": 7,
		"text": "system notice",
	}))
	gt.NoError(t, err)
	gt.Equal(t, msg.Role, model.Role(7))
	gt.Equal(t, msg.Role.String(), "type 7")
}

func TestDecodeMessageIDFallsBackToKey(t *testing.T) {
	msg, err := decoder.New().Decode(newRecord(t, map[string]any{
		"type": 1,
		"text": "no bubble id",
	}))
	gt.NoError(t, err)
	gt.Equal(t, msg.ID, model.MessageID("msg-1"))
}

func TestDecodeSkipsPaddingRecords(t *testing.T) {
	value := []byte(`{"type":1,"text":"short"}`)
	gt.True(t, len(value) <= model.MinRecordLength)

	msg, err := decoder.New().Decode(model.NewRawRecord("bubbleId:d:m", value))
	gt.NoError(t, err)
	gt.Nil(t, msg)
}

func TestDecodeMalformedRecord(t *testing.T) {
	value := []byte("{not json" + strings.Repeat(" ", model.MinRecordLength))
	msg, err := decoder.New().Decode(model.NewRawRecord("bubbleId:d:m", value))
	gt.Error(t, err)
	gt.Nil(t, msg)
	gt.True(t, errors.Is(err, model.ErrInvalidRecord))

	array := []byte("[" + strings.Repeat(`"x",`, 40) + `"x"]`)
	_, err = decoder.New().Decode(model.NewRawRecord("bubbleId:d:m", array))
	gt.True(t, errors.Is(err, model.ErrInvalidRecord))
}

func TestDecodeRetention(t *testing.T) {
	testCases := []struct {
		name     string
		fields   map[string]any
		retained bool
	}{
		{
			name:     "empty user message",
			fields:   map[string]any{"type": 1, "text": "   "},
			retained: false,
		},
		{
			name:     "empty assistant message without thinking",
			fields:   map[string]any{"type": 2, "text": ""},
			retained: false,
		},
		{
			name:     "text only",
			fields:   map[string]any{"type": 2, "text": "done"},
			retained: true,
		},
		{
			name: "tool only",
			fields: map[string]any{"type": 2, "toolFormerData": map[string]any{
				"tool": 15, "name": "run_terminal_cmd",
			}},
			retained: true,
		},
		{
			name: "attachment only",
			fields: map[string]any{"type": 1, "relevantFiles": []any{
				"src/main.go",
			}},
			retained: true,
		},
		{
			name:     "thinking only",
			fields:   map[string]any{"type": 2, "isThought": true},
			retained: true,
		},
		{
			name:     "user reasoning only",
			fields:   map[string]any{"type": 1, "thinking": "weighing options"},
			retained: true,
		},
		{
			name: "tool data without type or name",
			fields: map[string]any{"type": 2, "toolFormerData": map[string]any{
				"status": "completed",
			}},
			retained: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, tc.fields))
			gt.NoError(t, err)
			gt.Equal(t, msg != nil, tc.retained)
		})
	}
}

func TestDecodeThinkingClassification(t *testing.T) {
	testCases := []struct {
		name     string
		fields   map[string]any
		thinking bool
	}{
		{"thought flag", map[string]any{"type": 2, "isThought": true}, true},
		{"thinking payload", map[string]any{"type": 2, "thinking": map[string]any{"text": "hmm"}}, true},
		{"duration only", map[string]any{"type": 2, "thinkingDurationMs": 1500}, true},
		{"empty payload", map[string]any{"type": 2, "thinking": map[string]any{}}, false},
		{"assistant with text", map[string]any{"type": 2, "text": "answer", "isThought": true}, false},
		{"user with thought flag", map[string]any{"type": 1, "text": "q", "isThought": true}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, tc.fields))
			gt.NoError(t, err)
			if !tc.thinking {
				if msg != nil {
					gt.False(t, msg.IsThinking())
				}
				return
			}
			gt.NotNil(t, msg)
			gt.True(t, msg.IsThinking())
		})
	}
}

func TestDecodeThinkingContent(t *testing.T) {
	testCases := []struct {
		name     string
		thinking any
		content  string
		encoded  bool
	}{
		{"content field wins", map[string]any{"content": "c", "text": "t", "signature": "s"}, "c", false},
		{"text field", map[string]any{"content": "", "text": "t", "thinking": "th"}, "t", false},
		{"thinking field", map[string]any{"thinking": "th", "signature": "s"}, "th", false},
		{"signature field", map[string]any{"signature": "sig"}, "sig", false},
		{"bare string", "plain reasoning", "plain reasoning", false},
		{"invalid base64 signature", map[string]any{"signature": "AVSoXO@@@garbage###"}, model.ThinkingEncodedPlaceholder, true},
		{"binary base64 signature", map[string]any{"signature": "AVSoXOAA"}, model.ThinkingEncodedPlaceholder, true},
		{"encoded bare string", "AVSoXOAA", model.ThinkingEncodedPlaceholder, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, map[string]any{
				"type":               2,
				"thinking":           tc.thinking,
				"thinkingDurationMs": 2300,
			}))
			gt.NoError(t, err)
			gt.NotNil(t, msg)
			gt.True(t, msg.IsThinking())
			gt.Equal(t, msg.Thinking.Content, tc.content)
			gt.Equal(t, msg.Thinking.Encoded, tc.encoded)
			gt.Equal(t, msg.Thinking.DurationMs, int64(2300))
		})
	}
}

func TestDecodeTool(t *testing.T) {
	msg, err := decoder.New().Decode(newRecord(t, map[string]any{
		"type": 2,
		"toolFormerData": map[string]any{
			"tool":         5,
			"name":         "read_file",
			"status":       "completed",
			"userDecision": "accepted",
			"rawArgs":      `{"target_file":"main.go","explanation":"look"}`,
			"result":       map[string]any{"contents": "package main"},
		},
	}))
	gt.NoError(t, err)
	gt.NotNil(t, msg.Tool)

	tool := msg.Tool
	gt.Equal(t, tool.Name, "read_file")
	gt.Equal(t, *tool.Type, 5)
	gt.Equal(t, tool.Category, "Read File")
	gt.Equal(t, tool.Status, "completed")
	gt.Equal(t, tool.UserDecision, "accepted")

	gt.Equal(t, tool.Args.Kind, model.RawObject)
	gt.V(t, tool.Args.Object["target_file"]).Equal("main.go")
	gt.Equal(t, tool.Args.Text, `{"target_file":"main.go","explanation":"look"}`)

	gt.Equal(t, tool.Result.Kind, model.RawObject)
	gt.V(t, tool.Result.Object["contents"]).Equal("package main")
	gt.Equal(t, tool.Result.Text, `{"contents":"package main"}`)
}

func TestDecodeToolRawValueShapes(t *testing.T) {
	testCases := []struct {
		name   string
		result any
		kind   model.RawKind
		text   string
	}{
		{"string encoded array", `["a","b"]`, model.RawArray, `["a","b"]`},
		{"structured array", []any{"a", "b"}, model.RawArray, `["a","b"]`},
		{"plain string", "command not found", model.RawScalar, "command not found"},
		{"number", 42, model.RawScalar, "42"},
		{"string encoded number", "42", model.RawScalar, "42"},
		{"empty string", "", model.RawNone, ""},
		{"null", nil, model.RawNone, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, map[string]any{
				"type": 2,
				"toolFormerData": map[string]any{
					"tool":   3,
					"result": tc.result,
				},
			}))
			gt.NoError(t, err)
			gt.Equal(t, msg.Tool.Result.Kind, tc.kind)
			gt.Equal(t, msg.Tool.Result.Text, tc.text)
		})
	}
}

func TestDecodeToolCategories(t *testing.T) {
	testCases := []struct {
		code     int
		category string
	}{
		{1, "Codebase Search"},
		{9, "Codebase Search"},
		{15, "Terminal Command"},
		{19, "MCP Tool"},
		{2, "tool #2"},
		{42, "tool #42"},
	}

	for _, tc := range testCases {
		t.Run(tc.category, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, map[string]any{
				"type":           2,
				"toolFormerData": map[string]any{"tool": tc.code},
			}))
			gt.NoError(t, err)
			gt.Equal(t, msg.Tool.Category, tc.category)
			gt.Equal(t, msg.Tool.Name, "unknown")
			gt.Equal(t, msg.Tool.Status, "unknown")
		})
	}

	t.Run("name without type", func(t *testing.T) {
		msg, err := decoder.New().Decode(newRecord(t, map[string]any{
			"type":           2,
			"toolFormerData": map[string]any{"name": "mcp_call"},
		}))
		gt.NoError(t, err)
		gt.Nil(t, msg.Tool.Type)
		gt.Equal(t, msg.Tool.Category, "unknown tool")
	})
}

func TestDecodeThinkingTextOnEveryRole(t *testing.T) {
	testCases := []struct {
		name         string
		fields       map[string]any
		thinkingText string
		segment      bool
	}{
		{
			name:         "assistant with text keeps reasoning for matching",
			fields:       map[string]any{"type": 2, "text": "Here is the answer", "thinking": map[string]any{"text": "secret plan"}},
			thinkingText: "secret plan",
			segment:      false,
		},
		{
			name:         "user record with string reasoning",
			fields:       map[string]any{"type": 1, "text": "question", "thinking": "user-side reasoning"},
			thinkingText: "user-side reasoning",
			segment:      false,
		},
		{
			name:         "assistant thought",
			fields:       map[string]any{"type": 2, "thinking": map[string]any{"content": "step one"}},
			thinkingText: "step one",
			segment:      true,
		},
		{
			name:         "undecodable signature",
			fields:       map[string]any{"type": 2, "thinking": map[string]any{"signature": "AVSoXO@@@"}},
			thinkingText: "",
			segment:      true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decoder.New().Decode(newRecord(t, tc.fields))
			gt.NoError(t, err)
			gt.NotNil(t, msg)
			gt.Equal(t, msg.ThinkingText, tc.thinkingText)
			gt.Equal(t, msg.Thinking != nil, tc.segment)
		})
	}
}
