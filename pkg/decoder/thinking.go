package decoder

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m-mizutani/chronicle/pkg/model"
)

// encodedThinkingPrefix marks reasoning content stored as base64
const encodedThinkingPrefix = "AVSoXO"

// thinkingContentFields are probed in order; the first non-empty string wins
var thinkingContentFields = []string{"content", "text", "thinking", "signature"}

func isThought(o object) bool {
	if o.truthy("isThought") || o.truthy("thinking") {
		return true
	}
	duration, _ := o.int("thinkingDurationMs")
	return duration != 0
}

func resolveThinking(o object) *model.ThinkingSegment {
	seg := &model.ThinkingSegment{}
	seg.DurationMs, _ = o.int("thinkingDurationMs")
	seg.Content, seg.Encoded = resolveThinkingContent(o.raw("thinking"))
	return seg
}

// resolveThinkingContent returns the readable reasoning content of raw.
// Content that looks encoded but does not decode becomes the placeholder,
// with encoded set.
func resolveThinkingContent(raw json.RawMessage) (string, bool) {
	content := thinkingContent(raw)
	if !strings.HasPrefix(content, encodedThinkingPrefix) {
		return content, false
	}
	if decoded, ok := decodeThinking(content); ok {
		return decoded, false
	}
	return model.ThinkingEncodedPlaceholder, true
}

func thinkingContent(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	if s, ok := asString(raw); ok {
		return s
	}
	payload, ok := parseObject(raw)
	if !ok {
		return ""
	}
	for _, field := range thinkingContentFields {
		if s := payload.str(field); s != "" {
			return s
		}
	}
	return ""
}

// decodeThinking decodes a base64 reasoning payload. It fails unless the
// result is valid UTF-8 made of printable characters and line breaks.
func decodeThinking(content string) (string, bool) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(content)
		if err != nil {
			return "", false
		}
	}
	if !utf8.Valid(data) {
		return "", false
	}

	text := string(data)
	for _, r := range text {
		if !unicode.IsPrint(r) && r != '\n' && r != '\r' && r != '\t' {
			return "", false
		}
	}
	return text, true
}
