package search

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/chronicle/pkg/model"
)

// markers that make raw bytes differ from decoded text: unicode and slash
// escapes, and base64 reasoning content that is decoded before matching
var opaqueMarkers = [][]byte{
	[]byte(`\u`),
	[]byte(`\/`),
	[]byte("AVSoXO"),
}

// matcher tests decoded fields against a pattern and pre-checks raw record
// bytes with the same pattern
type matcher struct {
	pattern       string
	raw           []byte
	caseSensitive bool
	// prefilter is false when the pattern contains characters that JSON
	// escapes, so raw bytes cannot be compared directly
	prefilter bool
}

func newMatcher(pattern string, caseSensitive bool) *matcher {
	m := &matcher{
		pattern:       pattern,
		caseSensitive: caseSensitive,
		prefilter:     jsonTransparent(pattern),
	}
	if !caseSensitive {
		m.pattern = strings.ToLower(pattern)
	}
	m.raw = []byte(m.pattern)
	return m
}

// jsonTransparent reports whether s is stored verbatim inside a JSON string
func jsonTransparent(s string) bool {
	for _, r := range s {
		if r == '"' || r == '\\' || r < 0x20 || r == utf8.RuneError {
			return false
		}
	}
	return true
}

func (m *matcher) match(s string) bool {
	if s == "" {
		return false
	}
	if !m.caseSensitive {
		s = strings.ToLower(s)
	}
	return strings.Contains(s, m.pattern)
}

// precheck reports whether a record may contain a match. It never rejects a
// record that would produce one.
func (m *matcher) precheck(value []byte) bool {
	if !m.prefilter {
		return true
	}
	for _, marker := range opaqueMarkers {
		if bytes.Contains(value, marker) {
			return true
		}
	}
	if !m.caseSensitive {
		value = bytes.ToLower(value)
	}
	return bytes.Contains(value, m.raw)
}

// matches tests every searchable sub-field of msg, one Match per hit
func (m *matcher) matches(msg *model.Message) []*model.Match {
	var matches []*model.Match
	add := func(field model.MatchField, content, toolName string) {
		if m.match(content) {
			matches = append(matches, &model.Match{
				Field:     field,
				Content:   content,
				ToolName:  toolName,
				Role:      msg.Role,
				MessageID: msg.ID,
				DialogID:  msg.DialogID,
			})
		}
	}

	add(model.MatchFieldText, msg.RawText, "")
	if msg.Tool != nil {
		add(model.MatchFieldToolArgs, msg.Tool.Args.Text, msg.Tool.Name)
		add(model.MatchFieldToolResult, msg.Tool.Result.Text, msg.Tool.Name)
	}
	add(model.MatchFieldThinking, msg.ThinkingText, "")
	return matches
}
