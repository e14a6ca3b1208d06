package model

import "strconv"

var toolCategories = map[int]string{
	1:  "Codebase Search",
	3:  "Grep Search",
	5:  "Read File",
	6:  "List Directory",
	7:  "Edit File",
	8:  "File Search",
	9:  "Codebase Search",
	11: "Delete File",
	12: "Reapply",
	15: "Terminal Command",
	16: "Fetch Rules",
	18: "Web Search",
	19: "MCP Tool",
}

// ToolCategory returns the display category of a numeric tool type. Codes
// outside the known table are rendered as "tool #N".
func ToolCategory(code int) string {
	if name, ok := toolCategories[code]; ok {
		return name
	}
	return "tool #" + strconv.Itoa(code)
}

// ToolInvocation is a tool call recorded on a message
type ToolInvocation struct {
	Name string
	// Type is nil when the record only names the tool
	Type         *int
	Category     string
	Status       string
	UserDecision string
	Args         RawValue
	Result       RawValue
}

type RawKind int

const (
	RawNone RawKind = iota
	RawObject
	RawArray
	RawScalar
)

func (k RawKind) String() string {
	switch k {
	case RawObject:
		return "object"
	case RawArray:
		return "array"
	case RawScalar:
		return "scalar"
	default:
		return "none"
	}
}

// RawValue holds tool arguments or results. The host stores them either as
// a JSON-encoded string or as structured JSON; both are resolved once into
// the same shape.
type RawValue struct {
	Kind   RawKind
	Object map[string]any
	Array  []any
	Scalar any
	// Text is the value as stored: the string itself when the host stored a
	// string, otherwise the JSON text.
	Text string
}

// IsZero reports whether no value was recorded
func (v RawValue) IsZero() bool {
	return v.Kind == RawNone
}
