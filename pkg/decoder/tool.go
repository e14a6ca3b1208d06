package decoder

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/chronicle/pkg/model"
)

const (
	unknownToolName     = "unknown"
	unknownToolCategory = "unknown tool"
	unknownToolStatus   = "unknown"
)

func resolveTool(o object) *model.ToolInvocation {
	data, ok := o.obj("toolFormerData")
	if !ok {
		return nil
	}

	name := data.str("name")
	if !data.has("tool") && name == "" {
		return nil
	}

	tool := &model.ToolInvocation{
		Name:         name,
		Category:     unknownToolCategory,
		Status:       data.str("status"),
		UserDecision: data.str("userDecision"),
		Args:         resolveRawValue(data.raw("rawArgs")),
		Result:       resolveRawValue(data.raw("result")),
	}
	if tool.Name == "" {
		tool.Name = unknownToolName
	}
	if tool.Status == "" {
		tool.Status = unknownToolStatus
	}
	if code, ok := data.int("tool"); ok {
		typ := int(code)
		tool.Type = &typ
		tool.Category = model.ToolCategory(typ)
	}

	return tool
}

// resolveRawValue turns tool arguments or results into a RawValue. A string
// holding JSON is parsed; any other string stays an opaque scalar. Text keeps
// the string, or the structured value exactly as stored.
func resolveRawValue(raw json.RawMessage) model.RawValue {
	if raw == nil {
		return model.RawValue{}
	}

	if s, ok := asString(raw); ok {
		if strings.TrimSpace(s) == "" {
			return model.RawValue{}
		}
		v := model.RawValue{Kind: model.RawScalar, Scalar: s}
		if json.Valid([]byte(s)) {
			if parsed := classifyRawValue(decodeAny(json.RawMessage(s))); parsed.Kind != model.RawNone {
				v = parsed
			}
		}
		v.Text = s
		return v
	}

	v := classifyRawValue(decodeAny(raw))
	if v.Kind != model.RawNone {
		v.Text = string(raw)
	}
	return v
}

func classifyRawValue(value any) model.RawValue {
	switch v := value.(type) {
	case nil:
		return model.RawValue{}
	case map[string]any:
		return model.RawValue{Kind: model.RawObject, Object: v}
	case []any:
		return model.RawValue{Kind: model.RawArray, Array: v}
	default:
		return model.RawValue{Kind: model.RawScalar, Scalar: v}
	}
}
