package decoder

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Record is a parsed message record. Values are kept raw and decoded on
// access because most sub-structures are optional and inconsistently shaped.
type Record map[string]json.RawMessage

// ParseRecord parses a message record value. The value must be a JSON object.
func ParseRecord(value []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, goerr.Wrap(model.ErrInvalidRecord, "failed to parse record", goerr.V("error", err.Error()))
	}
	if rec == nil {
		return nil, goerr.Wrap(model.ErrInvalidRecord, "record is not an object")
	}
	return rec, nil
}

func (r Record) object() object {
	return object(r)
}

// object is a JSON object with lazily decoded members
type object map[string]json.RawMessage

func parseObject(raw json.RawMessage) (object, bool) {
	if isNull(raw) {
		return nil, false
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// raw returns the member value, or nil when absent or null
func (o object) raw(key string) json.RawMessage {
	v, ok := o[key]
	if !ok || isNull(v) {
		return nil
	}
	return v
}

func (o object) has(key string) bool {
	return o.raw(key) != nil
}

// str returns the member if it is a JSON string
func (o object) str(key string) string {
	s, _ := asString(o.raw(key))
	return s
}

func (o object) int(key string) (int64, bool) {
	return asInt(o.raw(key))
}

func (o object) obj(key string) (object, bool) {
	return parseObject(o.raw(key))
}

func (o object) list(key string) []json.RawMessage {
	raw := o.raw(key)
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// truthy follows JSON truthiness: null, false, 0, "", {} and [] are false
func (o object) truthy(key string) bool {
	return truthy(o.raw(key))
}

func (o object) value(key string) any {
	return decodeAny(o.raw(key))
}

func asString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asInt(raw json.RawMessage) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func truthy(raw json.RawMessage) bool {
	switch v := decodeAny(raw).(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

// decodeAny decodes raw into plain Go values, keeping numbers as json.Number
func decodeAny(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}
