package decoder

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var errNotLayout = goerr.New("project layout is not an object")

// layoutFiles lists the files of a project layout snapshot. A snapshot is a
// directory tree where objects are directories and null values are files.
// It may be stored as a JSON string holding the tree.
func layoutFiles(raw json.RawMessage) ([]string, error) {
	if s, ok := asString(raw); ok {
		raw = json.RawMessage(s)
	}
	return walkLayout(raw)
}

// walkLayout traverses the tree in document order with an explicit stack of
// directory prefixes, so deeply nested snapshots cannot exhaust the call
// stack. Any syntax error discards the whole snapshot.
func walkLayout(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidRecord, "failed to read project layout", goerr.V("error", err.Error()))
	}
	if tok != json.Delim('{') {
		return nil, errNotLayout
	}

	var files []string
	stack := []string{""}
	for len(stack) > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, goerr.Wrap(model.ErrInvalidRecord, "broken project layout", goerr.V("error", err.Error()))
		}
		if tok == json.Delim('}') {
			stack = stack[:len(stack)-1]
			continue
		}

		name, ok := tok.(string)
		if !ok {
			return nil, errNotLayout
		}
		path := name
		if prefix := stack[len(stack)-1]; prefix != "" {
			path = prefix + "/" + name
		}

		value, err := dec.Token()
		if err != nil {
			return nil, goerr.Wrap(model.ErrInvalidRecord, "broken project layout", goerr.V("error", err.Error()))
		}
		switch value {
		case nil:
			files = append(files, path)
		case json.Delim('{'):
			stack = append(stack, path)
		case json.Delim('['):
			if err := skipArray(dec); err != nil {
				return nil, err
			}
		}
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, goerr.Wrap(model.ErrInvalidRecord, "trailing data after project layout")
	}
	return files, nil
}

// skipArray consumes tokens up to the end of an array whose opening
// bracket was already read
func skipArray(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return goerr.Wrap(model.ErrInvalidRecord, "broken project layout", goerr.V("error", err.Error()))
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			depth++
		case json.Delim(']'), json.Delim('}'):
			depth--
		}
	}
	return nil
}
