package decoder

import (
	"encoding/json"

	"github.com/m-mizutani/chronicle/pkg/model"
)

// pathProbe reads a file path from one named field
type pathProbe struct {
	field string
}

// resolve accepts either a plain string or a URI object carrying fsPath/path
func (p pathProbe) resolve(o object) string {
	raw := o.raw(p.field)
	if s, ok := asString(raw); ok {
		return s
	}
	if uri, ok := parseObject(raw); ok {
		if s := uri.str("fsPath"); s != "" {
			return s
		}
		return uri.str("path")
	}
	return ""
}

func probes(fields ...string) []pathProbe {
	list := make([]pathProbe, len(fields))
	for i, f := range fields {
		list[i] = pathProbe{field: f}
	}
	return list
}

var (
	activeEditorProbes = probes("uri", "path", "filePath", "file")
	pathOrURIProbes    = probes("path", "uri")
)

// firstPath returns the first non-empty path found by probes, in order
func firstPath(o object, list []pathProbe) string {
	for _, p := range list {
		if path := p.resolve(o); path != "" {
			return path
		}
	}
	return ""
}

type extractor func(o object) []*model.Attachment

// extractors run independently and in this order
var extractors = []extractor{
	extractActiveEditor,
	extractProjectTree,
	extractRetrievedContext,
	extractHeuristicRelevant,
	extractExplicitSelection,
	extractContextSelection,
}

// ExtractAttachments collects file references from all attachment sources
// of a record. Sources are not exclusive: the same path may be reported once
// per source.
func ExtractAttachments(record Record) []*model.Attachment {
	o := record.object()
	var attachments []*model.Attachment
	for _, extract := range extractors {
		attachments = append(attachments, extract(o)...)
	}
	return attachments
}

func extractActiveEditor(o object) []*model.Attachment {
	data, ok := o.obj("currentFileLocationData")
	if !ok {
		return nil
	}
	path := firstPath(data, activeEditorProbes)
	if path == "" {
		return nil
	}

	a := &model.Attachment{
		Path:    path,
		Source:  model.SourceActiveEditor,
		Preview: data.str("preview"),
	}
	if line, ok := data.int("line"); ok {
		n := int(line)
		a.Line = &n
	}
	return []*model.Attachment{a}
}

func extractProjectTree(o object) []*model.Attachment {
	var attachments []*model.Attachment
	for _, layout := range o.list("projectLayouts") {
		paths, err := layoutFiles(layout)
		if err != nil {
			continue
		}
		for _, path := range paths {
			attachments = append(attachments, &model.Attachment{
				Path:   path,
				Source: model.SourceProjectTree,
			})
		}
	}
	return attachments
}

func extractRetrievedContext(o object) []*model.Attachment {
	var attachments []*model.Attachment
	for _, item := range o.list("codebaseContextChunks") {
		chunk, ok := parseObject(item)
		if !ok {
			continue
		}
		path := chunk.str("relativeWorkspacePath")
		if path == "" {
			continue
		}
		attachments = append(attachments, &model.Attachment{
			Path:      path,
			Source:    model.SourceRetrievedContext,
			Content:   chunk.str("contents"),
			LineRange: parseLineRange(chunk.raw("lineRange")),
		})
	}
	return attachments
}

func extractHeuristicRelevant(o object) []*model.Attachment {
	var attachments []*model.Attachment
	for _, item := range o.list("relevantFiles") {
		path, ok := asString(item)
		if !ok {
			entry, isObj := parseObject(item)
			if !isObj {
				continue
			}
			path = firstPath(entry, pathOrURIProbes)
		}
		if path == "" {
			continue
		}
		attachments = append(attachments, &model.Attachment{
			Path:   path,
			Source: model.SourceHeuristicRelevant,
		})
	}
	return attachments
}

func extractExplicitSelection(o object) []*model.Attachment {
	var attachments []*model.Attachment
	for _, item := range o.list("attachedCodeChunks") {
		chunk, ok := parseObject(item)
		if !ok {
			continue
		}
		path := firstPath(chunk, pathOrURIProbes)
		if path == "" {
			continue
		}
		attachments = append(attachments, &model.Attachment{
			Path:      path,
			Source:    model.SourceExplicitSelection,
			Content:   chunk.str("content"),
			Selection: chunk.value("selection"),
		})
	}
	return attachments
}

func extractContextSelection(o object) []*model.Attachment {
	ctx, ok := o.obj("context")
	if !ok {
		return nil
	}

	var attachments []*model.Attachment
	for _, item := range ctx.list("fileSelections") {
		selection, ok := parseObject(item)
		if !ok {
			continue
		}
		path := firstPath(selection, pathOrURIProbes)
		if path == "" {
			continue
		}
		attachments = append(attachments, &model.Attachment{
			Path:      path,
			Source:    model.SourceContextSelection,
			Selection: selection.value("selection"),
		})
	}
	return attachments
}

var (
	lineRangeStartFields = []string{"startLineNumber", "startLine", "start"}
	lineRangeEndFields   = []string{"endLineNumberInclusive", "endLineNumber", "endLine", "end"}
)

func parseLineRange(raw json.RawMessage) *model.LineRange {
	o, ok := parseObject(raw)
	if !ok {
		return nil
	}
	start, hasStart := firstInt(o, lineRangeStartFields)
	end, hasEnd := firstInt(o, lineRangeEndFields)
	if !hasStart && !hasEnd {
		return nil
	}
	return &model.LineRange{Start: int(start), End: int(end)}
}

func firstInt(o object, fields []string) (int64, bool) {
	for _, f := range fields {
		if n, ok := o.int(f); ok {
			return n, true
		}
	}
	return 0, false
}
