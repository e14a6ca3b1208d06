package model

// SourceKind tells how a file became associated with a message
type SourceKind string

const (
	SourceActiveEditor      SourceKind = "active-editor"
	SourceProjectTree       SourceKind = "project-tree"
	SourceRetrievedContext  SourceKind = "retrieved-context"
	SourceHeuristicRelevant SourceKind = "heuristic-relevant"
	SourceExplicitSelection SourceKind = "explicit-selection"
	SourceContextSelection  SourceKind = "context-selection"
)

// SourceKinds lists all kinds in extraction order
var SourceKinds = []SourceKind{
	SourceActiveEditor,
	SourceProjectTree,
	SourceRetrievedContext,
	SourceHeuristicRelevant,
	SourceExplicitSelection,
	SourceContextSelection,
}

// Attachment is a file reference attached to a message. Only Path and
// Source are always set; the rest depends on Source.
type Attachment struct {
	Path   string
	Source SourceKind

	// active-editor
	Line    *int
	Preview string

	// retrieved-context, explicit-selection
	Content string

	// retrieved-context
	LineRange *LineRange

	// explicit-selection, context-selection; kept as recorded
	Selection any
}

type LineRange struct {
	Start int
	End   int
}

// FilterAttachments returns attachments of the given kind, preserving order
func FilterAttachments(attachments []*Attachment, kind SourceKind) []*Attachment {
	var filtered []*Attachment
	for _, a := range attachments {
		if a.Source == kind {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
