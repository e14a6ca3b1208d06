package model

type MatchField string

const (
	MatchFieldText       MatchField = "text"
	MatchFieldToolArgs   MatchField = "tool-args"
	MatchFieldToolResult MatchField = "tool-result"
	MatchFieldThinking   MatchField = "thinking"
)

// Match is one matching sub-field of one message
type Match struct {
	Field     MatchField
	Content   string
	ToolName  string
	Role      Role
	MessageID MessageID

	DialogID      DialogID
	DialogName    string
	ProjectName   string
	FolderPath    string
	CreatedAt     int64
	LastUpdatedAt int64
}

// DialogMatches groups the matches found in one dialog
type DialogMatches struct {
	DialogID      DialogID
	DialogName    string
	ProjectName   string
	LastUpdatedAt int64
	Count         int
}
