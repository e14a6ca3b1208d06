package mcp

import (
	"time"

	"github.com/m-mizutani/chronicle/pkg/model"
)

type projectView struct {
	Name        string `json:"name"`
	Folder      string `json:"folder"`
	WorkspaceID string `json:"workspace_id"`
	Dialogs     int    `json:"dialogs"`
	LastUpdated string `json:"last_updated,omitempty"`
}

type dialogView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Project     string `json:"project"`
	Folder      string `json:"folder"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

type toolView struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
	Decision string `json:"user_decision,omitempty"`
	Args     string `json:"args,omitempty"`
	Result   string `json:"result,omitempty"`
}

type thinkingView struct {
	DurationMs int64  `json:"duration_ms,omitempty"`
	Content    string `json:"content"`
	Encoded    bool   `json:"encoded,omitempty"`
}

type attachmentView struct {
	Path    string `json:"path"`
	Source  string `json:"source"`
	Line    *int   `json:"line,omitempty"`
	Content string `json:"content,omitempty"`
}

type messageView struct {
	ID           string           `json:"id"`
	Ordinal      int              `json:"ordinal"`
	Role         string           `json:"role"`
	Text         string           `json:"text,omitempty"`
	Tool         *toolView        `json:"tool,omitempty"`
	Thinking     *thinkingView    `json:"thinking,omitempty"`
	Attachments  []attachmentView `json:"attachments,omitempty"`
	InputTokens  int64            `json:"input_tokens,omitempty"`
	OutputTokens int64            `json:"output_tokens,omitempty"`
	IsTarget     bool             `json:"is_target,omitempty"`
}

type matchView struct {
	Field     string `json:"field"`
	Content   string `json:"content"`
	ToolName  string `json:"tool_name,omitempty"`
	Role      string `json:"role"`
	MessageID string `json:"message_id"`
	DialogID  string `json:"dialog_id"`
	Dialog    string `json:"dialog"`
	Project   string `json:"project"`
	Folder    string `json:"folder"`
	Updated   string `json:"last_updated,omitempty"`
}

func formatMs(ms int64) string {
	if ms == 0 {
		return ""
	}
	return model.MsTime(ms).UTC().Format(time.RFC3339)
}

func newProjectView(ws *model.Workspace) projectView {
	v := projectView{
		Name:        ws.ProjectName,
		Folder:      ws.FolderPath,
		WorkspaceID: ws.ID,
		Dialogs:     len(ws.Dialogs),
	}
	if d := ws.LatestDialog(); d != nil {
		v.LastUpdated = formatMs(d.LastUpdatedAt)
	}
	return v
}

func newDialogView(s *model.DialogSummary) dialogView {
	return dialogView{
		ID:          string(s.ID),
		Name:        s.Name,
		Project:     s.ProjectName,
		Folder:      s.FolderPath,
		CreatedAt:   formatMs(s.CreatedAt),
		LastUpdated: formatMs(s.LastUpdatedAt),
	}
}

func newMessageView(msg *model.Message) messageView {
	v := messageView{
		ID:           string(msg.ID),
		Ordinal:      msg.Ordinal,
		Role:         msg.Role.String(),
		Text:         msg.Text,
		InputTokens:  msg.Tokens.Input,
		OutputTokens: msg.Tokens.Output,
	}
	if t := msg.Tool; t != nil {
		v.Tool = &toolView{
			Name:     t.Name,
			Category: t.Category,
			Status:   t.Status,
			Decision: t.UserDecision,
			Args:     t.Args.Text,
			Result:   t.Result.Text,
		}
	}
	if th := msg.Thinking; th != nil {
		v.Thinking = &thinkingView{
			DurationMs: th.DurationMs,
			Content:    th.Content,
			Encoded:    th.Encoded,
		}
	} else if msg.ThinkingText != "" {
		v.Thinking = &thinkingView{Content: msg.ThinkingText}
	}
	for _, a := range msg.Attachments {
		v.Attachments = append(v.Attachments, attachmentView{
			Path:    a.Path,
			Source:  string(a.Source),
			Line:    a.Line,
			Content: a.Content,
		})
	}
	return v
}

func newMatchView(m *model.Match) matchView {
	return matchView{
		Field:     string(m.Field),
		Content:   m.Content,
		ToolName:  m.ToolName,
		Role:      m.Role.String(),
		MessageID: string(m.MessageID),
		DialogID:  string(m.DialogID),
		Dialog:    m.DialogName,
		Project:   m.ProjectName,
		Folder:    m.FolderPath,
		Updated:   formatMs(m.LastUpdatedAt),
	}
}
