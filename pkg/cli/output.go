package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/chronicle/pkg/model"
)

const timeLayout = "2006-01-02 15:04"

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return model.MsTime(ms).Format(timeLayout)
}

type messageStyle struct {
	thinking bool
	files    bool
	target   bool
}

func printMessage(w io.Writer, msg *model.Message, style messageStyle) {
	marker := ""
	if style.target {
		marker = " <<<"
	}
	fmt.Fprintf(w, "[%d] %s (%s)%s\n", msg.Ordinal, msg.Role, msg.ID, marker)

	if msg.Text != "" {
		fmt.Fprintf(w, "%s\n", indent(msg.Text))
	}
	if t := msg.Tool; t != nil {
		fmt.Fprintf(w, "  tool: %s", t.Name)
		if t.Category != "" {
			fmt.Fprintf(w, " [%s]", t.Category)
		}
		if t.Status != "" {
			fmt.Fprintf(w, " %s", t.Status)
		}
		fmt.Fprintf(w, "\n")
		if t.Args.Text != "" {
			fmt.Fprintf(w, "  args: %s\n", t.Args.Text)
		}
	}
	if th := msg.Thinking; th != nil {
		if style.thinking {
			fmt.Fprintf(w, "  thinking (%dms):\n%s\n", th.DurationMs, indent(th.Content))
		} else {
			fmt.Fprintf(w, "  thinking (%dms)\n", th.DurationMs)
		}
	} else if style.thinking && msg.ThinkingText != "" {
		fmt.Fprintf(w, "  thinking:\n%s\n", indent(msg.ThinkingText))
	}
	if style.files {
		for _, a := range msg.Attachments {
			fmt.Fprintf(w, "  file: %s (%s)\n", a.Path, a.Source)
		}
	}
	fmt.Fprintf(w, "\n")
}

func printMatch(w io.Writer, m *model.Match) {
	field := string(m.Field)
	if m.ToolName != "" {
		field += ":" + m.ToolName
	}
	fmt.Fprintf(w, "%s / %s (%s) %s\n", m.ProjectName, m.DialogName, formatMs(m.LastUpdatedAt), m.DialogID)
	fmt.Fprintf(w, "  %s %s [%s]: %s\n", m.MessageID, m.Role, field, excerpt(m.Content, 200))
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
