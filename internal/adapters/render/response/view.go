package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/arthas-cli/internal/application"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// MaxRecords caps the async records shown; zero shows all of them.
	MaxRecords int
}

func renderView(resp domain.Response, opts RenderOptions, s styles) string {
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, statusBadge(resp.Status, s), " ", s.title.Render(resp.Message)),
	}

	if resp.Error != "" {
		lines = append(lines, s.failure.Render("error: ")+s.detail.Render(resp.Error))
	}
	if stamp := formatTimestamp(resp.Timestamp, opts.Now); stamp != "" {
		lines = append(lines, s.header.Render(stamp))
	}

	if body := renderData(resp.Data, opts, s); body != "" {
		lines = append(lines, s.section.Render(body))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusBadge(status domain.Status, s styles) string {
	switch status {
	case domain.StatusSuccess:
		return s.success.Render("[ok]")
	case domain.StatusWarning:
		return s.warning.Render("[warn]")
	case domain.StatusError:
		return s.failure.Render("[error]")
	default:
		return s.header.Render(fmt.Sprintf("[%s]", status))
	}
}

func formatTimestamp(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	if now.IsZero() || at.After(now) {
		return "at " + at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at).Round(time.Second)
	if elapsed < time.Second {
		return "just now"
	}

	return fmt.Sprintf("%s ago", elapsed)
}

func renderData(data any, opts RenderOptions, s styles) string {
	switch value := data.(type) {
	case nil:
		return ""
	case application.AsyncResult:
		return renderAsync(value, opts, s)
	default:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return s.warning.Render(fmt.Sprintf("unprintable data: %v", err))
		}
		if string(encoded) == "{}" || string(encoded) == "null" {
			return ""
		}
		return s.detail.Render(string(encoded))
	}
}

func renderAsync(result application.AsyncResult, opts RenderOptions, s styles) string {
	summary := []string{
		s.key.Render("job:") + " " + s.detail.Render(jobLabel(result.JobID)),
		s.key.Render("pulls:") + " " + s.detail.Render(fmt.Sprintf("%d", result.PullAttempts)),
		s.key.Render("results:") + " " + s.detail.Render(fmt.Sprintf("%d", result.Count)),
		s.key.Render("completed:") + " " + s.detail.Render(yesNo(result.Completed)),
	}
	lines := []string{strings.Join(summary, "  ")}

	if len(result.Results) == 0 {
		lines = append(lines, s.empty.Render("No results received."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	shown := result.Results
	if opts.MaxRecords > 0 && len(shown) > opts.MaxRecords {
		shown = shown[:opts.MaxRecords]
	}
	for i, record := range shown {
		lines = append(lines, s.index.Render(fmt.Sprintf("[%d]", i+1))+" "+s.detail.Render(compactRecord(record)))
	}
	if hidden := len(result.Results) - len(shown); hidden > 0 {
		lines = append(lines, s.empty.Render(fmt.Sprintf("... %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func compactRecord(record domain.ResultRecord) string {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf("<%s record>", record.Type)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, encoded); err != nil {
		return string(encoded)
	}
	return buf.String()
}

func jobLabel(id domain.JobID) string {
	if id == "" {
		return "n/a"
	}
	return string(id)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
