package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"vibedoc.ai/mcpcall/internal/application/services"
	"vibedoc.ai/mcpcall/internal/core/domain/call"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ErrCallFailed is returned by commands whose tool call did not succeed, so
// the process exits non-zero after the result has been printed
var ErrCallFailed = errors.New("tool call failed")

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders one call result. Content goes to w unadorned so it
// can be piped; the status line is styled.
func printResult(w io.Writer, r call.Result, asJSON bool) error {
	if asJSON {
		if err := writeJSON(w, r); err != nil {
			return err
		}
	} else if r.Success {
		fmt.Fprintln(w, r.Content)
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s %s in %s (%s)",
			okStyle.Render("OK"), r.ServiceName, r.Elapsed.Round(time.Millisecond), r.State)))
	} else {
		fmt.Fprintf(w, "%s %s: %s\n", failStyle.Render(string(r.ErrorKind)), r.ServiceName, r.ErrorMessage)
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("state %s after %s", r.State, r.Elapsed.Round(time.Millisecond))))
	}
	if !r.Success {
		return ErrCallFailed
	}
	return nil
}

// renderStatusTable formats probe results as the status table shared by the
// status command and the dashboard
func renderStatusTable(statuses []services.ServiceStatus, selected int) string {
	header := titleStyle.Render(fmt.Sprintf("%-12s │ %-20s │ %-7s │ %-8s │ %s",
		"SERVICE", "NAME", "STATUS", "LATENCY", "DETAIL"))
	rows := []string{header}

	for i, s := range statuses {
		status, style := "ONLINE", okStyle
		switch {
		case s.Skipped:
			status, style = "SKIPPED", skippedStyle
		case !s.Online:
			status, style = "OFFLINE", failStyle
		}

		detail := ""
		if s.Error != "" {
			detail = fmt.Sprintf("%s: %s", s.ErrorKind, s.Error)
		}
		latency := "-"
		if !s.Skipped {
			latency = s.Elapsed.Round(time.Millisecond).String()
		}

		row := fmt.Sprintf("%-12s │ %-20s │ %s │ %-8s │ %s",
			truncateString(s.Key, 12),
			truncateString(s.Name, 20),
			style.Render(fmt.Sprintf("%-7s", status)),
			latency,
			truncateString(singleLine(detail), 60),
		)
		if i == selected {
			row = lipgloss.NewStyle().Background(lipgloss.Color("240")).Render(row)
		}
		rows = append(rows, row)
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// singleLine collapses whitespace so previews fit on one table row
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateString truncates a string to maxLen display cells
func truncateString(s string, maxLen int) string {
	return ansi.Truncate(s, maxLen, "...")
}
