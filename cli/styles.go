package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

const (
	colorSuccess = lipgloss.Color("#10B981")
	colorUpdate  = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	statusStyles = map[core.BuildStatus]lipgloss.Style{
		core.StatusAdded:   lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		core.StatusUpdated: lipgloss.NewStyle().Bold(true).Foreground(colorUpdate),
		core.StatusSkipped: lipgloss.NewStyle().Foreground(colorMuted),
		core.StatusFailed:  lipgloss.NewStyle().Bold(true).Foreground(colorError),
	}

	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// statusTag renders a fixed width status label such as ADDED or FAILED.
func statusTag(status core.BuildStatus) string {
	label := fmt.Sprintf("%-7s", status.String())
	style, ok := statusStyles[status]
	if !ok {
		return label
	}
	return style.Render(label)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
