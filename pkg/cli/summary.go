package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kazupon/rolldown/pkg/api"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sizeStyle   = lipgloss.NewStyle().Align(lipgloss.Right)
)

// One row per written file, with paths relative to the working directory
func summaryTable(result api.BuildResult, cwd string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("File", "Size").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return sizeStyle
			}
			return lipgloss.NewStyle()
		})

	for _, file := range result.OutputFiles {
		path := file.Path
		if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		t.Row(filepath.ToSlash(path), formatSize(len(file.Contents)))
	}
	return t.String()
}

func formatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d b", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f kb", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f mb", float64(bytes)/(1024*1024))
	}
}
