package test

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	removedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	unchangedStyle = lipgloss.NewStyle().Faint(true)
)

// Diff returns a line-by-line diff where removed lines start with "-", added
// lines start with "+" and unchanged lines start with a space
func Diff(old string, new string, color bool) string {
	return strings.Join(diffRec(nil, strings.Split(old, "\n"), strings.Split(new, "\n"), color), "\n")
}

func diffLine(prefix string, line string, style lipgloss.Style, color bool) string {
	if color {
		return style.Render(prefix + line)
	}
	return prefix + line
}

// This is a simple recursive line-by-line diff implementation
func diffRec(result []string, old []string, new []string, color bool) []string {
	o, n, common := lcSubstr(old, new)

	if common == 0 {
		// Everything changed
		for _, line := range old {
			result = append(result, diffLine("-", line, removedStyle, color))
		}
		for _, line := range new {
			result = append(result, diffLine("+", line, addedStyle, color))
		}
	} else {
		// Something in the middle stayed the same
		result = diffRec(result, old[:o], new[:n], color)
		for _, line := range old[o : o+common] {
			result = append(result, diffLine(" ", line, unchangedStyle, color))
		}
		result = diffRec(result, old[o+common:], new[n+common:], color)
	}

	return result
}

// Longest common run of lines. Returns the start in each input and the length.
func lcSubstr(S []string, T []string) (int, int, int) {
	r := len(S)
	n := len(T)
	Lprev := make([]int, n)
	Lnext := make([]int, n)
	z := 0
	retI := 0
	retJ := 0

	for i := 0; i < r; i++ {
		for j := 0; j < n; j++ {
			if S[i] == T[j] {
				if j == 0 {
					Lnext[j] = 1
				} else {
					Lnext[j] = Lprev[j-1] + 1
				}
				if Lnext[j] > z {
					z = Lnext[j]
					retI = i + 1
					retJ = j + 1
				}
			} else {
				Lnext[j] = 0
			}
		}
		Lprev, Lnext = Lnext, Lprev
	}

	return retI - z, retJ - z, z
}
