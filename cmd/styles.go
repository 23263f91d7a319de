package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Shared styles for command output
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

func printStyled(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Println(style.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...interface{}) {
	printStyled(successStyle, "✓ "+format, args...)
}

func printWarning(format string, args ...interface{}) {
	printStyled(warningStyle, "⚠ "+format, args...)
}

func printError(format string, args ...interface{}) {
	printStyled(errorStyle, "✗ "+format, args...)
}

func printInfo(format string, args ...interface{}) {
	printStyled(infoStyle, format, args...)
}
