package tui

import "github.com/charmbracelet/lipgloss"

// ColorScheme определяет цвета для различных элементов TUI.
//
// Каждое поле - это lipgloss.Color (может быть hex, ANSI, или named color).
type ColorScheme struct {
	StatusBackground lipgloss.Color
	StatusForeground lipgloss.Color
	SystemMessage    lipgloss.Color
	UserMessage      lipgloss.Color
	AIMessage        lipgloss.Color
	ErrorMessage     lipgloss.Color
	ToolCall         lipgloss.Color
	ToolResult       lipgloss.Color
}

// ColorSchemes предоставляет предустановленные цветовые схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		StatusBackground: lipgloss.Color("235"),
		StatusForeground: lipgloss.Color("252"),
		SystemMessage:    lipgloss.Color("242"),
		UserMessage:      lipgloss.Color("226"),
		AIMessage:        lipgloss.Color("86"),
		ErrorMessage:     lipgloss.Color("196"),
		ToolCall:         lipgloss.Color("228"),
		ToolResult:       lipgloss.Color("154"),
	},
	"light": {
		StatusBackground: lipgloss.Color("255"),
		StatusForeground: lipgloss.Color("0"),
		SystemMessage:    lipgloss.Color("8"),
		UserMessage:      lipgloss.Color("130"),
		AIMessage:        lipgloss.Color("31"),
		ErrorMessage:     lipgloss.Color("1"),
		ToolCall:         lipgloss.Color("94"),
		ToolResult:       lipgloss.Color("28"),
	},
	"dracula": {
		StatusBackground: lipgloss.Color("#282a36"),
		StatusForeground: lipgloss.Color("#f8f8f2"),
		SystemMessage:    lipgloss.Color("#6272a4"),
		UserMessage:      lipgloss.Color("#f1fa8c"),
		AIMessage:        lipgloss.Color("#8be9fd"),
		ErrorMessage:     lipgloss.Color("#ff5555"),
		ToolCall:         lipgloss.Color("#ffb86c"),
		ToolResult:       lipgloss.Color("#50fa7b"),
	},
}

// GetColorScheme возвращает цветовую схему по имени.
//
// Если схема не найдена, возвращает default.
func GetColorScheme(name string) ColorScheme {
	if scheme, ok := ColorSchemes[name]; ok {
		return scheme
	}
	return ColorSchemes["default"]
}

// styles - готовые lipgloss стили схемы.
type styles struct {
	status lipgloss.Style
	system lipgloss.Style
	user   lipgloss.Style
	ai     lipgloss.Style
	err    lipgloss.Style
	call   lipgloss.Style
	result lipgloss.Style
}

func newStyles(c ColorScheme) styles {
	return styles{
		status: lipgloss.NewStyle().Foreground(c.StatusForeground).Background(c.StatusBackground).Bold(true),
		system: lipgloss.NewStyle().Foreground(c.SystemMessage),
		user:   lipgloss.NewStyle().Foreground(c.UserMessage).Bold(true),
		ai:     lipgloss.NewStyle().Foreground(c.AIMessage).Bold(true),
		err:    lipgloss.NewStyle().Foreground(c.ErrorMessage).Bold(true),
		call:   lipgloss.NewStyle().Foreground(c.ToolCall),
		result: lipgloss.NewStyle().Foreground(c.ToolResult),
	}
}
