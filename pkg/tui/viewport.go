package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"
)

// shouldGotoBottom проверяет, находится ли пользователь внизу viewport.
func shouldGotoBottom(vp viewport.Model) bool {
	return vp.YOffset+vp.Height >= vp.TotalLineCount()
}

// AppendToViewport обновляет контент viewport и скроллит вниз,
// только если пользователь был внизу. Позиция при просмотре истории сохраняется.
func AppendToViewport(vp *viewport.Model, newContent string) {
	wasAtBottom := shouldGotoBottom(*vp)
	vp.SetContent(newContent)
	if wasAtBottom {
		vp.GotoBottom()
	}
}

// wrapLines переносит каждую строку по ширине width.
// Исходные строки хранятся без переноса, чтобы перерисовать их при resize.
func wrapLines(lines []string, width int) string {
	if width <= 0 {
		return strings.Join(lines, "\n")
	}
	wrapped := make([]string, len(lines))
	for i, line := range lines {
		wrapped[i] = wordwrap.String(line, width)
	}
	return strings.Join(wrapped, "\n")
}
