package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/poncho-toolcall/pkg/app"
	"github.com/ilkoid/poncho-toolcall/pkg/conversation"
	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Максимальная длина результата инструмента в ленте событий.
const maxEventResult = 300

// printer выводит события и результаты в терминал.
//
// События приходят из goroutine подписчика, поэтому вывод под mutex.
type printer struct {
	mu    sync.Mutex
	out   io.Writer
	width int

	prompt  lipgloss.Style
	answer  lipgloss.Style
	tool    lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
	heading lipgloss.Style
}

func newPrinter(out io.Writer, width int, noColor bool) *printer {
	if width <= 0 {
		width = 100
	}
	p := &printer{
		out:     out,
		width:   width,
		prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		answer:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		tool:    lipgloss.NewStyle().Foreground(lipgloss.Color("99")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
	}
	if noColor {
		plain := lipgloss.NewStyle()
		p.prompt, p.answer, p.tool, p.ok, p.fail, p.dim, p.heading = plain, plain, plain, plain, plain, plain, plain
	}
	return p
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// wrap переносит текст по словам и сдвигает его на n пробелов.
func (p *printer) wrap(s string, n uint) string {
	return indent.String(wordwrap.String(s, p.width-int(n)), n)
}

func (p *printer) Prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, p.prompt.Render("> "))
}

func (p *printer) Info(msg string) {
	p.println(p.dim.Render(msg))
}

func (p *printer) Error(err error) {
	p.println(p.fail.Render("error: " + err.Error()))
}

// Event печатает одно событие Conversation Loop.
func (p *printer) Event(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.ThinkingData:
		p.println(p.dim.Render(fmt.Sprintf("· round %d: asking model (%d messages)", ev.Round, data.Messages)))
	case events.ToolCallData:
		p.println(p.tool.Render(fmt.Sprintf("→ %s", data.ToolName)) + " " + p.dim.Render(utils.Truncate(data.Args, maxEventResult)))
	case events.ToolResultData:
		mark := p.ok.Render("✓")
		if !data.Success {
			mark = p.fail.Render("✗")
		}
		line := fmt.Sprintf("%s %s (%d ms)", mark, data.ToolName, data.Duration.Milliseconds())
		p.println(line + "\n" + p.dim.Render(p.wrap(utils.Truncate(data.Result, maxEventResult), 4)))
	case events.ErrorData:
		p.Error(data.Err)
	}
}

// Result печатает итог Run.
func (p *printer) Result(res conversation.Result) {
	var b strings.Builder
	b.WriteString(p.answer.Render(wordwrap.String(res.Response.Content, p.width)))
	b.WriteString("\n")
	b.WriteString(p.dim.Render(fmt.Sprintf("rounds: %d, tool calls: %d, %d ms",
		res.Rounds, len(res.Sources), res.Duration.Milliseconds())))
	p.println(b.String())
}

// OneShot печатает ответ модели и результаты инструментов одноразового вызова.
func (p *printer) OneShot(res app.OneShotResult) {
	if res.Response.Content != "" {
		p.println(p.answer.Render(wordwrap.String(res.Response.Content, p.width)))
	}
	if len(res.Results) == 0 {
		p.Info("model did not request any tools")
		return
	}
	p.println(p.heading.Render("Tool results"))
	for _, r := range res.Results {
		p.println(p.sourceLine(r))
	}
}

func (p *printer) sourceLine(r tools.Result) string {
	mark := p.ok.Render("✓")
	if !r.Success {
		mark = p.fail.Render("✗")
	}
	return fmt.Sprintf("%s %s %s\n%s", mark, p.tool.Render(r.Name), p.dim.Render(r.Args.String()), p.wrap(r.Content, 4))
}

// JSON печатает v с отступами.
func (p *printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	p.println(string(data))
	return nil
}

type sourceJSON struct {
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Args       string `json:"args"`
	Content    string `json:"content"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
}

func sourcesJSON(results []tools.Result) []sourceJSON {
	out := make([]sourceJSON, 0, len(results))
	for _, r := range results {
		out = append(out, sourceJSON{
			CallID:     r.CallID,
			Name:       r.Name,
			Args:       r.Args.String(),
			Content:    r.Content,
			Success:    r.Success,
			DurationMs: r.Duration.Milliseconds(),
		})
	}
	return out
}

func resultJSON(res conversation.Result, err error) any {
	out := struct {
		RunID      string       `json:"run_id"`
		Response   string       `json:"response"`
		Sources    []sourceJSON `json:"sources"`
		Rounds     int          `json:"rounds"`
		DurationMs int64        `json:"duration_ms"`
		Error      string       `json:"error,omitempty"`
	}{
		RunID:      res.RunID,
		Response:   res.Response.Content,
		Sources:    sourcesJSON(res.Sources),
		Rounds:     res.Rounds,
		DurationMs: res.Duration.Milliseconds(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func oneShotJSON(res app.OneShotResult) any {
	return struct {
		Response   string       `json:"response"`
		Results    []sourceJSON `json:"results"`
		DurationMs int64        `json:"duration_ms"`
	}{
		Response:   res.Response.Content,
		Results:    sourcesJSON(res.Results),
		DurationMs: res.Duration.Milliseconds(),
	}
}
