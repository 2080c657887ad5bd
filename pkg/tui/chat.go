package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// maxToolResult - сколько символов результата инструмента показывать в ленте.
const maxToolResult = 200

// ChatConfig - настройки ChatTui.
type ChatConfig struct {
	// Colors - цветовая схема.
	Colors ColorScheme

	// Title - заголовок в статус-баре.
	Title string

	// ModelName показывается в статус-баре, если не пустой.
	ModelName string

	// InputPrompt - placeholder поля ввода.
	InputPrompt string

	// ShowTimestamps добавляет время к строкам ленты.
	ShowTimestamps bool
}

// DefaultChatConfig возвращает конфигурацию по умолчанию.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Colors:      ColorSchemes["default"],
		Title:       "toolcall",
		InputPrompt: "Введите вопрос...",
	}
}

// ChatTui - Bubble Tea модель чата поверх событий Conversation Loop.
//
// Ввод пользователя уходит в onInput (в отдельной горутине), а ход
// выполнения приходит обратно через Subscriber как EventMsg.
type ChatTui struct {
	cfg    ChatConfig
	styles styles

	sub     events.Subscriber
	onInput func(ctx context.Context, input string)
	ctx     context.Context

	viewport viewport.Model
	textarea textarea.Model
	lines    []string

	status  string
	rounds  int
	running bool
	ready   bool
	width   int
}

// NewChatTui создаёт чат. onInput вызывается для каждой непустой строки,
// пока предыдущий запуск не завершился, новый ввод игнорируется.
func NewChatTui(ctx context.Context, sub events.Subscriber, cfg ChatConfig, onInput func(ctx context.Context, input string)) *ChatTui {
	ta := textarea.New()
	ta.Placeholder = cfg.InputPrompt
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 4000
	ta.Focus()

	vp := viewport.New(80, 20)

	return &ChatTui{
		cfg:      cfg,
		styles:   newStyles(cfg.Colors),
		sub:      sub,
		onInput:  onInput,
		ctx:      ctx,
		viewport: vp,
		textarea: ta,
		status:   "Ready",
	}
}

// Run запускает TUI и блокируется до выхода.
func (m *ChatTui) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}

// Init реализует tea.Model.
func (m *ChatTui) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, ReceiveEventCmd(m.sub, toMsg))
}

func toMsg(e events.Event) tea.Msg {
	return EventMsg(e)
}

// Update реализует tea.Model.
func (m *ChatTui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if cmd, handled := m.handleKeyPress(msg); handled {
			return m, cmd
		}

	case EventMsg:
		m.handleEvent(events.Event(msg))
		return m, WaitForEvent(m.sub, toMsg)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatTui) resize(width, height int) {
	m.width = width
	m.textarea.SetWidth(width)
	vpHeight := height - m.textarea.Height() - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.ready = true
	m.refresh()
}

func (m *ChatTui) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit, true

	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		m.textarea.Reset()
		if input == "" || m.running {
			return nil, true
		}
		if input == "/exit" || input == "/quit" {
			return tea.Quit, true
		}

		m.running = true
		m.status = "Thinking"
		m.appendLine(m.styles.user.Render("USER: ") + input)

		ctx, onInput := m.ctx, m.onInput
		go onInput(ctx, input)
		return nil, true
	}
	return nil, false
}

// handleEvent переводит событие в строку ленты и обновляет статус.
func (m *ChatTui) handleEvent(e events.Event) {
	switch data := e.Data.(type) {
	case events.StartData:
		m.running = true
		m.rounds = 0

	case events.ThinkingData:
		m.rounds = e.Round
		m.status = "Thinking"
		m.appendLine(m.styles.system.Render(fmt.Sprintf("раунд %d: запрос к модели (%d сообщений)", e.Round, data.Messages)))

	case events.ToolCallData:
		m.status = "Running tools"
		m.appendLine(m.styles.call.Render("→ "+data.ToolName) + " " + data.Args)

	case events.ToolResultData:
		style := m.styles.result
		mark := "✓"
		if !data.Success {
			style = m.styles.err
			mark = "✗"
		}
		m.appendLine(style.Render(fmt.Sprintf("%s %s (%s) ", mark, data.ToolName, data.Duration.Round(time.Millisecond))) +
			utils.Truncate(data.Result, maxToolResult))

	case events.MessageData:
		if e.Type == events.EventMessage {
			m.appendLine(m.styles.ai.Render("AI: ") + data.Content)
			return
		}
		// EventDone
		m.running = false
		m.status = "Ready"
		m.appendLine(m.styles.system.Render(fmt.Sprintf("раундов: %d, источников: %d", m.rounds, data.Sources)))

	case events.ErrorData:
		m.appendLine(m.styles.err.Render("ERROR: ") + data.Err.Error())
	}
}

func (m *ChatTui) appendLine(line string) {
	if m.cfg.ShowTimestamps {
		line = m.styles.system.Render(time.Now().Format("15:04:05")+" ") + line
	}
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *ChatTui) refresh() {
	AppendToViewport(&m.viewport, wrapLines(m.lines, m.viewport.Width))
}

// View реализует tea.Model.
func (m *ChatTui) View() string {
	if !m.ready {
		return "Инициализация..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusBar(),
		m.viewport.View(),
		m.textarea.View(),
	)
}

func (m *ChatTui) renderStatusBar() string {
	parts := []string{m.cfg.Title}
	if m.cfg.ModelName != "" {
		parts = append(parts, m.cfg.ModelName)
	}
	parts = append(parts, m.status)
	if m.rounds > 0 {
		parts = append(parts, fmt.Sprintf("round %d", m.rounds))
	}
	return m.styles.status.Width(m.width).Render(" " + strings.Join(parts, " | "))
}

// Lines возвращает строки ленты без переноса.
func (m *ChatTui) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Status возвращает текущий статус: Ready, Thinking или Running tools.
func (m *ChatTui) Status() string {
	return m.status
}

// Running сообщает, выполняется ли сейчас запрос.
func (m *ChatTui) Running() bool {
	return m.running
}
