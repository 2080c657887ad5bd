// Toolcall - CLI для Conversation Loop с вызовом инструментов.
//
// Использование:
//
//	toolcall run "запрос"               // полный цикл: модель ↔ инструменты
//	toolcall run                        // диалог построчно из stdin
//	toolcall call "запрос"              // один вызов модели + выполнение tool calls
//	toolcall chat                       // интерактивный TUI
//	toolcall --config ./config.yaml --model gpt-4o run "запрос"
//
// config.yaml ищется по флагу, в текущей директории и рядом с бинарником.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ilkoid/poncho-toolcall/pkg/app"
	"github.com/ilkoid/poncho-toolcall/pkg/conversation"
	"github.com/ilkoid/poncho-toolcall/pkg/events"
	"github.com/ilkoid/poncho-toolcall/pkg/tui"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Version - версия утилиты (заполняется при сборке)
var Version = "dev"

func main() {
	ctx, stop := utils.WithShutdownSignals(context.Background())
	defer stop()

	if err := buildApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		utils.Close()
		os.Exit(1)
	}
	utils.Close()
}

func buildApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "toolcall",
		Usage:   "tool-calling conversation loop over an OpenAI-compatible model",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config.yaml", EnvVars: []string{"TOOLCALL_CONFIG"}},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "override models.default_chat"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not print tool events"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colors in output"},
			&cli.IntFlag{Name: "width", Value: 100, Usage: "wrap output at this width"},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the conversation loop until the model answers without tool calls",
				ArgsUsage: "[query]",
				Action: func(c *cli.Context) error {
					return runLoop(c, in, out)
				},
			},
			{
				Name:      "call",
				Usage:     "call the model once and execute the tools it asks for",
				ArgsUsage: "query",
				Action: func(c *cli.Context) error {
					return runOneShot(c, out)
				},
			},
			{
				Name:  "chat",
				Usage: "interactive terminal chat over the conversation loop",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "theme", Value: "default", Usage: "color scheme: default, light, dracula"},
					&cli.BoolFlag{Name: "timestamps", Usage: "show time for every line"},
				},
				Action: runChat,
			},
		},
	}
}

// setup загружает конфиг, поднимает логгер и собирает компоненты.
func setup(c *cli.Context, emitter events.Emitter) (*app.Components, error) {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: c.String("config")})
	if err != nil {
		return nil, err
	}

	if err := utils.InitLogger(cfg.App.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	utils.SetDebug(cfg.App.Debug || c.Bool("debug"))
	utils.Info("Config loaded", "path", cfgPath)

	return app.Initialize(cfg, app.Options{Model: c.String("model"), Emitter: emitter})
}

func runLoop(c *cli.Context, in io.Reader, out io.Writer) error {
	p := newPrinter(out, c.Int("width"), c.Bool("no-color"))

	var emitter events.Emitter
	var done chan struct{}
	if !c.Bool("quiet") && !c.Bool("json") {
		ch := events.NewChanEmitter(64)
		done = make(chan struct{})
		go func() {
			defer close(done)
			for ev := range ch.Subscribe().Events() {
				p.Event(ev)
			}
		}()
		defer func() {
			ch.Close()
			<-done
		}()
		emitter = ch
	}

	comps, err := setup(c, emitter)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query != "" {
		res, err := comps.Execute(c.Context, query)
		return p.finish(c, res, err)
	}

	// Без аргументов - диалог: каждая строка stdin - новый Run на той же истории.
	scanner := bufio.NewScanner(in)
	p.Prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			p.Prompt()
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			comps.Loop.Reset()
			p.Info("history cleared")
			p.Prompt()
			continue
		}

		res, err := comps.Execute(c.Context, line)
		if err := p.finish(c, res, err); err != nil {
			var mce *conversation.ModelCallError
			if !errors.As(err, &mce) && !errors.Is(err, conversation.ErrMaxRounds) {
				return err
			}
		}
		if c.Context.Err() != nil {
			return c.Context.Err()
		}
		p.Prompt()
	}
	return scanner.Err()
}

// runChat запускает TUI. События Loop идут в TUI через ChanEmitter,
// ввод TUI уходит в comps.Execute.
func runChat(c *cli.Context) error {
	ctx, cancel := context.WithCancel(c.Context)
	ch := events.NewChanEmitter(64)
	defer stopChat(cancel, ch)

	comps, err := setup(c, ch)
	if err != nil {
		return err
	}

	cfg := tui.DefaultChatConfig()
	cfg.Colors = tui.GetColorScheme(c.String("theme"))
	cfg.ShowTimestamps = c.Bool("timestamps")
	cfg.ModelName = c.String("model")
	if cfg.ModelName == "" {
		cfg.ModelName = comps.Config.Models.DefaultChat
	}

	chat := tui.NewChatTui(ctx, ch.Subscribe(), cfg, func(ctx context.Context, input string) {
		// Ошибки уже пришли в TUI как EventError, здесь только лог.
		if _, err := comps.Execute(ctx, input); err != nil {
			utils.Error("chat run failed", "error", err)
		}
	})
	return chat.Run()
}

// stopChat отменяет незавершённый Run и закрывает emitter после выхода из TUI.
// Канал дочитывается до закрытия: завершающие события Run отправляются
// без отмены и иначе заблокировали бы Close.
func stopChat(cancel context.CancelFunc, ch *events.ChanEmitter) {
	cancel()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range ch.Subscribe().Events() {
		}
	}()
	ch.Close()
	<-drained
}

func runOneShot(c *cli.Context, out io.Writer) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query argument is required")
	}

	comps, err := setup(c, nil)
	if err != nil {
		return err
	}

	res, err := comps.OneShot(c.Context, query)
	if err != nil {
		return err
	}

	p := newPrinter(out, c.Int("width"), c.Bool("no-color"))
	if c.Bool("json") {
		return p.JSON(oneShotJSON(res))
	}
	p.OneShot(res)
	return nil
}

// finish печатает результат Run. Ошибка печатается и возвращается.
func (p *printer) finish(c *cli.Context, res conversation.Result, err error) error {
	if c.Bool("json") {
		if jerr := p.JSON(resultJSON(res, err)); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		p.Error(err)
		if res.Rounds == 0 {
			return err
		}
	}
	p.Result(res)
	return err
}
