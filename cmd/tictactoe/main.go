package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/config"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/tui"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	symbol     = flag.String("symbol", "", "Play as X or O, overrides the config")
	logPath    = flag.String("log", "", "Write logs to this file; logging is off when empty")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *symbol != "" {
		if cfg.PlayerSymbol, err = domain.ParseCell(*symbol); err != nil {
			return fmt.Errorf("-symbol %q: %w", *symbol, err)
		}
	}

	// the screen owns stdout and stderr
	log := zap.NewNop()
	if *logPath != "" {
		cfg.LogOutput = *logPath
		if log, err = cfg.NewLogger(); err != nil {
			return err
		}
	}
	defer log.Sync()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := app.NewService(app.Config{AIDelay: cfg.AIDelay, Symbol: cfg.PlayerSymbol}, log)
	ui, err := tui.New(screen, svc, cfg.PlayerSymbol, log)
	if err != nil {
		return err
	}
	log.Info("terminal game started", zap.String("session", ui.SessionID()))
	return ui.Run(ctx)
}
