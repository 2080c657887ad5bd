package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithShutdownSignals возвращает контекст, который отменяется по SIGINT/SIGTERM.
//
// Возвращаемую функцию нужно вызвать через defer: она снимает обработчик
// сигналов и закрывает лог-файл.
//
//	ctx, shutdown := utils.WithShutdownSignals(context.Background())
//	defer shutdown()
func WithShutdownSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
		Close()
	}
}
