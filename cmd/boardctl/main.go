package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"strello/internal/config"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log.SetLevel(cfg.Level())
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
