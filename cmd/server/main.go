package main

import (
	"strello/internal/config"
	"strello/internal/server"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log.SetLevel(cfg.Level())

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("Server initialization failed: %v", err)
	}

	s.Run()
}
