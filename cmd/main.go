package main

import (
	"flag"
	"log"

	"content_spider/internal/app"
	"content_spider/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("exited with error: %v", err)
	}
}
