package main

import (
	"github.com/lendingroom/lendingroom/internal/config"
	"github.com/lendingroom/lendingroom/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
