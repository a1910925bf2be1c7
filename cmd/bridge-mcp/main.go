// Command bridge-mcp exposes miniapp host commands as MCP tools.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wagiedev/miniapp-bridge-go/internal/cmd/bridgemcp"
)

func main() {
	cfg, err := bridgemcp.ParseConfig(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridgemcp.Run(ctx, cfg); err != nil {
		log.Fatalf("bridge-mcp: %v", err)
	}
}
