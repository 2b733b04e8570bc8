package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/clipshare/internal/client/cli"
	"github.com/dmitrijs2005/clipshare/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
