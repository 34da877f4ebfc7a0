package main

import (
	"context"

	"github.com/mayankramina/secure-file-share/internal/client/cli"
	"github.com/mayankramina/secure-file-share/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)
	app.Run(ctx)
}
