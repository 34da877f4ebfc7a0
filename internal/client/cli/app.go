// Package cli implements the interactive command-line client.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/mayankramina/secure-file-share/internal/client/client"
	"github.com/mayankramina/secure-file-share/internal/client/config"
	"github.com/mayankramina/secure-file-share/internal/client/services"
)

type App struct {
	config   *config.Config
	api      client.Client
	files    *services.FileService
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	apiClient := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)

	return &App{
		config: c,
		api:    apiClient,
		files:  services.NewFileService(apiClient),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}
