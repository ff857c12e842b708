package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/chipsfactory/prodreport/internal/client/client"
	"github.com/chipsfactory/prodreport/internal/client/config"
)

type App struct {
	config   *config.Config
	api      *client.Client
	userName string
	role     string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewClient(c.ServerEndpointAddr, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) error {
	return a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}
