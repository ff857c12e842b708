package main

import (
	"context"
	"log"

	"github.com/chipsfactory/prodreport/internal/client/cli"
	"github.com/chipsfactory/prodreport/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
