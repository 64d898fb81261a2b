package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/buildinfo"
	"github.com/dmitrijs2005/mediavault/internal/cli"
	"github.com/dmitrijs2005/mediavault/internal/config"
	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	args := flagx.StripFlags(os.Args[1:], []string{"-r", "-l", "-d", "-c", "-config"})
	if err := app.Run(ctx, args); err != nil {
		log.Fatalf("%v", err)
	}
}
