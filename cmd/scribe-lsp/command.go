package main

import (
	"context"
	"fmt"

	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Root    string `cli:"name=root desc='workspace root (default: client rootUri, else cwd)'"`
	NoWatch bool   `cli:"name=no-watch desc='disable the filesystem watcher'"`
	Log     string `cli:"name=log desc='log level: debug, info, warn, error'"`

	Main *cli.Command
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "scribe-lsp").
		WithSynopsis("scribe-lsp [opts]").
		WithDescription("scribe-lsp speaks the language server protocol on stdio.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			args, err := cfg.Main.Parse(cc, args)
			if err != nil {
				cfg.Main.Usage(cc, err)
				return cli.ExitCodeErr(1)
			}
			if len(args) != 0 {
				return fmt.Errorf("%w: scribe-lsp takes no arguments, got %v", cli.ErrUsage, args)
			}
			return serve(context.Background(), cfg)
		})
}
