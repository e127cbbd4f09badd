package main

import (
	"context"
	"os"

	"github.com/ardnew/ftd/cli"
	"github.com/ardnew/ftd/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error("run failed", log.Err(err))
		os.Exit(cli.ExitCode(err))
	}
}
