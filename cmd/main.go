package main

import (
	"fmt"
	"os"

	"github.com/kpotier/molcharge/pkg/cfg"
	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(os.Args) != 2 {
		log.Fatal("one argument is needed: path of the configuration file")
	}

	c, err := cfg.New(os.Args[1])
	if err != nil {
		log.Fatal("New", zap.Error(err))
	}

	failed := c.Start(log)
	log.Sync()
	if failed > 0 {
		os.Exit(1)
	}
}
