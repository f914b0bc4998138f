/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/marmot/engine"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/testbed"
)

func main() {
	configPath := flag.String("config", "testbed/engine.toml", "path to the engine configuration file")
	flag.Parse()

	log, _ := core.NewLogger(core.LoggerOptions{Level: "info", Prefix: "marmot "})

	config, err := engine.LoadApplicationConfig(*configPath)
	if err != nil {
		log.LogFatal("failed to load configuration: %s", err)
	}

	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game, config)
	if err != nil {
		log.LogFatal("failed to create the engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		log.LogFatal("failed to initialize the engine: %s", err)
	}

	// capture sigterm and other system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Run(ctx); err != nil {
		log.LogError("engine stopped with an error: %s", err)
		stop()
		os.Exit(1)
	}
}
