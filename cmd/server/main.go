package main

import (
	"github.com/docsage/backend/internal/server"
	"github.com/docsage/backend/internal/util"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
