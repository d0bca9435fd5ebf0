// Command lambda-entrypoint is started by the cluster with the shipped
// artifact paths as arguments. It loads the continuation from the last path
// and runs it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/psantana5/clusterlambda/internal/demo"
	"github.com/psantana5/clusterlambda/internal/logging"
	"github.com/psantana5/clusterlambda/pkg/lambda"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logJSON := flag.Bool("log-json", false, "Log in JSON format")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <artifact>... <continuation>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logging.NewLogger(logging.ParseLevel(*logLevel), *logJSON).WithComponent("entrypoint")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	paths := flag.Args()
	logger.Info("Starting continuation", logging.Fields{"artifacts": len(paths)})
	if err := lambda.RunEntryPoint(ctx, paths); err != nil {
		logger.Error("Continuation failed", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("Continuation finished")
}
