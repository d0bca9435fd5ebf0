package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/psantana5/clusterlambda/internal/jobsink"
	"github.com/psantana5/clusterlambda/internal/logging"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("JOBSINK_CONFIG"), "Path to YAML config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	hashKey := flag.String("hash-key", "", "Print the bcrypt hash of an API key for the config file and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := jobsink.HashAPIKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg := jobsink.DefaultConfig()
	if *configPath != "" {
		loaded, err := jobsink.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON).WithComponent("jobsink")

	server, err := jobsink.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Invalid configuration", logging.Fields{"error": err.Error()})
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting jobsink", logging.Fields{
			"addr":     cfg.Listen,
			"api_keys": len(cfg.APIKeys),
		})
		if err := server.ListenAndServe(); err != nil {
			logger.Fatal("Failed to start server", logging.Fields{"error": err.Error()})
		}
	}()

	<-stop
	logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", logging.Fields{"error": err.Error()})
	}
	logger.Info("Server stopped")
}
