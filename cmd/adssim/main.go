// Command adssim runs the ADS test server, optionally with the HTTP
// inspection API alongside it.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrpasztoradam/goadssim"
	"github.com/mrpasztoradam/goadssim/httpapi"
)

func main() {
	configFile := flag.String("config", "", "Configuration file path (defaults apply when empty)")
	generateConfig := flag.Bool("generate-config", false, "Generate example configuration file and exit")
	listen := flag.String("listen", "", "Override the ADS listen address (host:port)")
	handlerKind := flag.String("handler", "", "Override the handler kind (basic or advanced)")
	flag.Parse()

	if *generateConfig {
		if err := goadssim.SaveExample("config.example.yaml"); err != nil {
			log.Fatalf("Failed to generate example config: %v", err)
		}
		log.Println("Generated config.example.yaml")
		return
	}

	config := goadssim.DefaultConfig()
	if *configFile != "" {
		var err error
		config, err = goadssim.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *handlerKind != "" {
		config.Server.Handler = *handlerKind
		if err := config.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger := goadssim.NewConfiguredLogger(config.Logging)
	metrics := goadssim.NewInMemoryMetrics()

	store := goadssim.NewStore()
	var handler goadssim.Handler
	if config.Server.Handler == "basic" {
		handler = goadssim.NewBasicHandler(logger)
	} else {
		handler = goadssim.NewAdvancedHandler(store, logger)
	}

	addr := config.Address()
	if *listen != "" {
		addr = *listen
	}

	server, err := goadssim.New(
		goadssim.WithAddress(addr),
		goadssim.WithStore(store),
		goadssim.WithHandler(handler),
		goadssim.WithLogger(logger),
		goadssim.WithMetrics(metrics),
	)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	for _, vc := range config.Variables {
		v, err := vc.Build()
		if err != nil {
			log.Fatalf("Failed to build variable: %v", err)
		}
		if err := server.AddVariable(v); err != nil {
			log.Fatalf("Failed to register variable: %v", err)
		}
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("ADS test server (%s handler) listening on %s", config.Server.Handler, server.Addr())

	var api *httpapi.Server
	errChan := make(chan error, 2)
	if config.HTTP.Enabled {
		api = httpapi.NewServer(config, server, logger)
		go func() {
			if err := api.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
		log.Printf("Inspection API listening on %s", config.HTTPAddress())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	}

	if api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			log.Printf("Inspection API shutdown error: %v", err)
		}
	}

	if err := server.Stop(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server exited cleanly")
}
