package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const (
	gatewayName    = "semlayer-mcp"
	gatewayVersion = "1.2.0"
)

func main() {
	transportFlag := flag.String("transport", "stdio", "transport to serve tools over: stdio or http")
	addr := flag.String("addr", ":9130", "listen address for the http transport")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", gatewayName, gatewayVersion)
		return
	}

	cfg := loadConfig()
	api := newAPIClient(cfg)
	channel := newChannelManager(cfg)
	defer channel.Close()

	reg := newRegistry(cfg, api, channel)
	s := server.NewMCPServer(gatewayName, gatewayVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	reg.register(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var eg errgroup.Group
	eg.Go(func() error {
		select {
		case <-sig:
			log.Println("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	switch *transportFlag {
	case "stdio":
		eg.Go(func() error {
			defer cancel()
			return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
		})
	case "http":
		eg.Go(func() error {
			defer cancel()
			return startHTTPServer(ctx, cfg, s, *addr)
		})
	default:
		log.Fatalf("unknown transport %q (want stdio or http)", *transportFlag)
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		channel.Close()
		log.Fatalf("serve: %v", err)
	}
}
