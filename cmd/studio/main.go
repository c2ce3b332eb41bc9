package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eringen/studio"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		if err := runServe(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("studio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", studio.EnvOr("STUDIO_CONFIG", "site.yaml"), "path to the YAML site config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := studio.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := studio.New(cfg)
	defer app.Close()
	app.Logger.Infof("studio %s listening on %s", version, cfg.Addr)
	return app.Start(ctx)
}

func printUsage() {
	fmt.Println(`studio - blog and portfolio content server

Usage:
  studio [command] [arguments]

Commands:
  serve [-config site.yaml]   Serve the API and admin pages (default)
  version                     Print the studio version
  help                        Show this help message

The YAML file is optional. Environment variables such as ADMIN_PASSWORD,
ADMIN_SESSION_SECRET and PUBLIC_DIR override it.`)
}
