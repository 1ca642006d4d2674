package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/librarian/internal/cli"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "import":
		cmd := cli.NewImportCommand(config.NewConfig())
		if err = cmd.ParseFlags(args); err == nil {
			err = cmd.Run(ctx)
		}

	case "export":
		cmd := cli.NewExportCommand(config.NewConfig())
		if err = cmd.ParseFlags(args); err == nil {
			err = cmd.Run(ctx)
		}

	case "hash-password":
		cmd := cli.NewHashPasswordCommand()
		if err = cmd.ParseFlags(args); err == nil {
			err = cmd.Run()
		}

	case "version":
		fmt.Printf("librarian %s (%s)\n", Version, Commit)

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import         Add books from a CSV or YAML file to the catalog\n")
	fmt.Fprintf(os.Stderr, "  export         Write the catalog as books.csv and borrowed_books.csv\n")
	fmt.Fprintf(os.Stderr, "  hash-password  Print a bcrypt hash for AUTH_PASSWORD_HASH\n")
	fmt.Fprintf(os.Stderr, "  version        Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Settings come from environment variables such as DATA_DIR and CATALOG_BACKEND.\n")
}
