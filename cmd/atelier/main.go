package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/logging"
	"github.com/styleatelier/atelier/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"parse": true, "build": true, "merge": true, "keywords": true,
	"capture": true, "history": true,
	"mint": true, "cards": true, "fetch": true, "edit": true, "evolve": true,
	"vary": true, "use": true, "delete": true,
	"pin": true, "unpin": true, "hand": true, "compose": true,
	"deck": true, "export": true, "import": true,
	"serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
          _       _ _
     __ _| |_ ___| (_) ___ _ __
    / _' | __/ _ \ | |/ _ \ '__|
   | (_| | ||  __/ | |  __/ |
    \__,_|\__\___|_|_|\___|_|

  Style cards for image prompts

  Usage: atelier <command> [options]
         atelier serve    (browser extension + library pages)
         atelier --help

  MCP server mode requires piped input.`)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	database, err := db.Init(baseDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)
	store := db.NewStore(database)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown disabled_tools entries", "names", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown disabled_types entries", "names", unknown)
	}

	if isCLIMode() {
		return newCLIApp(store, cfg, log).Run(os.Args)
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		return fmt.Errorf("unknown command %q\nRun 'atelier --help' for usage", os.Args[1])
	}

	return mcp.Run(store, cfg, log, Version)
}
