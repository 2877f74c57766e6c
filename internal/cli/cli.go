// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for proofread.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdProofread Command = iota
	CmdDiff
	CmdStatus
	CmdModels
	CmdPull
	CmdStart
	CmdTemplates
	CmdStats
	CmdConfig
	CmdREPL
	CmdTUI
	CmdServe
	CmdMCP
	CmdDoctor
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdProofread: "proofread",
	CmdDiff:      "diff",
	CmdStatus:    "status",
	CmdModels:    "models",
	CmdPull:      "pull",
	CmdStart:     "start",
	CmdTemplates: "templates",
	CmdStats:     "stats",
	CmdConfig:    "config",
	CmdREPL:      "repl",
	CmdTUI:       "tui",
	CmdServe:     "serve",
	CmdMCP:       "mcp",
	CmdDoctor:    "doctor",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet     bool
	Verbose   bool
	JSON      bool
	Model     string
	Template  string
	URL       string
	Config    string // Alternate config file
	LogFormat string

	// Proofreading flags
	Stream    bool
	NoStream  bool
	Clipboard bool   // Read input from the clipboard
	Copy      bool   // Copy the result to the clipboard
	File      string // Read input from a file
	Format    string // text, inline, unified, diff or json
	Render    bool   // Render the result as markdown

	// Text is the inline text to proofread ("-" reads stdin)
	Text string

	// Suggestion is set when a single unknown word looks like a mistyped command
	Suggestion string

	// Command-specific
	Subcommand string

	// Raw args (remaining after global flag parsing)
	Raw []string
}

const usageText = `proofread - local proofreading with Ollama

Corrects grammar, spelling and punctuation with a model running in your own
Ollama server, and shows exactly which characters changed.

Usage:
  proofread "text"               Proofread inline text
  proofread -                    Proofread stdin
  proofread --file notes.md      Proofread a file
  proofread --clipboard --copy   Proofread the clipboard in place
  proofread diff <a> <b>         Character diff of two files, no model needed
  proofread status               Show Ollama status (alias: check, s)
  proofread models               List installed models
  proofread pull <model>         Download a model
  proofread start                Start the Ollama service
  proofread templates [list|show|add|delete]
  proofread stats [recent|reset]  Usage statistics
  proofread config [show|get|set|path|keys]
  proofread repl                 Interactive line-by-line proofreading
  proofread tui                  Full-screen interface
  proofread serve                Local HTTP API
  proofread mcp                  MCP tool server on stdio
  proofread doctor               Diagnose the setup
  proofread version              Version information

Proofreading flags:
  --model <name>                 Model to use (default from config)
  --template <id|name>           Prompt template (see: proofread templates)
  --stream / --no-stream         Print output as it is generated
  --format <fmt>                 text, inline, unified, diff or json
  --render                       Render the corrected text as markdown
  --clipboard                    Read input from the clipboard
  --copy                         Copy the corrected text to the clipboard
  -f, --file <path>              Read input from a file

Global flags:
  --url <url>                    Ollama base URL
  --config <path>                Use an alternate config file
  --json                         JSON output
  -q, --quiet                    Only print results
  -v, --verbose                  Debug logging
  --log-format <text|json>       Log format on stderr

Environment:
  PROOFREAD_HOME                 Config directory (default ~/.proofread)
  PROOFREAD_OLLAMA_URL           Ollama base URL
  PROOFREAD_MODEL                Default model
  PROOFREAD_TEMPLATE             Default template
  PROOFREAD_LOG_LEVEL            debug, info, warn or error
  PROOFREAD_STATS                0 disables usage statistics
  OLLAMA_HOST                    Used when PROOFREAD_OLLAMA_URL is unset

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// VersionInfo describes the build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the build information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// stdinIsTTY is replaced in tests.
var stdinIsTTY = IsTTY

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	args.Raw = remaining

	if len(remaining) == 0 {
		if args.File != "" || args.Clipboard || !stdinIsTTY() {
			return CmdProofread, args
		}
		return CmdTUI, args
	}

	first := remaining[0]
	rest := remaining[1:]

	switch strings.ToLower(first) {
	case "-":
		args.Text = "-"
		return CmdProofread, args
	case "--":
		args.Text = strings.Join(rest, " ")
		return CmdProofread, args
	case "fix", "proofread":
		args.Text = strings.Join(rest, " ")
		return CmdProofread, args
	}

	cmd, ok := lookupCommand(first)
	if !ok {
		args.Text = strings.Join(remaining, " ")
		if len(remaining) == 1 {
			args.Suggestion = SuggestCommand(first)
		}
		return CmdProofread, args
	}

	args.Raw = rest
	if len(rest) > 0 {
		args.Subcommand = rest[0]
	}
	return cmd, args
}

func lookupCommand(word string) (Command, bool) {
	switch strings.ToLower(word) {
	case "diff":
		return CmdDiff, true
	case "status", "check", "s":
		return CmdStatus, true
	case "models", "model", "ls":
		return CmdModels, true
	case "pull":
		return CmdPull, true
	case "start":
		return CmdStart, true
	case "templates", "template":
		return CmdTemplates, true
	case "stats", "statistics":
		return CmdStats, true
	case "config":
		return CmdConfig, true
	case "repl", "interactive":
		return CmdREPL, true
	case "tui", "ui":
		return CmdTUI, true
	case "serve", "server":
		return CmdServe, true
	case "mcp":
		return CmdMCP, true
	case "doctor", "diag":
		return CmdDoctor, true
	case "version", "--version":
		return CmdVersion, true
	case "help", "-h", "--help":
		return CmdHelp, true
	}
	return 0, false
}

// parseGlobalFlags extracts global and proofreading flags and returns the
// remaining args in order.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args


	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		// Everything after "--" is text.
		if arg == "--" {
			remaining = append(remaining, argv[i:]...)
			break
		}

		name, val, hasVal := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "-") || name == "-" {
			remaining = append(remaining, arg)
			continue
		}

		take := func() string {
			if hasVal {
				return val
			}
			if i+1 < len(argv) {
				i++
				return argv[i]
			}
			return ""
		}

		switch name {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--model", "-m":
			args.Model = take()
		case "--template", "-t":
			args.Template = take()
		case "--url":
			args.URL = take()
		case "--config":
			args.Config = take()
		case "--log-format":
			args.LogFormat = take()
		case "--stream":
			args.Stream = true
		case "--no-stream":
			args.NoStream = true
		case "--clipboard", "-c":
			args.Clipboard = true
		case "--copy":
			args.Copy = true
		case "--render":
			args.Render = true
		case "--file", "-f":
			args.File = take()
		case "--format":
			args.Format = take()
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, args
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run parses argv, executes the command and returns the process exit code.
func Run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, args := Parse(argv)

	switch cmd {
	case CmdHelp:
		PrintUsage(stdout)
		return ExitSuccess
	case CmdVersion:
		return exitFor(HandleVersion(stdout, args), args, stderr)
	case CmdDiff:
		return exitFor(HandleDiff(stdout, args), args, stderr)
	}

	// The REPL cancels per request, and the TUI reads Ctrl+C as a key.
	if cmd != CmdREPL && cmd != CmdTUI {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	app, err := NewApp(args, stdin, stdout, stderr)
	if err != nil {
		return exitFor(err, args, stderr)
	}
	defer app.Close()

	return exitFor(Dispatch(ctx, app, cmd, args), args, stderr)
}

// Dispatch runs a command against an initialized App.
func Dispatch(ctx context.Context, app *App, cmd Command, args Args) error {
	switch cmd {
	case CmdProofread:
		return HandleProofread(ctx, app, args)
	case CmdStatus:
		return HandleStatus(ctx, app, args)
	case CmdModels:
		return HandleModels(ctx, app, args)
	case CmdPull:
		return HandlePull(ctx, app, args)
	case CmdStart:
		return HandleStart(ctx, app, args)
	case CmdTemplates:
		return HandleTemplates(ctx, app, args)
	case CmdStats:
		return HandleStats(ctx, app, args)
	case CmdConfig:
		return HandleConfig(ctx, app, args)
	case CmdREPL:
		return HandleREPL(ctx, app, args)
	case CmdTUI:
		return HandleTUI(ctx, app, args)
	case CmdServe:
		return HandleServe(ctx, app, args)
	case CmdMCP:
		return HandleMCP(ctx, app, args)
	case CmdDoctor:
		return HandleDoctor(ctx, app, args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func exitFor(err error, args Args, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	DisplayError(stderr, err, args.JSON)
	return GetExitCode(err)
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	info := GetVersionInfo()
	if args.JSON {
		return NewJSONResponse("version", info).Print(w)
	}
	fmt.Fprintf(w, "proofread version %s\n", info.Version)
	if !args.Quiet {
		fmt.Fprintf(w, "  Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(w, "  Build date: %s\n", info.BuildDate)
		fmt.Fprintf(w, "  Go:         %s (%s)\n", info.GoVersion, info.Platform)
	}
	return nil
}
