package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/fpt/codeassist/internal/app"
	"github.com/fpt/codeassist/internal/config"
	"github.com/fpt/codeassist/internal/metrics"
	"github.com/fpt/codeassist/internal/server"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("codeassist - MCP server exposing local and GitHub content tools")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  codeassist [flags] [serve]               Serve tools over MCP stdio (default)")
	fmt.Println("  codeassist [flags] call <tool> [json]    Run one tool and print its result")
	fmt.Println("  codeassist [flags] tools                 Print the tool catalog as JSON")
	fmt.Println("  codeassist version                       Print the version")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  GITHUB_TOKEN              Token for the GitHub tools")
	fmt.Println("  GITHUB_REPOSITORY         Default owner/name for GitHub tools")
	fmt.Println("  GITHUB_API_URL            GitHub Enterprise API base URL")
	fmt.Println("  GITHUB_BACKEND            Pin one backend (go-github or gh)")
	fmt.Println("  CODING_ASSISTANT_CONTEXT  JSON file seeding the session state")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  codeassist -w ~/src/project")
	fmt.Println("  codeassist call grep_files '{\"directory\":\".\",\"pattern\":\"func main\"}'")
	fmt.Println("  codeassist --metrics-addr :9090 serve")
	fmt.Println()
}

func main() {
	var workdir = flag.String("w", "", "Working directory")
	var workdirLong = flag.String("workdir", "", "Working directory")
	var settingsPath = flag.String("settings", "", "Path to settings file (.json or .yaml)")
	var metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "version" {
		fmt.Println(server.Version)
		return
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}
	if err := config.ValidateSettings(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	logLevel := settings.Agent.LogLevel
	if *verbose || *verboseLong {
		logLevel = string(pkgLogger.LogLevelDebug)
	}
	// stdout carries MCP traffic and tool results
	pkgLogger.SetGlobalLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), os.Stderr)
	logger := pkgLogger.NewLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), os.Stderr)
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Starting", "command", command, "log_level", logLevel)

	workingDirectory := resolveStringFlag(*workdir, *workdirLong)
	if workingDirectory != "" {
		if _, err := os.Stat(workingDirectory); err != nil {
			logger.Error("Working directory does not exist", "directory", workingDirectory, "error", err)
			os.Exit(1)
		}
	}

	a, err := app.New(settings, app.Options{WorkingDir: workingDirectory})
	if err != nil {
		logger.Error("Failed to initialize tools", "error", err)
		os.Exit(1)
	}

	switch command {
	case "serve":
		addr := *metricsAddr
		if addr == "" {
			addr = settings.Agent.MetricsAddr
		}
		if err := serve(a, addr, logger); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	case "call":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "call requires a tool name")
			os.Exit(2)
		}
		code, err := call(a, args[0], args[1:])
		if err != nil {
			logger.Error("Tool call failed", "tool", args[0], "error", err)
			os.Exit(1)
		}
		os.Exit(code)
	case "tools":
		catalog, err := server.Catalog(a.Tools)
		if err != nil {
			logger.Error("Failed to build tool catalog", "error", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(catalog); err != nil {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		flag.Usage()
		os.Exit(2)
	}
}

func serve(a *app.App, metricsAddr string, logger *pkgLogger.Logger) error {
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "addr", metricsAddr, "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		logger.InfoWithIntention(pkgLogger.IntentionStatus, "Serving metrics", "addr", metricsAddr)
	}

	logger.InfoWithIntention(pkgLogger.IntentionStatus, "Serving tools over stdio",
		"working_dir", a.WorkingDir, "tools", len(a.Tools.GetTools()))
	return mcpserver.ServeStdio(server.New(a.Tools))
}

// call runs one tool. The exit code is 1 when the tool reported a failure.
func call(a *app.App, name string, rest []string) (int, error) {
	toolArgs := message.ToolArgumentValues{}
	if len(rest) > 0 && rest[0] != "" {
		if err := json.Unmarshal([]byte(rest[0]), &toolArgs); err != nil {
			return 0, errors.Wrap(err, "arguments must be a JSON object")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := a.Tools.CallTool(ctx, message.ToolName(name), toolArgs)
	if err != nil {
		return 0, err
	}
	if err := app.WriteToolResult(os.Stdout, result, app.IsTerminal(os.Stdout)); err != nil {
		return 0, err
	}
	if result.IsError() {
		return 1, nil
	}
	return 0, nil
}
