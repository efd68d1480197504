// Command deepresearch runs the agent playground: a terminal chat against any
// of the nine agent variants, or the browser UI with -serve.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jemygraw/deepresearch/pkg/agents"
	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/session"
	"github.com/jemygraw/deepresearch/pkg/trace"
	"github.com/jemygraw/deepresearch/pkg/web"
)

var (
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	infoStyle      = lipgloss.NewStyle().Faint(true)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	agentName := flag.String("agent", "", "agent mode or family alias, overrides AGENT_MODE")
	serveMode := flag.Bool("serve", false, "serve the browser UI instead of the terminal chat")
	addr := flag.String("addr", "", "listen address for -serve, overrides WEB_ADDR")
	flag.Parse()

	cfg := config.Load()
	if *agentName != "" {
		cfg.App.Mode = *agentName
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	log.SetLevel(log.ParseLevel(cfg.App.LogLevel))
	logger := log.Default()

	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	ctx := context.Background()
	shutdownTelemetry := trace.Init(ctx, cfg.Telemetry, logger)
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown: %v", err)
		}
	}()

	if *serveMode {
		if err := runServer(cfg, logger); err != nil {
			fatal(err)
		}
		return
	}

	mode, err := core.ParseMode(cfg.App.Mode)
	if err != nil {
		fatal(err)
	}
	if mode.WantsWebSearch() {
		if err := cfg.ValidateWebSearch(); err != nil {
			fatal(err)
		}
	}

	if err := runChat(ctx, cfg, mode); err != nil {
		fatal(err)
	}
}

// runServer hosts the browser UI. The session store backend comes from
// SESSION_BACKEND; agents are built lazily per mode inside the server.
func runServer(cfg *config.Config, logger log.Logger) error {
	if err := cfg.ValidateWebSearch(); err != nil {
		logger.Warn("%v; search-backed modes will fail until it is set", err)
	}

	sessions, err := session.New(cfg.Session)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer sessions.Close()

	return web.NewServer(cfg, sessions, logger).ListenAndServe(cfg.Web.Addr)
}

// runChat drives the terminal REPL against a single agent mode. History lives
// in process memory for the lifetime of the chat.
func runChat(ctx context.Context, cfg *config.Config, mode core.Mode) error {
	agent, err := agents.New(mode, cfg)
	if err != nil {
		return err
	}
	if err := agent.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize %s agent: %w", mode, err)
	}

	fmt.Println(bannerStyle.Render("Deep Research Assistant"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("mode: %s (%s)", mode, mode.Description())))
	fmt.Println(infoStyle.Render("type 'exit' or 'quit' to leave"))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	var history []core.Turn

	for {
		fmt.Print(userStyle.Render("you> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			return nil
		}

		reply, err := agent.ProcessMessage(ctx, input, history)
		if err != nil {
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}
		history = append(history,
			core.Turn{Role: core.RoleUser, Content: input},
			core.Turn{Role: core.RoleAssistant, Content: reply},
		)

		fmt.Println(assistantStyle.Render(reply))
		fmt.Println()
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
	os.Exit(1)
}
