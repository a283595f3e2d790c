// Package cli implements cora's command line interface: an interactive
// session by default, plus one-shot and inspection subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"cora/agent"
	"cora/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootFlags struct {
	configFile  string
	provider    string
	model       string
	autoApprove bool
}

// NewRootCommand builds the cora command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "cora",
		Short: "An interactive coding assistant for your terminal",
		Long: "cora is a coding assistant that reads, edits, and searches your code,\n" +
			"runs commands with your approval, and delegates research and writing\n" +
			"subtasks to specialized sub-agents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return newREPL(app).run(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default .cora.yaml)")
	root.PersistentFlags().StringVar(&flags.provider, "provider", "", "model provider: anthropic or openai")
	root.PersistentFlags().StringVar(&flags.model, "model", "", "model name override")
	root.PersistentFlags().BoolVar(&flags.autoApprove, "auto-approve", false, "run mutating tools without prompting")

	root.AddCommand(newChatCommand(flags))
	root.AddCommand(newConfigCommand(flags))
	root.AddCommand(newVersionCommand())
	return root
}

func buildApp(flags *rootFlags) (*App, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.autoApprove {
		cfg.AutoApprove = true
	}
	return newApp(cfg)
}

// newChatCommand runs a single prompt to completion and exits.
func newChatCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Run one prompt non-interactively and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := newRenderer(os.Stdout)
			out.watch(app.emitter.Events())
			defer func() {
				app.emitter.Close()
				out.wait()
			}()

			app.conv.Append(agent.NewUserMessage(strings.Join(args, " ")))
			result, err := app.loop.Run(ctx, app.conv)
			if err != nil {
				var recErr *agent.RecursionExceededError
				if errors.As(err, &recErr) {
					return fmt.Errorf("stopped after %d iterations without finishing", recErr.Limit)
				}
				return err
			}
			out.printAnswer(result.FinalText)
			return nil
		},
	}
}

// newConfigCommand prints the effective configuration.
func newConfigCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "provider: %s\n", cfg.Provider)
			fmt.Fprintf(w, "model: %s\n", displayOrDefault(cfg.Model))
			fmt.Fprintf(w, "api_key: %s\n", maskKey(cfg.APIKey))
			fmt.Fprintf(w, "temperature: %v\n", cfg.Temperature)
			fmt.Fprintf(w, "max_tokens: %d\n", cfg.MaxTokens)
			fmt.Fprintf(w, "max_iterations: %d\n", cfg.MaxIterations)
			fmt.Fprintf(w, "subagent_max_iterations: %d\n", cfg.SubagentMaxIterations)
			fmt.Fprintf(w, "auto_approve: %v\n", cfg.AutoApprove)
			fmt.Fprintf(w, "search_api_key: %s\n", maskKey(cfg.SearchAPIKey))
			fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cora version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cora %s\n", Version)
		},
	}
}

func displayOrDefault(s string) string {
	if s == "" {
		return "(provider default)"
	}
	return s
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Execute runs the command tree.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
