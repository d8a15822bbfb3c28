package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smartbiz.ai/advisor/internal/config"
	"smartbiz.ai/advisor/internal/core"
	"smartbiz.ai/advisor/internal/logger"
	"smartbiz.ai/advisor/internal/render"
)

var (
	verbose   bool
	plainText bool
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "SmartBiz AI business-idea advisor",
	Long: `advisor analyses business ideas: market potential, investment,
break-even and risks. When no completion credentials are configured every
answer comes from the built-in analyses.`,
	SilenceUsage: true,
}

var askCmd = &cobra.Command{
	Use:   "ask [business idea]",
	Short: "Analyse a single business idea",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warnings only")
	rootCmd.PersistentFlags().BoolVar(&plainText, "plain", false, "print replies without markdown styling")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the CLI logger, which writes
// to stderr.
func loadRuntime() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	return cfg, logger.NewWithOutput(cfg, os.Stderr), nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	completion, closeCompletion, err := core.NewCompletionClient(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize completion client: %w", err)
	}
	defer closeCompletion()

	chatService := core.NewChatService(completion, nil, log)
	text, _, err := chatService.Analyze(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), render.NewRenderer(plainText).Markdown(text))
	return nil
}
