package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"smartbiz.ai/advisor/internal/auth"
	"smartbiz.ai/advisor/internal/core"
	"smartbiz.ai/advisor/internal/render"
	"smartbiz.ai/advisor/internal/store"
)

var (
	chatEmail    string
	chatPassword string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive advisor session",
	Long: `Starts an interactive session. Sign in with --email and --password to
continue your saved conversation; every exchange is then stored.

Commands:
  /questions  list suggested questions
  /history    reprint the conversation
  /speak      print the last answer without markdown markers
  /quit       leave the session`,
	RunE: runChatCommand,
}

func init() {
	chatCmd.Flags().StringVar(&chatEmail, "email", "", "account email")
	chatCmd.Flags().StringVar(&chatPassword, "password", "", "account password")
}

func runChatCommand(cmd *cobra.Command, _ []string) error {
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

	out := cmd.OutOrStdout()
	sessionID := uuid.NewString()

	if chatEmail == "" && chatPassword == "" {
		sess := core.NewChatService(completion, nil, log).StartSession(sessionID, nil, time.Time{})
		return runChat(ctx, cmd.InOrStdin(), out, sess, render.NewRenderer(plainText))
	}

	dbStore, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer dbStore.Close()

	// Tokens never leave this process, so an unset secret gets a throwaway one.
	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	provider := auth.NewLocalProvider(dbStore, auth.NewTokenIssuer(secret, cfg.SessionTTL), log)
	id, err := provider.SignIn(ctx, chatEmail, chatPassword)
	if err != nil {
		return errors.New(auth.FriendlyMessage(err))
	}

	chatService := core.NewChatService(completion, dbStore, log)
	sess := chatService.StartSession(id.Claims.SessionID, id.User, id.Claims.Expiry())
	defer func() {
		_ = provider.SignOut(ctx, id.Token)
		chatService.EndSession(id.Claims.SessionID)
	}()
	return runChat(ctx, cmd.InOrStdin(), out, sess, render.NewRenderer(plainText))
}

// runChat reads prompts line by line until /quit or end of input.
func runChat(ctx context.Context, in io.Reader, out io.Writer, sess *core.Session, r *render.Renderer) error {
	fmt.Fprint(out, r.Turns(sess.Turns()))
	printQuickQuestions(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/questions":
			printQuickQuestions(out)
			continue
		case "/history":
			fmt.Fprint(out, r.Turns(sess.Turns()))
			continue
		case "/speak":
			fmt.Fprintln(out, render.SpeechText(sess.LatestAssistantText()))
			continue
		}

		exchange, err := sess.Submit(ctx, line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		fmt.Fprint(out, r.Turn(exchange.AssistantTurn))
	}
}

func printQuickQuestions(out io.Writer) {
	fmt.Fprintln(out, "\nTry asking:")
	for _, q := range render.QuickQuestions {
		fmt.Fprintf(out, "  - %s\n", q)
	}
}
