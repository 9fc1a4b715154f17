// cmd/dashboard/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"crediflow/internal/chat"
	"crediflow/internal/common/config"
	"crediflow/internal/common/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := chat.NewClientFromConfig(cfg.Chat, log)
	session := chat.NewSession(client)

	log.Info("Dashboard started", map[string]interface{}{
		"endpoint":  client.Endpoint(),
		"sessionId": session.ID(),
	})

	if err := loop(ctx, session, os.Stdin, os.Stdout); err != nil {
		log.Error("Dashboard stopped", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func loop(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "CrediFlow Agent Command Center")
	fmt.Fprintf(out, "session %s  (/trace shows the last agent trace, /quit exits)\n\n", session.ID())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/trace":
			if err := session.RenderTrace(out); err != nil {
				return err
			}
			continue
		}

		fmt.Fprintln(out, chat.ThinkingIndicator)
		turn := session.Submit(ctx, text)
		if turn.Failed() {
			fmt.Fprintf(out, "error: %s\n\n", turn.ErrorText)
		} else {
			fmt.Fprintf(out, "[%s] %s\n\n", chat.RoleAssistant, turn.Reply)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
