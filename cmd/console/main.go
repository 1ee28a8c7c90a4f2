// Command console runs the receptionist against the configured completion provider
// from the terminal. Sessions and leads stay in memory; notifications are not sent.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/wolfman30/selaro-receptionist/internal/app/bootstrap"
	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New("warn")

	if err := run(context.Background(), cfg, logger, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, in io.Reader, out io.Writer) error {
	llm, settings, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	knowledge := clinic.NewMemoryKnowledgeStore()
	if _, err := clinic.SeedKnowledge(ctx, knowledge, cfg.KnowledgeFile); err != nil {
		logger.Warn("failed to seed clinic knowledge", "error", err)
	}
	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		loc = time.UTC
	}

	repo := leads.NewInMemoryRepository()
	controller := conversation.NewController(llm, leads.NewCommitter(repo, logger), logger,
		conversation.WithKnowledge(knowledge),
		conversation.WithOfficeHours(cfg.OfficeHours),
		conversation.WithClinicName(cfg.ClinicName),
		conversation.WithLocation(loc),
		conversation.WithLLMSettings(settings),
	)

	session := "console:" + uuid.NewString()
	fmt.Fprintf(out, "Selaro console (%s %s). Leere Zeile oder Ctrl-D beendet.\n", settings.Provider, settings.Model)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		res, err := controller.HandleTurn(ctx, conversation.TurnRequest{
			SessionKey: session,
			Channel:    conversation.ChannelWeb,
			Utterance:  line,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Lina: %s\n", res.Reply)
		if res.JustCommitted {
			fmt.Fprintf(out, "[lead %s gespeichert: %v]\n", res.LeadID, res.Fields)
		}
	}
	return scanner.Err()
}
