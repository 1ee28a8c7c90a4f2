package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

func TestConsoleWithoutProviderStillPrompts(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: "none", ClinicTimezone: "Europe/Berlin"}
	in := strings.NewReader("Ich möchte einen Termin\n\n")
	var out bytes.Buffer

	if err := run(context.Background(), cfg, logging.New("error"), in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Lina: ") {
		t.Fatalf("expected a reply line, got %q", text)
	}
}
