package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/nlamprou/marvin/internal/config"
	"github.com/nlamprou/marvin/internal/orchestrator"
	"github.com/nlamprou/marvin/internal/taskspec"
)

// runChat is a terminal loop against an in-memory assistant. No store, no
// bus, no web server, just the orchestration core.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := taskspec.Defaults()
	executors := buildExecutors(registry, cfg, nil)
	orch := orchestrator.New(cfg.Assistant, registry, executors, nil, nil)

	sessionID := uuid.NewString()
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("marvin is listening. Say \"stop\" to cancel a turn, ctrl-d to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		out, err := orch.HandleInput(ctx, sessionID, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		switch {
		case out.Clarification != "":
			fmt.Println(out.Clarification)
		case out.Final != nil:
			fmt.Println(out.Final.Message)
		case out.Aborted:
			fmt.Printf("(turn aborted: %s)\n", out.Reason)
		}

		// A finished or aborted turn starts the next one fresh.
		if out.Clarification == "" {
			sessionID = uuid.NewString()
		}
	}
}
