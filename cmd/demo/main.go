// Command demo exercises the chatwire client end to end against an
// OpenAI-compatible backend: a buffered completion, a streamed completion,
// and conversation history replay. Point it at the mock backend for a
// self-contained run:
//
//	MOCK_PORT=9090 go run ./cmd/mock-backend &
//	CHATWIRE_BASE_URL=http://localhost:9090 CHATWIRE_MODEL=mock-model go run ./cmd/demo
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chatwire-dev/chatwire/pkg/chat"
	"github.com/chatwire-dev/chatwire/pkg/client"
	"github.com/chatwire-dev/chatwire/pkg/config"
	"github.com/chatwire-dev/chatwire/pkg/history/memory"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	c, err := client.New(cfg.Client.BaseURL, cfg.Client.APIKey, client.Config{
		Timeout: cfg.Client.Timeout,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	model := cfg.Client.Model
	if model == "" {
		model = "mock-model"
	}

	ctx := context.Background()
	store := memory.New(cfg.History.MaxSize)
	const conversationID = "demo"

	fmt.Println("=== chatwire demo ===")

	// 1. Buffered completion.
	question := chat.User("What is the capital of France?")
	store.Append(ctx, conversationID, chat.System("You are a concise assistant."), question)

	req, err := chat.NewRequest(model, replay(ctx, store, conversationID),
		chat.WithTemperature(0.2),
		chat.WithMaxTokens(256),
	)
	if err != nil {
		return err
	}

	resp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	answer := resp.Choices[0].Message.Content
	fmt.Printf("\n[1] Buffered completion (%s):\n    %s\n", resp.Model, answer)
	if resp.Usage != nil {
		fmt.Printf("    tokens: %d in / %d out / %d total\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
	store.Append(ctx, conversationID, chat.Assistant(answer))

	// 2. Streamed completion continuing the same conversation.
	store.Append(ctx, conversationID, chat.User("Now count from 1 to 5."))
	streamReq, err := chat.NewRequest(model, replay(ctx, store, conversationID))
	if err != nil {
		return err
	}

	fmt.Print("\n[2] Streamed completion:\n    ")
	var streamed strings.Builder
	for chunk := range c.Stream(ctx, streamReq) {
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != nil {
				fmt.Print(*choice.Delta.Content)
				streamed.WriteString(*choice.Delta.Content)
			}
		}
	}
	fmt.Println()
	store.Append(ctx, conversationID, chat.Assistant(streamed.String()))

	// 3. Show the accumulated history.
	records, err := store.Messages(ctx, conversationID)
	if err != nil {
		return err
	}
	fmt.Printf("\n[3] Conversation history (%d turns):\n", len(records))
	for i, rec := range records {
		fmt.Printf("    %d. %-9s %s\n", i+1, rec.Role, rec.Payload)
	}

	return nil
}

// replay converts the stored conversation into a request message list.
func replay(ctx context.Context, store *memory.Store, conversationID string) []chat.Message {
	records, err := store.Messages(ctx, conversationID)
	if err != nil {
		return nil
	}
	msgs := make([]chat.Message, len(records))
	for i, rec := range records {
		msgs[i] = rec
	}
	return msgs
}
