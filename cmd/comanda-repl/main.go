// Command comanda-repl drives a single ordering conversation from the
// terminal, without the WebSocket layer. Useful for poking the full pipeline
// against the real model.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/quixote-kitchen/comanda/chat"
	"github.com/quixote-kitchen/comanda/config"
	"github.com/quixote-kitchen/comanda/session"
	"github.com/quixote-kitchen/comanda/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	completer, err := chat.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.ModelTimeout)
	if err != nil {
		logrus.Fatalf("Failed to create model client: %v", err)
	}

	orderStore, err := store.NewStore(cfg.InvoiceDir)
	if err != nil {
		logrus.Fatalf("Failed to open order store: %v", err)
	}

	conv := session.NewConversation(completer, orderStore, session.DefaultSystemPrompt)

	fmt.Println("🛡️⚔️ RESTAURANTE DON QUIJOTE ⚔️🛡️")
	fmt.Println("Haz tu pedido o consulta aquí (Ctrl-D para salir):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result, err := conv.Submit(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Println("\n🤖 Don Quijote:", result.Reply)

		switch result.Status {
		case session.StatusOrderPlaced:
			fmt.Println("\n" + result.Receipt.Text)
			if result.SavedAs != "" {
				fmt.Printf("Guardado como %s\n", result.SavedAs)
			}
			for _, warning := range result.Warnings {
				fmt.Printf("⚠️ %s\n", warning)
			}
		case session.StatusOrderInvalid:
			fmt.Printf("⚠️ Pedido no válido: %v\n", result.Reason)
		}
		fmt.Println()
	}
}
