package main

import (
	"fmt"
	"log"
	"os"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/store"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Dumps the persisted session blob so stored conversations can be inspected
// without starting the server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	path := os.Getenv("STORE_PATH")
	if path == "" {
		path = "data/chat-sessions.json"
	}
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	blob := store.NewFileBlob(path)
	raw, ok, err := blob.Load()
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if !ok {
		color.Yellow("No store found at %s", path)
		return
	}

	sessions, err := store.DecodeSessions(raw)
	if err != nil {
		color.Red("Store is corrupt: %v", err)
		os.Exit(1)
	}

	color.Cyan("🔍 Inspecting %s (%d bytes, %d sessions)\n", path, len(raw), len(sessions))

	for _, s := range sessions {
		color.Yellow("\n[%s] %s", s.Id, s.Title)
		fmt.Printf("  created=%s updated=%s messages=%d\n",
			s.CreatedAt.Format("2006-01-02 15:04:05"), s.UpdatedAt.Format("2006-01-02 15:04:05"), len(s.Messages))
		for _, m := range s.Messages {
			line := fmt.Sprintf("  %-9s %s", m.Role, truncate(m.Content, 80))
			switch {
			case m.Status == entity.StatusError:
				color.Red(line)
			case m.Role == entity.RoleAssistant:
				color.Green(line)
			default:
				fmt.Println(line)
			}
			for _, a := range m.Attachments {
				fmt.Printf("            📎 %s (%s)\n", a.Name, a.Type)
			}
		}
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
