package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/relay"
	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

// relaycheck checks the relay endpoints configured for the overlay and prints
// frames seen on the websocket for a short window.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if !cfg.RelayEnabled() {
		log.Fatal("RELAY_HTTP_URL or RELAY_WS_URL is required")
	}

	if cfg.RelayHTTPURL != "" {
		client := relay.NewClient(cfg.RelayHTTPURL,
			relay.WithHeaderProvider(cfg.RelayHeaders),
			relay.WithTimeout(8*time.Second),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h, err := client.Health(ctx)
		cancel()
		if err != nil {
			log.Printf("/health error: %v", err)
		} else {
			log.Printf("/health ok: status=%s rooms=%d", h.Status, h.Rooms)
		}
	}

	if cfg.RelayWSURL == "" {
		log.Println("RELAY_WS_URL not set; skipping WS check")
		return
	}

	ws := relay.NewWebSocket(cfg.RelayWSURL, 5, time.Second)
	ws.SetHeaderProvider(cfg.RelayHeaders)
	ws.OnStateChange(func(state relay.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnFrame(func(f *overlaydto.Frame) {
		label := "-"
		if f.Update != nil {
			label = f.Update.Label
		}
		fmt.Printf("WS frame room=%s type=%s seq=%d label=%s\n", f.Room, f.Type, f.Seq, label)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
