// streamtest connects to a running tickerd stream and prints every state
// update to the console. It reconnects with backoff when the stream drops.
//
// Usage: go run ./cmd/streamtest --url ws://localhost:8080/api/ticker/stream [--refresh]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/ticker-feed/internal/server"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

func main() {
	url := flag.String("url", "ws://localhost:8080/api/ticker/stream", "tickerd stream URL")
	refresh := flag.Bool("refresh", false, "request a manual refresh after connecting")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	delay := reconnectBaseDelay
	for ctx.Err() == nil {
		connected, err := stream(ctx, *url, *refresh, *verbose, logger)
		if ctx.Err() != nil {
			break
		}
		if connected {
			delay = reconnectBaseDelay
		}
		logger.Warn("stream ended, reconnecting", "error", err, "delay", delay)

		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
		delay = min(delay*2, reconnectMaxDelay)
	}

	logger.Info("shutdown complete")
}

// stream reads updates until the connection fails or ctx ends.
func stream(ctx context.Context, url string, refresh, verbose bool, logger *slog.Logger) (connected bool, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	logger.Info("connected", "url", url)

	// Unblock ReadJSON on shutdown
	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	if refresh {
		if err := requestRefresh(ctx, url); err != nil {
			logger.Warn("refresh request failed", "error", err)
		}
	}

	for {
		var st server.StateResponse
		if err := conn.ReadJSON(&st); err != nil {
			return true, err
		}
		printState(st, verbose)
	}
}

// requestRefresh posts to the refresh endpoint next to the stream URL.
func requestRefresh(ctx context.Context, streamURL string) error {
	u := strings.Replace(streamURL, "ws", "http", 1)
	u = strings.TrimSuffix(u, "/stream") + "/refresh"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("refresh returned %s", resp.Status)
	}
	return nil
}

func printState(st server.StateResponse, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(st, "", "  ")
		fmt.Printf("[STATE] %s\n", data)
		return
	}

	updated := "never"
	if st.LastUpdated != nil {
		updated = st.LastUpdated.Local().Format(time.TimeOnly)
	}
	errMsg := "-"
	if st.Error != nil {
		errMsg = *st.Error
	}
	fmt.Printf("[STATE] status=%s loading=%v items=%d updated=%s error=%s\n",
		st.Status, st.IsLoading, len(st.Items), updated, errMsg)

	for _, it := range st.Items {
		fmt.Printf("  %-10s %12.2f %+10.2f (%+.2f%%)\n", it.Symbol, it.Price, it.Change, it.PercentChange)
	}
}
