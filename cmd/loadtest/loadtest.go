// Package main drives a running chat server with concurrent websocket
// clients and reports delivery counts and latency.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

type options struct {
	baseURL  string
	username string
	password string
	room     string
	clients  int
	messages int
	interval time.Duration
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type stats struct {
	mu        sync.Mutex
	sent      int
	received  int
	latencies []time.Duration
}

func (s *stats) observe(d time.Duration) {
	s.mu.Lock()
	s.received++
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&opts.username, "username", "", "account used by every client; a superuser avoids the per-author cooldown")
	flag.StringVar(&opts.password, "password", "", "account password")
	flag.StringVar(&opts.room, "room", "loadtest", "room code to join")
	flag.IntVar(&opts.clients, "clients", 10, "concurrent websocket clients")
	flag.IntVar(&opts.messages, "messages", 20, "messages sent by each client")
	flag.DurationVar(&opts.interval, "interval", 300*time.Millisecond, "delay between sends of one client")
	flag.Parse()

	if opts.username == "" || opts.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -username and -password are required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := run(ctx, opts)
	if err != nil {
		log.Fatalf("load test failed: %v", err)
	}
	report(st, opts)
}

func login(ctx context.Context, opts options) (*http.Cookie, error) {
	form := url.Values{
		"username":  {opts.username},
		"password":  {opts.password},
		"room_code": {opts.room},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.baseURL+"/account/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send POST request to [%s]: %w", req.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned %s", res.Status)
	}
	for _, c := range res.Cookies() {
		if c.Name == "jwt" {
			return &http.Cookie{Name: c.Name, Value: c.Value}, nil
		}
	}
	return nil, errors.New("login response carried no session cookie")
}

func run(ctx context.Context, opts options) (*stats, error) {
	cookie, err := login(ctx, opts)
	if err != nil {
		return nil, err
	}

	wsURL := "ws" + strings.TrimPrefix(opts.baseURL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", cookie.String())

	st := &stats{}
	g, ctx := errgroup.WithContext(ctx)
	for i := range opts.clients {
		g.Go(func() error {
			return runClient(ctx, i, wsURL, header, opts, st)
		})
	}
	return st, g.Wait()
}

func runClient(ctx context.Context, id int, wsURL string, header http.Header, opts options, st *stats) error {
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("client %d: dial: %w", id, err)
	}
	defer conn.CloseNow()

	if err := send(ctx, conn, "client-connected", struct{}{}); err != nil {
		return err
	}

	expected := opts.clients * opts.messages
	readErr := make(chan error, 1)
	go func() {
		readErr <- readLoop(ctx, conn, expected, st)
	}()

	// Each client tags its content so receivers can compute latency.
	for n := range opts.messages {
		content := fmt.Sprintf("lt %d %d %d", id, n, time.Now().UnixNano())
		if err := send(ctx, conn, "send-message", map[string]any{"content": content}); err != nil {
			return fmt.Errorf("client %d: send: %w", id, err)
		}
		st.mu.Lock()
		st.sent++
		st.mu.Unlock()

		select {
		case <-time.After(opts.interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Give stragglers a moment, then stop reading.
	select {
	case err := <-readErr:
		return err
	case <-time.After(5 * time.Second):
		conn.Close(websocket.StatusNormalClosure, "done")
		return nil
	}
}

func send(ctx context.Context, conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, raw)
}

func readLoop(ctx context.Context, conn *websocket.Conn, expected int, st *stats) error {
	seen := 0
	for seen < expected {
		_, p, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}

		var f frame
		if err := json.Unmarshal(p, &f); err != nil || f.Event != "new-message" {
			continue
		}
		var msg struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			continue
		}

		// Superuser content arrives wrapped in markup.
		i := strings.Index(msg.Content, "lt ")
		if i < 0 {
			continue
		}
		var client, n int
		var sentAt int64
		if _, err := fmt.Sscanf(msg.Content[i:], "lt %d %d %d", &client, &n, &sentAt); err != nil {
			continue
		}
		st.observe(time.Since(time.Unix(0, sentAt)))
		seen++
	}
	return nil
}

func report(st *stats, opts options) {
	st.mu.Lock()
	defer st.mu.Unlock()

	want := st.sent * opts.clients
	log.Printf("clients=%d sent=%d received=%d expected=%d", opts.clients, st.sent, st.received, want)
	if len(st.latencies) == 0 {
		return
	}

	slices.Sort(st.latencies)
	pct := func(p float64) time.Duration {
		return st.latencies[int(float64(len(st.latencies)-1)*p)]
	}
	log.Printf("latency p50=%v p95=%v p99=%v max=%v", pct(0.50), pct(0.95), pct(0.99), st.latencies[len(st.latencies)-1])
}
