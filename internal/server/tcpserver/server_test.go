package tcpserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/merkle-kv/merklekv/internal/storage"
)

func startTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Address = "127.0.0.1:0"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := storage.NewMemoryEngine("test")
	srv := New(cfg, engine, nil, logger)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return srv
}

type testClient struct {
	conn net.Conn
	br   *bufio.Reader
}

func dialTestServer(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", srv.Addr(), err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn, br: bufio.NewReader(conn)}
}

func (c *testClient) roundTrip(t *testing.T, cmd string) string {
	t.Helper()
	if _, err := c.conn.Write([]byte(cmd + "\r\n")); err != nil {
		t.Fatalf("write %q: %v", cmd, err)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.br.ReadString('\n')
	if err != nil {
		t.Fatalf("read response to %q: %v", cmd, err)
	}
	return strings.TrimRight(line, "\r\n")
}

func (c *testClient) readLine(t *testing.T) string {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.br.ReadString('\n')
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func TestServer_BasicCommands(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	tests := []struct {
		cmd  string
		want string
	}{
		{"PING", "PONG"},
		{"GET missing", "NOT_FOUND"},
		{"SET greeting hello", "OK"},
		{"GET greeting", "VALUE hello"},
		{"SET greeting hello world", "OK"},
		{"GET greeting", "VALUE hello world"},
		{"DEL greeting", "DELETED"},
		{"DEL greeting", "NOT_FOUND"},
		{"GET greeting", "NOT_FOUND"},
	}
	for _, tt := range tests {
		if got := c.roundTrip(t, tt.cmd); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestServer_NumericAndStringUpdates(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	tests := []struct {
		cmd  string
		want string
	}{
		{"INCR counter", "VALUE 1"},
		{"INCR counter 5", "VALUE 6"},
		{"DECR counter 2", "VALUE 4"},
		{"DECR counter", "VALUE 3"},
		{"SET text Hello", "OK"},
		{"APPEND text  World!", "VALUE Hello World!"},
		{"PREPEND text Say: ", "VALUE Say: Hello World!"},
		{"INCR counter abc", "ERROR invalid amount 'abc'"},
	}
	for _, tt := range tests {
		if got := c.roundTrip(t, tt.cmd); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestServer_KeysAndCount(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	c.roundTrip(t, "SET a 1")
	c.roundTrip(t, "SET b 2")
	c.roundTrip(t, "SET c 3")

	if got := c.roundTrip(t, "COUNT"); got != "VALUE 3" {
		t.Errorf("COUNT = %q, want %q", got, "VALUE 3")
	}

	header := c.roundTrip(t, "KEYS")
	if header != "KEYS 3" {
		t.Fatalf("KEYS header = %q, want %q", header, "KEYS 3")
	}
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[c.readLine(t)] = true
	}
	for _, k := range []string{"a", "b", "c"} {
		if !seen[k] {
			t.Errorf("KEYS output missing %q (got %v)", k, seen)
		}
	}

	if got := c.roundTrip(t, "TRUNCATE"); got != "OK" {
		t.Errorf("TRUNCATE = %q, want OK", got)
	}
	if got := c.roundTrip(t, "COUNT"); got != "VALUE 0" {
		t.Errorf("COUNT after TRUNCATE = %q, want %q", got, "VALUE 0")
	}
}

func TestServer_SyncAndStats(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	if got := c.roundTrip(t, "SYNC"); got != "OK" {
		t.Errorf("SYNC = %q, want OK", got)
	}

	c.roundTrip(t, "SET a 1")
	got := c.roundTrip(t, "STATS")
	if !strings.HasPrefix(got, "STATS ") {
		t.Fatalf("STATS = %q, want STATS prefix", got)
	}
	if !strings.Contains(got, "records=1") {
		t.Errorf("STATS = %q, want records=1", got)
	}
}

func TestServer_Errors(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	tests := []struct {
		cmd  string
		want string
	}{
		{"BOGUS x", "ERROR unknown command 'BOGUS'"},
		{"GET", "ERROR usage: GET <key>"},
		{"GET a b", "ERROR usage: GET <key>"},
		{"SET onlykey", "ERROR usage: SET <key> <value>"},
		{"  ", "ERROR empty command"},
	}
	for _, tt := range tests {
		if got := c.roundTrip(t, tt.cmd); got != tt.want {
			t.Errorf("%q = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestServer_Quit(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)

	if got := c.roundTrip(t, "QUIT"); got != "OK" {
		t.Fatalf("QUIT = %q, want OK", got)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.br.ReadString('\n'); err == nil {
		t.Error("connection should be closed after QUIT")
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 2
	srv := startTestServer(t, cfg)
	c := dialTestServer(t, srv)

	limited := false
	for i := 0; i < 5; i++ {
		if c.roundTrip(t, "GET k") == "ERROR rate limit exceeded" {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("rapid commands were never rate limited")
	}

	// PING bypasses the limiter.
	if got := c.roundTrip(t, "PING"); got != "PONG" {
		t.Errorf("PING during rate limiting = %q, want PONG", got)
	}
}

func TestServer_Shutdown(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dialTestServer(t, srv)
	c.roundTrip(t, "PING")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.conn.Close()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	if _, err := net.DialTimeout("tcp", srv.Addr(), 200*time.Millisecond); err == nil {
		t.Error("listener should be closed after Shutdown")
	}
}

// failingEngine makes Truncate fail so handler error logging can be
// observed.
type failingEngine struct {
	*storage.MemoryEngine
}

func (e *failingEngine) Truncate() error {
	return errors.New("backend unavailable")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_HandlerLogsCarryConnID(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	engine := &failingEngine{MemoryEngine: storage.NewMemoryEngine("test")}
	srv := New(cfg, engine, nil, logger)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	c := dialTestServer(t, srv)
	if got := c.roundTrip(t, "TRUNCATE"); !strings.HasPrefix(got, "ERROR") {
		t.Fatalf("TRUNCATE = %q, want ERROR response", got)
	}

	logged := out.String()
	if !strings.Contains(logged, "truncate failed") {
		t.Errorf("log output missing handler error, got %q", logged)
	}
	if !strings.Contains(logged, `"conn_id":"conn-`) {
		t.Errorf("log output missing conn_id attribute, got %q", logged)
	}
}
