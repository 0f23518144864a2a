package tcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/merkle-kv/merklekv/internal/storage"
	"github.com/merkle-kv/merklekv/internal/telemetry/logger"
	"github.com/merkle-kv/merklekv/internal/telemetry/metric"
)

// CommandHandler parses protocol lines and dispatches to the storage
// engine.
type CommandHandler struct {
	engine  storage.Engine
	metrics *metric.Registry
	limiter *ipRateLimiter
}

// NewCommandHandler creates a new CommandHandler. rateLimit <= 0
// disables rate limiting; metrics may be nil. Handlers log through the
// connection-scoped logger carried in the context.
func NewCommandHandler(engine storage.Engine, rateLimit int, metrics *metric.Registry) *CommandHandler {
	var rl *ipRateLimiter
	if rateLimit > 0 {
		rl = newIPRateLimiter(rateLimit)
	}

	return &CommandHandler{
		engine:  engine,
		metrics: metrics,
		limiter: rl,
	}
}

// Handle handles one protocol line and writes the response to the
// connection's buffered writer. It returns true when the connection
// should be closed after the response is flushed.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, line string) (closeConn bool) {
	if strings.TrimSpace(line) == "" {
		_ = writeLine(conn.bw, "ERROR empty command")
		return false
	}

	name, rest := splitCommand(line)

	// Connection-level commands bypass rate limiting.
	switch name {
	case "PING":
		_ = writeLine(conn.bw, "PONG")
		return false
	case "QUIT":
		_ = writeLine(conn.bw, "OK")
		return true
	}

	if h.limiter != nil && !h.limiter.allow(conn.RemoteAddr().String()) {
		_ = writeLine(conn.bw, "ERROR rate limit exceeded")
		return false
	}

	start := time.Now()
	status := h.dispatch(ctx, conn, name, rest)
	if h.metrics != nil {
		h.metrics.CommandsTotal.WithLabelValues(name, status).Inc()
		h.metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	return false
}

// dispatch runs a single storage command and returns "ok" or "error"
// for instrumentation.
func (h *CommandHandler) dispatch(ctx context.Context, conn *Conn, name, rest string) string {
	switch name {
	case "GET":
		return h.handleGet(conn, rest)
	case "SET":
		return h.handleSet(ctx, conn, rest)
	case "DEL", "DELETE":
		return h.handleDelete(conn, rest)
	case "KEYS":
		return h.handleKeys(conn)
	case "INCR":
		return h.handleStep(ctx, conn, rest, h.engine.Increment)
	case "DECR":
		return h.handleStep(ctx, conn, rest, h.engine.Decrement)
	case "APPEND":
		return h.handleEdit(ctx, conn, rest, h.engine.Append)
	case "PREPEND":
		return h.handleEdit(ctx, conn, rest, h.engine.Prepend)
	case "TRUNCATE":
		return h.handleTruncate(ctx, conn)
	case "COUNT":
		return h.handleCount(ctx, conn)
	case "SYNC":
		return h.handleSync(ctx, conn)
	case "STATS":
		return h.handleStats(conn)
	default:
		_ = writeLine(conn.bw, "ERROR unknown command '"+name+"'")
		return "error"
	}
}

func (h *CommandHandler) handleGet(conn *Conn, rest string) string {
	key, ok := singleArg(rest)
	if !ok {
		_ = writeLine(conn.bw, "ERROR usage: GET <key>")
		return "error"
	}
	value, found := h.engine.Get(key)
	if !found {
		_ = writeLine(conn.bw, "NOT_FOUND")
		return "ok"
	}
	_ = writeLine(conn.bw, "VALUE "+value)
	return "ok"
}

func (h *CommandHandler) handleSet(ctx context.Context, conn *Conn, rest string) string {
	// The value is everything after the key, spaces included.
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 || parts[0] == "" {
		_ = writeLine(conn.bw, "ERROR usage: SET <key> <value>")
		return "error"
	}
	if err := h.engine.Set(parts[0], parts[1]); err != nil {
		logger.L(ctx).Error("set failed", "key", parts[0], "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "OK")
	return "ok"
}

func (h *CommandHandler) handleDelete(conn *Conn, rest string) string {
	key, ok := singleArg(rest)
	if !ok {
		_ = writeLine(conn.bw, "ERROR usage: DEL <key>")
		return "error"
	}
	if h.engine.Delete(key) {
		_ = writeLine(conn.bw, "DELETED")
	} else {
		_ = writeLine(conn.bw, "NOT_FOUND")
	}
	return "ok"
}

func (h *CommandHandler) handleKeys(conn *Conn) string {
	keys := h.engine.Keys()
	_ = writeLine(conn.bw, "KEYS "+strconv.Itoa(len(keys)))
	for _, k := range keys {
		_ = writeLine(conn.bw, k)
	}
	return "ok"
}

// handleStep serves INCR and DECR: an optional integer amount defaults
// to one.
func (h *CommandHandler) handleStep(ctx context.Context, conn *Conn, rest string, op func(string, int64) (int64, error)) string {
	fields := strings.Fields(rest)
	if len(fields) < 1 || len(fields) > 2 {
		_ = writeLine(conn.bw, "ERROR usage: INCR|DECR <key> [amount]")
		return "error"
	}
	amount := storage.DefaultAmount
	if len(fields) == 2 {
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			_ = writeLine(conn.bw, "ERROR invalid amount '"+fields[1]+"'")
			return "error"
		}
		amount = n
	}
	result, err := op(fields[0], amount)
	if err != nil {
		logger.L(ctx).Error("numeric update failed", "key", fields[0], "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "VALUE "+strconv.FormatInt(result, 10))
	return "ok"
}

// handleEdit serves APPEND and PREPEND: the edit text is the rest of
// the line after the key.
func (h *CommandHandler) handleEdit(ctx context.Context, conn *Conn, rest string, op func(string, string) (string, error)) string {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 || parts[0] == "" {
		_ = writeLine(conn.bw, "ERROR usage: APPEND|PREPEND <key> <value>")
		return "error"
	}
	result, err := op(parts[0], parts[1])
	if err != nil {
		logger.L(ctx).Error("string update failed", "key", parts[0], "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "VALUE "+result)
	return "ok"
}

func (h *CommandHandler) handleTruncate(ctx context.Context, conn *Conn) string {
	if err := h.engine.Truncate(); err != nil {
		logger.L(ctx).Error("truncate failed", "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "OK")
	return "ok"
}

func (h *CommandHandler) handleCount(ctx context.Context, conn *Conn) string {
	n, err := h.engine.CountKeys()
	if err != nil {
		logger.L(ctx).Error("count failed", "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "VALUE "+strconv.FormatUint(n, 10))
	return "ok"
}

func (h *CommandHandler) handleSync(ctx context.Context, conn *Conn) string {
	if err := h.engine.Sync(); err != nil {
		logger.L(ctx).Error("sync failed", "error", err)
		_ = writeLine(conn.bw, "ERROR "+err.Error())
		return "error"
	}
	_ = writeLine(conn.bw, "OK")
	return "ok"
}

func (h *CommandHandler) handleStats(conn *Conn) string {
	st := h.engine.Stats()
	_ = writeLine(conn.bw, fmt.Sprintf("STATS disk_bytes=%d records=%d cache_entries=%d",
		st.DiskSizeBytes, st.RecordCount, st.CacheEntries))
	return "ok"
}

// splitCommand separates the uppercased command name from the rest of
// the line.
func splitCommand(line string) (name, rest string) {
	line = strings.TrimLeft(line, " ")
	if idx := strings.Index(line, " "); idx != -1 {
		return strings.ToUpper(line[:idx]), line[idx+1:]
	}
	return strings.ToUpper(line), ""
}

// singleArg extracts exactly one argument, rejecting extras.
func singleArg(rest string) (string, bool) {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return "", false
	}
	return fields[0], true
}
