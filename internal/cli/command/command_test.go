package command

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"
)

// fakeServer answers every protocol line with scripted responses.
func fakeServer(t *testing.T, respond func(line string) []string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					line, err := br.ReadString('\n')
					if err != nil {
						return
					}
					for _, resp := range respond(strings.TrimRight(line, "\r\n")) {
						if _, err := conn.Write([]byte(resp + "\r\n")); err != nil {
							return
						}
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func runApp(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	app := App()
	out := &bytes.Buffer{}
	app.Writer = out

	argv := append([]string{"merklekv-cli", "--server", addr}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestApp_CommandsRegistered(t *testing.T) {
	app := App()
	for _, name := range []string{
		"get", "set", "del", "keys", "count",
		"incr", "decr", "append", "prepend",
		"truncate", "sync", "stats", "ping", "repl",
	} {
		if app.Command(name) == nil {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestApp_GetSet(t *testing.T) {
	addr := fakeServer(t, func(line string) []string {
		switch line {
		case "SET greeting hello world":
			return []string{"OK"}
		case "GET greeting":
			return []string{"VALUE hello world"}
		default:
			return []string{"ERROR unexpected command '" + line + "'"}
		}
	})

	out, err := runApp(t, addr, "set", "greeting", "hello", "world")
	if err != nil {
		t.Fatalf("set error = %v", err)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("set output = %q, want OK", out)
	}

	out, err = runApp(t, addr, "get", "greeting")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if strings.TrimSpace(out) != "hello world" {
		t.Errorf("get output = %q, want %q", out, "hello world")
	}
}

func TestApp_Keys(t *testing.T) {
	addr := fakeServer(t, func(line string) []string {
		if line == "KEYS" {
			return []string{"KEYS 2", "a", "b"}
		}
		return []string{"ERROR unexpected"}
	})

	out, err := runApp(t, addr, "keys")
	if err != nil {
		t.Fatalf("keys error = %v", err)
	}
	if !strings.Contains(out, "a\n") || !strings.Contains(out, "b\n") {
		t.Errorf("keys output = %q, want a and b lines", out)
	}
}

func TestApp_Ping(t *testing.T) {
	addr := fakeServer(t, func(line string) []string {
		if line == "PING" {
			return []string{"PONG"}
		}
		return []string{"ERROR unexpected"}
	})

	out, err := runApp(t, addr, "ping")
	if err != nil {
		t.Fatalf("ping error = %v", err)
	}
	if strings.TrimSpace(out) != "PONG" {
		t.Errorf("ping output = %q, want PONG", out)
	}
}

func TestApp_ServerError(t *testing.T) {
	addr := fakeServer(t, func(line string) []string {
		return []string{"ERROR boom"}
	})

	if _, err := runApp(t, addr, "truncate"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("truncate error = %v, want boom", err)
	}
}

func TestApp_UsageErrors(t *testing.T) {
	addr := fakeServer(t, func(line string) []string { return []string{"OK"} })

	if _, err := runApp(t, addr, "get"); err == nil {
		t.Error("get without args should fail")
	}
	if _, err := runApp(t, addr, "set", "onlykey"); err == nil {
		t.Error("set without value should fail")
	}
	if _, err := runApp(t, addr, "incr", "k", "1", "extra"); err == nil {
		t.Error("incr with extra args should fail")
	}
}
