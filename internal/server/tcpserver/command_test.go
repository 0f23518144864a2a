package tcpserver

import (
	"fmt"
	"testing"
	"time"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantRest string
	}{
		{"GET key1", "GET", "key1"},
		{"get key1", "GET", "key1"},
		{"SET key1 hello world", "SET", "key1 hello world"},
		{"PING", "PING", ""},
		{"  TRUNCATE", "TRUNCATE", ""},
	}
	for _, tt := range tests {
		name, rest := splitCommand(tt.line)
		if name != tt.wantName || rest != tt.wantRest {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)",
				tt.line, name, rest, tt.wantName, tt.wantRest)
		}
	}
}

func TestSingleArg(t *testing.T) {
	tests := []struct {
		rest   string
		want   string
		wantOK bool
	}{
		{"key1", "key1", true},
		{"  key1  ", "key1", true},
		{"", "", false},
		{"a b", "", false},
	}
	for _, tt := range tests {
		got, ok := singleArg(tt.rest)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("singleArg(%q) = (%q, %v), want (%q, %v)",
				tt.rest, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIPRateLimiter(t *testing.T) {
	rl := newIPRateLimiter(2)

	if !rl.allow("10.0.0.1:1234") {
		t.Error("first command should be allowed")
	}
	if !rl.allow("10.0.0.1:5678") {
		t.Error("second command within burst should be allowed")
	}
	if rl.allow("10.0.0.1:1234") {
		t.Error("third rapid command should be denied")
	}

	// A different host gets its own bucket.
	if !rl.allow("10.0.0.2:1234") {
		t.Error("different host should not share the bucket")
	}
}

func TestIPRateLimiter_Refills(t *testing.T) {
	rl := newIPRateLimiter(100)

	for i := 0; i < 100; i++ {
		rl.allow("10.0.0.1:1")
	}
	if rl.allow("10.0.0.1:1") {
		t.Fatal("bucket should be drained")
	}

	time.Sleep(50 * time.Millisecond)
	if !rl.allow("10.0.0.1:1") {
		t.Error("bucket should refill over time")
	}
}

func TestIPRateLimiter_BoundedTracking(t *testing.T) {
	rl := newIPRateLimiter(10)

	for i := 0; i < maxTrackedIPs+500; i++ {
		rl.allow(fmt.Sprintf("10.%d.%d.%d:1234", i>>16&0xff, i>>8&0xff, i&0xff))
	}

	if got := rl.tracked(); got > maxTrackedIPs {
		t.Errorf("tracked hosts = %d, want at most %d", got, maxTrackedIPs)
	}
}
