package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestOpenRedis_SelectsDBAndLogs(t *testing.T) {
	s := miniredis.RunT(t)
	logger, hook := test.NewNullLogger()

	c, err := OpenRedis(s.Addr(), 2, logger)
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Set(ctx, "lock:loan:abc", "owner", time.Minute).Err(); err != nil {
		t.Fatalf("SET err: %v", err)
	}
	s.Select(2)
	if !s.Exists("lock:loan:abc") {
		t.Fatal("key not written to db 2")
	}

	e := hook.LastEntry()
	if e == nil || e.Data["addr"] != s.Addr() {
		t.Fatalf("connect log entry = %+v", e)
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, err := OpenRedis("not-a-real-host:6379", 0, logger)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "not-a-real-host:6379") {
		t.Fatalf("error %q does not name the address", err)
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatal("failure must not log a connect entry")
	}
}
