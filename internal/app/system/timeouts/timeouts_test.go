package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigureKeepsZeroTiers(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: time.Second})
	if Short() != time.Second {
		t.Errorf("Short = %v, want 1s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium = %v, want default", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("TIMEOUT_BATCH", "5m")
	t.Setenv("TIMEOUT_LONG", "bogus")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv = %d, want 1", n)
	}
	if Batch() != 5*time.Minute {
		t.Errorf("Batch = %v, want 5m", Batch())
	}
	if Long() != DefaultLong {
		t.Errorf("Long = %v, want default", Long())
	}
}

func TestWithTimeoutLogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "slow op")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "slow op" {
		t.Errorf("operation = %v", got)
	}
}

func TestWithTimeoutQuietOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "fast op")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want 0", logs.Len())
	}
}
