package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})

	got := timeouts.Current()
	if got.Short != 7*time.Second {
		t.Errorf("expected Short=7s, got %v", got.Short)
	}
	if got.Medium != timeouts.DefaultMedium {
		t.Errorf("expected Medium unchanged, got %v", got.Medium)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: time.Minute, Long: time.Hour})
	timeouts.Reset()

	if timeouts.Ping() != timeouts.DefaultPing || timeouts.Long() != timeouts.DefaultLong {
		t.Errorf("expected defaults after Reset, got %+v", timeouts.Current())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", ctx.Err())
	}
}
