package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 7 * time.Second})

	if Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium = %v, want default", Medium())
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Second, Long: time.Minute})
	Reset()

	if Current() != defaults() {
		t.Errorf("Current = %+v, want defaults", Current())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Err = %v, want DeadlineExceeded", ctx.Err())
	}
}
