package mtconnect

import (
	"context"
	"testing"
	"time"

	"github.com/mtconnect-go/client/config"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default() // BaseURL left empty
	if _, err := New(cfg); err == nil {
		t.Fatal("expected validation error for missing base_url")
	}
}

func TestNewWiresUpASubscribableClient(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = "http://agent.example.com"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	started := make(chan struct{})
	c.OnStarted(func() { close(started) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Started event")
	}
	c.Stop()
}
