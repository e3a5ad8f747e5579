package server

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

func TestRun_StopsOnContextAndRunsHooks(t *testing.T) {
	log := logger.NewWithWriter(new(bytes.Buffer), "test", "critical")
	srv := NewServer(DefaultServerConfig("0"), http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	hookRan := make(chan struct{})
	hooks := []ShutdownHook{func(context.Context) error {
		close(hookRan)
		return nil
	}}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, log, "test", hooks) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	select {
	case <-hookRan:
	default:
		t.Error("shutdown hook did not run")
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig("8081")
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Positive(t, cfg.ReadHeaderTimeout)
}
