package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
)

func TestServerStartAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.APIPort = "0"
	srv := New(cfg, nil, newTestRouter(t))
	assert.Empty(t, srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}

func TestServerStartPortInUse(t *testing.T) {
	cfg := config.Default()
	cfg.APIPort = "0"
	first := New(cfg, nil, http.NotFoundHandler())
	go func() { _ = first.Start() }()
	require.Eventually(t, func() bool { return first.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	defer first.Shutdown(context.Background())

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg.APIPort = port
	err = New(cfg, nil, http.NotFoundHandler()).Start()
	assert.ErrorContains(t, err, "listen")
}
