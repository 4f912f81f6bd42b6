package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/features/failure"
	"esgrag/features/stats"
	"esgrag/internal/app"
	"esgrag/internal/testutils"
)

func TestSmoke_Startup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := suite.GetAppConfig()
	cfg.ServerPort = 18081
	logger := suite.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Bootstrap(ctx, cfg)
	require.NoError(t, err)
	defer deps.Close()

	// no model keys in CI: wire the store and the ledger only
	svcs := &app.Services{
		Store:    deps.Store,
		Failures: failure.NewService(failure.NewPostgresRepo(deps.DB), nil, logger),
	}
	a, err := app.New(cfg, svcs, logger)
	require.NoError(t, err)

	go func() {
		if err := a.Run(ctx); err != nil {
			t.Logf("app run exited: %v", err)
		}
	}()

	base := fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 500*time.Millisecond)

	t.Run("stats on empty collection", func(t *testing.T) {
		resp, err := http.Get(base + "/stats")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data stats.StatsResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, stats.StatsResponse{Collection: cfg.WeaviateCollection}, body.Data)
	})

	t.Run("empty ledger", func(t *testing.T) {
		resp, err := http.Get(base + "/failures")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []failure.Failure `json:"data"`
			Meta struct {
				Count int `json:"count"`
			} `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body.Data)
		assert.Zero(t, body.Meta.Count)
	})
}
