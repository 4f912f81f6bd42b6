package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/app"
	"esgrag/internal/config"
)

func TestEnsureSchemaWithRetry(t *testing.T) {
	schemaErr := errors.New("schema error")

	tests := []struct {
		name      string
		failFirst int
		attempts  int
		delay     time.Duration
		canceled  bool
		wantErr   error
		wantCalls int
	}{
		{name: "first try", attempts: 1, wantCalls: 1},
		{name: "recovers after two failures", failFirst: 2, attempts: 5, wantCalls: 3},
		{name: "gives up after attempts", failFirst: -1, attempts: 3, wantErr: schemaErr, wantCalls: 3},
		{name: "canceled during delay", failFirst: -1, attempts: 5, delay: time.Hour, canceled: true, wantErr: context.Canceled, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.canceled {
				cancel()
			}
			delay := tt.delay
			if delay == 0 {
				delay = time.Millisecond
			}

			store := &app.MockVectorStore{Err: schemaErr, FailFirst: tt.failFirst}
			err := app.EnsureSchemaWithRetry(ctx, store, tt.attempts, delay)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, store.Calls)
		})
	}
}

func TestBootstrap_ConfigurationError(t *testing.T) {
	deps, err := app.Bootstrap(context.Background(), &config.Config{DBHost: "invalid-host"})
	assert.Error(t, err)
	assert.Nil(t, deps)
}

func TestNewWeaviateClient(t *testing.T) {
	for _, key := range []string{"", "secret"} {
		client, err := app.NewWeaviateClient(&config.Config{
			WeaviateHost:   "localhost:8080",
			WeaviateScheme: "http",
			WeaviateAPIKey: key,
		})
		require.NoError(t, err)
		assert.NotNil(t, client)
	}
}
