package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	tg "github.com/EgoisTa-Git/fish-shop/core/telegram"
)

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram:  coreconfig.TelegramConfig{Token: "123:abc"},
		Moltin:    coreconfig.MoltinConfig{ClientID: "id", ClientSecret: "secret"},
		RateLimit: coreconfig.RateLimitConfig{PerSecond: 2},
		Metrics:   coreconfig.MetricsConfig{Listen: "127.0.0.1:0"},
		Logging:   coreconfig.LoggingConfig{Level: "error"},
	}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func TestNewWiresComponents(t *testing.T) {
	built, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	a := built.(*App)
	t.Cleanup(func() { _ = a.Close() })

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "sequence", "metrics"}, names)
	assert.Len(t, opts.Routes, 4, "start, cancel, callbacks and text")
	assert.Same(t, a.sequencer, opts.Sequencer)

	svcs := a.Services()
	require.Len(t, svcs, 2)
	assert.Equal(t, "token_refresher", svcs[0].Name)
	assert.Equal(t, "metrics", svcs[1].Name)
}

func TestWaitForTokenHonoursContext(t *testing.T) {
	built, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	a := built.(*App)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = a.waitForToken(ctx, tg.Runtime{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
