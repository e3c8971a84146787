package cli

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// mockReindexer counts Start and Stop calls.
type mockReindexer struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (m *mockReindexer) Start(ctx context.Context) error {
	m.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockReindexer) Stop() error {
	m.stopped.Add(1)
	return nil
}

func (m *mockReindexer) LastRun() (domain.ReindexRun, bool) {
	return domain.ReindexRun{}, false
}

func TestMCPCmd_HasServeSubcommand(t *testing.T) {
	found := false
	for _, c := range mcpCmd.Commands() {
		if c.Name() == "serve" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_RequiresServices(t *testing.T) {
	setServices(nil)

	_, err := execute(t, "mcp", "serve")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validating ports")
}

func TestStartBackground(t *testing.T) {
	r := &mockReindexer{}
	var watched atomic.Bool
	setServices(&Services{
		Reindex: r,
		WatchConfig: func(context.Context) error {
			watched.Store(true)
			return nil
		},
	})
	defer setServices(nil)

	ctx, cancel := context.WithCancel(context.Background())
	startBackground(ctx)

	assert.True(t, watched.Load())
	require.Eventually(t, func() bool { return r.started.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	stopBackground()
	assert.Equal(t, int32(1), r.stopped.Load())
}

func TestStartBackground_NothingConfigured(t *testing.T) {
	setServices(nil)

	assert.NotPanics(t, func() {
		startBackground(context.Background())
		stopBackground()
	})
}
