package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/txreplay/internal/config"
	"github.com/rumor-ml/commons.systems/txreplay/internal/diag"
	"github.com/rumor-ml/commons.systems/txreplay/internal/registry"
	"github.com/rumor-ml/commons.systems/txreplay/internal/runner"
	"github.com/rumor-ml/commons.systems/txreplay/internal/store"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg, err := config.LoadEmbedded()
	require.NoError(t, err)

	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.(*store.Memory)
	assert.True(t, ok)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg, err := config.LoadEmbedded()
	require.NoError(t, err)
	cfg.Store.Backend = config.StoreSQLite
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "ledger.db")

	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg, err := config.LoadEmbedded()
	require.NoError(t, err)
	cfg.Store.Backend = "redis"

	_, err = openStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestReplayFileEndToEnd(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"type,client,tx,amount\n"+
			"deposit,1,1,5.0\n"+
			"withdrawal,1,2,1.5\n"+
			"deposit,2,3,2.0\n"+
			"dispute,2,3,\n",
	), 0644))

	st := store.NewMemory()
	r := runner.New(st, diag.Noop{})
	reg := registry.New()

	stats, err := replayFile(ctx, r, reg, path)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Events)
	assert.Equal(t, 4, stats.Applied)
	assert.Zero(t, stats.Rejected)

	clients, err := st.DumpClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	c2, err := st.GetClient(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.True(t, c2.Available.IsZero())
	assert.True(t, c2.Held.Equal(c2.Total()))
}

func TestReplayFileUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.xml")
	require.NoError(t, os.WriteFile(path, []byte("<events/>"), 0644))

	st := store.NewMemory()
	r := runner.New(st, diag.Noop{})

	_, err := replayFile(context.Background(), r, registry.New(), path)
	assert.Error(t, err)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	origStore, origFormat, origOutput, origDump := *storeFlag, *formatFlag, *outputFile, *dumpTxns
	t.Cleanup(func() {
		*storeFlag, *formatFlag, *outputFile, *dumpTxns = origStore, origFormat, origOutput, origDump
	})

	*storeFlag = "sqlite"
	*formatFlag = "json"
	*outputFile = "out.json"
	*dumpTxns = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "out.json", cfg.Output.Path)
	assert.True(t, cfg.Output.DumpTransactions)
}

func TestLoadConfigRejectsBadFlags(t *testing.T) {
	origStore := *storeFlag
	t.Cleanup(func() { *storeFlag = origStore })

	*storeFlag = "redis"
	_, err := loadConfig()
	assert.Error(t, err)
}
