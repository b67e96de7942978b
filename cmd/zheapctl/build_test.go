package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/zheap/pkg/zheap"
)

func TestBuildFixtureFromStoreToml(t *testing.T) {
	cfg, err := loadConfig("testdata/store.toml")
	require.NoError(t, err)

	fx, tuples, err := buildFixture(cfg)
	require.NoError(t, err)
	require.Len(t, tuples, 1)

	tup, err := findTuple(tuples, 1, 2)
	require.NoError(t, err)
	require.True(t, tup.Flags.Has(zheap.FlagDeleted))

	fx.Page.Lock()
	defer fx.Page.Unlock()

	snap := &zheap.Snapshot{}
	got, err := zheap.SatisfiesMVCC(fx.Page, fx.Undo, fx.Oracle, fx.Horizon, tup, snap)
	require.NoError(t, err)
	require.NotNil(t, got, "deleted-by-in-progress row must still be visible to a concurrent snapshot")
}

func TestFindTupleMissing(t *testing.T) {
	_, tuples, err := buildFixture(&Config{Store: StoreConfig{NumSlots: 1}})
	require.NoError(t, err)
	_, err = findTuple(tuples, 9, 9)
	require.Error(t, err)
}
