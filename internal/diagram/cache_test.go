// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("graph TD\nA-->B"), CacheKey("graph TD\n\nA --> B\n"))
	assert.NotEqual(t, CacheKey("graph TD\nA-->B"), CacheKey("graph TD\nA-->C"))
	assert.Len(t, CacheKey("x"), 64)
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "heal.db")

	cache, err := OpenSQLiteCache(path)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	key := CacheKey(brokenSource)
	require.NoError(t, cache.Put(ctx, key, "graph TD\nA --> B"))
	require.NoError(t, cache.Put(ctx, key, validSource))

	healed, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, validSource, healed)

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, cache.Close())

	// Entries survive reopening.
	cache, err = OpenSQLiteCache(path)
	require.NoError(t, err)
	defer cache.Close()
	healed, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, validSource, healed)
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	require.NoError(t, c.Put(context.Background(), "k", "v"))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
