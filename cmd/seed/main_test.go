package main

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducts_Deterministic(t *testing.T) {
	a := generateProducts(rand.New(rand.NewSource(7)), 50)
	b := generateProducts(rand.New(rand.NewSource(7)), 50)

	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	seen := make(map[string]bool, len(a))
	for _, p := range a {
		assert.True(t, p.Valid())
		assert.False(t, seen[p.Code], "duplicate code %s", p.Code)
		seen[p.Code] = true
		assert.NotEmpty(t, p.PartNumbers)
		if p.QuantityAvailable == 0 {
			assert.False(t, p.IsAvailable)
		}
	}
}

func TestUpsertBatch_PlaceholdersMatchArgs(t *testing.T) {
	products := generateProducts(rand.New(rand.NewSource(1)), 3)

	query, args := upsertBatch(products)

	assert.Len(t, args, 3*columnsPerRow)
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8, $9)")
	assert.Contains(t, query, "$27)")
	assert.NotContains(t, query, "$28")
	assert.True(t, strings.Contains(query, "ON CONFLICT (product_code) DO UPDATE"))
}

func TestRootCmd_RejectsNonPositiveCount(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--count", "0"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be positive")
}
