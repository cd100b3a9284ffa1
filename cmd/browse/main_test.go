package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarket/api/internal/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBrowse_JSONOutput(t *testing.T) {
	out, err := run(t, "--genre", "Fiction", "--sort", "price-low", "--json")
	require.NoError(t, err)

	var books []domain.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))

	ids := make([]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	assert.Equal(t, []int{10, 8, 3, 1, 5}, ids)
}

func TestBrowse_ListView(t *testing.T) {
	out, err := run(t, "--condition", "New", "--max", "15", "--view", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Showing 2 of 12 books (sorted by Featured)")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "The Midnight Library")
	assert.Contains(t, out, "$14.99")
}

func TestBrowse_GridView(t *testing.T) {
	out, err := run(t, "--sort", "rating", "--min", "18")
	require.NoError(t, err)

	assert.Contains(t, out, "[7] Becoming ($18.99)")
}

func TestBrowse_InvalidPrice(t *testing.T) {
	_, err := run(t, "--min", "cheap")
	assert.ErrorContains(t, err, "invalid --min")
}

func TestBrowse_RepeatedFlagsAreAUnion(t *testing.T) {
	out, err := run(t, "--genre", "Fiction", "--genre", "Fiction", "--json")
	require.NoError(t, err)

	var books []domain.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	assert.Len(t, books, 5)
	for _, b := range books {
		assert.Equal(t, domain.GenreFiction, b.Genre)
	}
}
