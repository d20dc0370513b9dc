package docs

import (
	"bytes"
	"compress/zlib"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInventoryBody = `codingame.Client py:class 1 api.html#$ -
codingame.Client.get_codingamer py:method 1 api.html#$ -
codingame.Client.get_clash_of_code py:method 1 api.html#$ -
codingame.ClashOfCode py:class 1 api.html#$ -
codingame.CodinGamer py:class 1 api.html#$ -
getting started std:label -1 user_guide/quickstart.html#quickstart Getting Started
`

func buildInventory(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("# Sphinx inventory version 2\n")
	buf.WriteString("# Project: codingame\n")
	buf.WriteString("# Version: 1.4\n")
	buf.WriteString("# The remainder of this file is compressed using zlib.\n")

	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestParseInventory(t *testing.T) {
	data := buildInventory(t, testInventoryBody)

	entries, err := ParseInventory(bytes.NewReader(data), "https://codingame.readthedocs.io/en/latest/")
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assert.Equal(t, Entry{
		Name:        "codingame.Client",
		Role:        "py:class",
		URL:         "https://codingame.readthedocs.io/en/latest/api.html#codingame.Client",
		DisplayName: "codingame.Client",
	}, entries[0])

	label := entries[5]
	assert.Equal(t, "getting started", label.Name)
	assert.Equal(t, "std:label", label.Role)
	assert.Equal(t, "Getting Started", label.DisplayName)
	assert.Equal(t, "https://codingame.readthedocs.io/en/latest/user_guide/quickstart.html#quickstart", label.URL)
}

func TestParseInventory_RejectsUnknownVersion(t *testing.T) {
	_, err := ParseInventory(bytes.NewReader([]byte("# Sphinx inventory version 1\n")), "")
	assert.ErrorContains(t, err, "unsupported inventory header")
}

func TestSearch(t *testing.T) {
	entries, err := ParseInventory(bytes.NewReader(buildInventory(t, testInventoryBody)), "")
	require.NoError(t, err)

	results := Search(entries, "get_clash", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "codingame.Client.get_clash_of_code", results[0].Name)

	assert.Empty(t, Search(entries, "zzzzqqq", 10))
	assert.Len(t, Search(entries, "codingame", 2), 2)
}

func TestIndex_CachesInventory(t *testing.T) {
	var hits atomic.Int32
	data := buildInventory(t, testInventoryBody)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/en/latest/objects.inv", r.URL.Path)
		hits.Add(1)
		w.Write(data)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	index := NewIndex(server.URL+"/en/latest", server.Client())
	index.now = func() time.Time { return now }

	results, err := index.Search(context.Background(), "CodinGamer", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, server.URL+"/en/latest/api.html#codingame.CodinGamer", results[0].URL)

	_, err = index.Search(context.Background(), "Client", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(2 * time.Hour)
	_, err = index.Search(context.Background(), "Client", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestIndex_ServesStaleOnRefreshFailure(t *testing.T) {
	var fail atomic.Bool
	data := buildInventory(t, testInventoryBody)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	index := NewIndex(server.URL, server.Client())
	index.now = func() time.Time { return now }

	_, err := index.Search(context.Background(), "Client", 10)
	require.NoError(t, err)

	fail.Store(true)
	now = now.Add(2 * time.Hour)
	results, err := index.Search(context.Background(), "Client", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestIndex_FirstLoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	index := NewIndex(server.URL, server.Client())
	_, err := index.Search(context.Background(), "Client", 10)
	assert.ErrorContains(t, err, "status 404")
}
