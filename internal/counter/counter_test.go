package counter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/source"
)

func TestCountLines(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected int
	}{
		{name: "empty", content: "", expected: 0},
		{name: "one line without newline", content: "package main", expected: 1},
		{name: "one line with newline", content: "package main\n", expected: 1},
		{name: "n lines plus partial", content: "a\nb\nc\npartial", expected: 4},
		{name: "blank lines count", content: "\n\n\n", expected: 3},
		{name: "crlf", content: "a\r\nb\r\n", expected: 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CountLines([]byte(tc.content)))
		})
	}
}

// fakeSource serves in-memory files and counts reads.
type fakeSource struct {
	entries []source.Entry
	content map[string]string
	fail    map[string]error
	reads   atomic.Int32
}

func (f *fakeSource) Entries() []source.Entry {
	return f.entries
}

func (f *fakeSource) Read(_ context.Context, entry source.Entry) ([]byte, error) {
	f.reads.Add(1)
	if err := f.fail[entry.Path]; err != nil {
		return nil, err
	}
	return []byte(f.content[entry.Path]), nil
}

func TestNaiveCounter_Count(t *testing.T) {
	src := &fakeSource{
		entries: []source.Entry{
			{Path: "a.go", SHA: "sha-a"},
			{Path: "b.go", SHA: "sha-b"},
			{Path: "broken.go", SHA: "sha-x"},
			{Path: "c.go"},
		},
		content: map[string]string{
			"a.go": "package a\n\nfunc A() {}\n",
			"b.go": "package b",
			"c.go": "",
		},
		fail: map[string]error{"broken.go": errors.New("blob unavailable")},
	}

	counter, err := NewNaiveCounter(2, 16)
	require.NoError(t, err)
	assert.Equal(t, "naive", counter.Name())

	result, err := counter.Count(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []domain.FileCount{
		{Path: "a.go", Lines: 3},
		{Path: "b.go", Lines: 1},
		{Path: "c.go", Lines: 0},
	}, result.Files)
	assert.Equal(t, []domain.SkippedFile{{Path: "broken.go", Reason: "blob unavailable"}}, result.Skipped)
	assert.Nil(t, result.External)
	assert.Equal(t, int32(4), src.reads.Load())

	// Second pass hits the SHA cache for a.go and b.go.
	_, err = counter.Count(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int32(6), src.reads.Load())
}

func TestNaiveCounter_Canceled(t *testing.T) {
	src := &fakeSource{
		entries: []source.Entry{{Path: "a.go"}},
		fail:    map[string]error{"a.go": context.Canceled},
	}
	counter, err := NewNaiveCounter(1, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = counter.Count(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}
