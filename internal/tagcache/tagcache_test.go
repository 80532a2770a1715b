package tagcache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	coczefla "github.com/VanaKraus/CoCzeFLA"
)

type countingTagger struct {
	calls  int
	tokens []coczefla.TaggedToken
	err    error
}

func (c *countingTagger) Tag(_ context.Context, text string, _ coczefla.TagOptions) ([]coczefla.TaggedToken, error) {
	c.calls++
	return c.tokens, c.err
}

var chciTo = []coczefla.TaggedToken{
	{Word: "chci", Lemma: "chtít", Tag: "VB-S---1P-AAI--"},
	{Word: "to", Lemma: "ten", Tag: "PDNS1----------"},
}

func TestCacheHit(t *testing.T) {
	next := &countingTagger{tokens: chciTo}
	c, err := Open(":memory:", next, "czech-test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := c.Tag(ctx, "chci to", coczefla.TagOptions{})
		require.NoError(t, err)
		require.Equal(t, chciTo, got)
	}
	require.Equal(t, 1, next.calls)
	hits, misses := c.Stats()
	require.EqualValues(t, 2, hits)
	require.EqualValues(t, 1, misses)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	next := &countingTagger{tokens: chciTo}
	c, err := Open(":memory:", next, "czech-test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Tag(ctx, "chci to", coczefla.TagOptions{})
	require.NoError(t, err)
	_, err = c.Tag(ctx, "chci to", coczefla.TagOptions{Guesser: true})
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)

	require.NotEqual(t,
		Key("a", "chci to", coczefla.TagOptions{}),
		Key("b", "chci to", coczefla.TagOptions{}))
	require.Len(t, Key("a", "x", coczefla.TagOptions{}), 64)
}

func TestCacheSkipsFailures(t *testing.T) {
	next := &countingTagger{err: errors.New("service down")}
	c, err := Open(":memory:", next, "")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Tag(ctx, "chci to", coczefla.TagOptions{})
	require.Error(t, err)

	next.err = nil
	got, err := c.Tag(ctx, "chci to", coczefla.TagOptions{})
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, 2, next.calls)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCachePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	ctx := context.Background()

	c, err := Open(path, &countingTagger{tokens: chciTo}, "m")
	require.NoError(t, err)
	_, err = c.Tag(ctx, "chci to", coczefla.TagOptions{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	next := &countingTagger{}
	c, err = Open(path, next, "m")
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Tag(ctx, "chci to", coczefla.TagOptions{})
	require.NoError(t, err)
	require.Equal(t, chciTo, got)
	require.Zero(t, next.calls)
}
