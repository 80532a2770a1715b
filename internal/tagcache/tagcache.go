// Package tagcache keeps tagger responses in a SQLite database so that
// re-running a batch does not tag the same utterance twice.
package tagcache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS tags (
	key        TEXT PRIMARY KEY,
	tokens     BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Cache decorates a Tagger. It does not own the decorated tagger.
type Cache struct {
	db        *sql.DB
	next      coczefla.Tagger
	namespace string

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates the cache database at path; ":memory:" keeps it
// in memory. namespace separates entries of different tagger models.
func Open(path string, next coczefla.Tagger, namespace string) (*Cache, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &coczefla.ConfigurationError{Setting: "cache.path", Message: "cannot open " + path, Err: err}
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &coczefla.ConfigurationError{Setting: "cache.path", Message: "cannot create schema in " + path, Err: err}
	}
	return &Cache{db: db, next: next, namespace: namespace}, nil
}

// Key returns the BLAKE3 hex digest identifying a request.
func Key(namespace, text string, opts coczefla.TagOptions) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%s\x00%t\x00", namespace, opts.Tokenizer, opts.Guesser)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Tag returns the cached response or asks the decorated tagger. Empty
// results and errors are not stored. A broken cache falls back to the
// tagger.
func (c *Cache) Tag(ctx context.Context, text string, opts coczefla.TagOptions) ([]coczefla.TaggedToken, error) {
	log := logging.FromContext(ctx)
	key := Key(c.namespace, text, opts)

	tokens, err := c.lookup(ctx, key)
	switch {
	case err == nil:
		c.hits.Add(1)
		return tokens, nil
	case !errors.Is(err, sql.ErrNoRows):
		log.Warn("tag cache lookup failed", "error", err)
	}
	c.misses.Add(1)

	tokens, err = c.next.Tag(ctx, text, opts)
	if err != nil || len(tokens) == 0 {
		return tokens, err
	}
	if err := c.store(ctx, key, tokens); err != nil {
		log.Warn("tag cache store failed", "error", err)
	}
	return tokens, nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]coczefla.TaggedToken, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT tokens FROM tags WHERE key = ?`, key).Scan(&blob)
	if err != nil {
		return nil, err
	}
	var tokens []coczefla.TaggedToken
	if err := json.Unmarshal(blob, &tokens); err != nil {
		return nil, fmt.Errorf("tagcache: entry %s: %w", key, err)
	}
	return tokens, nil
}

func (c *Cache) store(ctx context.Context, key string, tokens []coczefla.TaggedToken) error {
	blob, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tags (key, tokens, created_at) VALUES (?, ?, ?)`,
		key, blob, time.Now().Unix())
	return err
}

// Stats returns the hit and miss counts since Open.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of stored responses.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n)
	return n, err
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
