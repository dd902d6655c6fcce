package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/sifterlabs/sifter/core"
)

const entryPrefix = "resp"

// Cache is a content-addressed store of raw model responses backed by
// BadgerDB. A cache hit skips the model call entirely.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets an expiry on stored entries. Zero means entries never expire.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a response cache at the specified path.
// Creates the directory if it doesn't exist. Pass inMemory for tests.
func Open(filePath string, inMemory bool, opts ...Option) (*Cache, error) {
	var badgerOpts badger.Options

	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		db:     db,
		logger: slog.Default().With("component", "cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a model and prompt pair. The NUL joiner
// keeps ("a", "bc") and ("ab", "c") from colliding.
func Key(model, prompt string) core.ID {
	return core.IDFromContent(model + "\x00" + prompt)
}

// Get returns the cached response for a model and prompt pair.
// Returns ErrNotFound when no entry exists or an expired entry was dropped.
func (c *Cache) Get(model, prompt string) (string, error) {
	if c.db.IsClosed() {
		return "", ErrCacheClosed
	}

	key := makeEntryKey(Key(model, prompt))
	var entry *Entry
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = UnmarshalEntry(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug("cache hit", "model", model, "key", entry.Key)
	return entry.Response, nil
}

// Put stores a model response. An existing entry for the same model and
// prompt is overwritten.
func (c *Cache) Put(model, prompt, response string) error {
	if c.db.IsClosed() {
		return ErrCacheClosed
	}

	entry := &Entry{
		Key:       Key(model, prompt),
		Model:     model,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}

	return c.db.Update(func(tx *badger.Txn) error {
		e := badger.NewEntry(makeEntryKey(entry.Key), MarshalEntry(entry))
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return tx.SetEntry(e)
	})
}

// makeEntryKey generates a key for a cached response by content ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}
