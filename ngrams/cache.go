package ngrams

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"morsedecoder.com/mdc/redis"
)

// FileCache keeps one JSON file per vocabulary in Dir.
type FileCache struct {
	Dir string
}

func (c FileCache) path(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

func (c FileCache) Load(key string) (Table, bool, error) {
	buf, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var table Table
	if err := json.Unmarshal(buf, &table); err != nil {
		return nil, false, fmt.Errorf("corrupted cache file %s: %w", c.path(key), err)
	}
	return table, true, nil
}

func (c FileCache) Store(key string, table Table) error {
	buf, err := json.Marshal(table)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

const (
	CacheDB        redis.DB = 3
	redisKeyPrefix          = "ngrams:"

	// DefaultBuildLockTTL is refreshed while the corpus is scanned, so it
	// only bounds how long a crashed builder blocks the others.
	DefaultBuildLockTTL = 30 * time.Second
	// DefaultBuildLockWait covers a full scan by another process.
	DefaultBuildLockWait = 10 * time.Minute
)

// RedisCache shares tables between decoder instances.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	// LockTTL and LockWait default to DefaultBuildLockTTL and DefaultBuildLockWait.
	LockTTL  time.Duration
	LockWait time.Duration
}

func (c RedisCache) Load(key string) (Table, bool, error) {
	buf, ok, err := c.Client.GetBytes(redisKeyPrefix + key)
	if err != nil || !ok {
		return nil, false, err
	}
	var table Table
	if err := json.Unmarshal(buf, &table); err != nil {
		return nil, false, fmt.Errorf("corrupted cache entry %s: %w", key, err)
	}
	return table, true, nil
}

func (c RedisCache) Store(key string, table Table) error {
	buf, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return c.Client.SetBytes(redisKeyPrefix+key, buf, c.TTL)
}

func (c RedisCache) Lock(key string) (func() error, error) {
	ttl, wait := c.LockTTL, c.LockWait
	if ttl <= 0 {
		ttl = DefaultBuildLockTTL
	}
	if wait <= 0 {
		wait = DefaultBuildLockWait
	}
	release, err := c.Client.HoldLock(redisKeyPrefix+key, ttl, wait)
	if err != nil {
		return nil, err
	}
	return release, nil
}
