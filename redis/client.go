package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

var ctx = context.Background()

type Config struct {
	LockExpirationSeconds   int     `envconfig:"MDL_COMN_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"MDL_COMN_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"MDL_COMN_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"MDL_COMN_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"MDL_COMN_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"MDL_COMN_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"MDL_COMN_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"MDL_COMN_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"MDL_COMN_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (*Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(cfg, db), nil
}

func NewClientFromConfig(cfg *Config, db DB) *Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateFailoverClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return &Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}
}

func CreateFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetBytes returns the raw value under redisKey; ok is false when the key does not exist.
func (client *Client) GetBytes(redisKey string) (value []byte, ok bool, err error) {
	value, err = client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (client *Client) SetBytes(redisKey string, value []byte, expiration time.Duration) error {
	return client.client.Set(ctx, redisKey, value, expiration).Err()
}

// GetDocument decodes the JSON document under redisKey into doc and returns the raw document.
func (client *Client) GetDocument(redisKey string, doc interface{}) ([]byte, error) {
	raw, ok, err := client.GetBytes(redisKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("document %s not found", redisKey)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", redisKey, err)
	}
	return raw, nil
}

// UpdateDocument locks redisKey, applies update to doc and stores the change
// as a merge patch over the stored document, so fields doc does not declare
// are left as they were.
func (client *Client) UpdateDocument(redisKey string, doc interface{}, update func()) (err error) {
	releaseLock, err := client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	raw, err := client.GetDocument(redisKey, doc)
	if err != nil {
		return err
	}
	patched, err := ApplyUpdate(raw, doc, update)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", redisKey, err)
	}
	return client.SetBytes(redisKey, patched, 0)
}

// ApplyUpdate runs update against doc (already decoded from raw) and merges
// the resulting difference back into raw.
func ApplyUpdate(raw []byte, doc interface{}, update func()) ([]byte, error) {
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	update()
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(raw, patch)
}

func (client *Client) Lock(redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

// HoldLock takes a lock with its own ttl for work that outlives the document
// lock expiration. It waits up to wait for the lock and keeps refreshing it
// until the returned function is called.
func (client *Client) HoldLock(redisKey string, ttl, wait time.Duration) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	retries := int(wait / time.Second)
	if retries < 1 {
		retries = 1
	}
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), retries)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, ttl, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- keepAlive(func() error {
			return lock.Refresh(ctx, ttl, nil)
		}, ttl/2, stop)
	}()

	return func() error {
		close(stop)
		refreshErr := <-done
		if err := lock.Release(ctx); err != nil {
			return err
		}
		return refreshErr
	}, nil
}

// keepAlive calls refresh every interval until stop is closed or refresh fails.
func keepAlive(refresh func() error, interval time.Duration, stop <-chan struct{}) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := refresh(); err != nil {
				return fmt.Errorf("lock refresh: %w", err)
			}
		}
	}
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
