package cache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyTLSConfig controls transport security for the shared backend.
type ValkeyTLSConfig struct {
	Enabled bool
	CAFile  string
}

// ValkeyConfig carries the connection settings for the shared durable backend.
type ValkeyConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	TLS       ValkeyTLSConfig
}

type valkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewValkey builds the Store backend shared by every instance of the service.
// Expiry is logical: entries are judged by their stored ExpiresAt so that
// diagnostics can still enumerate stale entries. A physical retention of twice
// the TTL backstops the logical lifecycle so abandoned entries cannot pile up.
func NewValkey(cfg ValkeyConfig) (Store, error) {
	if cfg.Address == "" {
		return nil, errors.New("cache: valkey address required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "avail"
	}

	option := valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	}

	if cfg.TLS.Enabled {
		tlsConfig := &tls.Config{}
		if cfg.TLS.CAFile != "" {
			caData, err := os.ReadFile(cfg.TLS.CAFile)
			if err != nil {
				return nil, fmt.Errorf("cache: read valkey ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caData) {
				return nil, errors.New("cache: valkey ca file contains no certificates")
			}
			tlsConfig.RootCAs = pool
		}
		option.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("cache: valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: valkey ping: %w", err)
	}

	return &valkeyStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL, now: time.Now}, nil
}

func (s *valkeyStore) storageKey(key string) string {
	return s.prefix + ":" + key
}

func (s *valkeyStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	entry, found, err := s.load(ctx, s.storageKey(key))
	if err != nil {
		return Entry{}, false, storeErr("get", key, err)
	}
	if !found {
		return Entry{}, false, nil
	}
	if entry.ExpiredAt(s.now()) {
		if err := s.client.Do(ctx, s.client.B().Del().Key(s.storageKey(key)).Build()).Error(); err != nil {
			return Entry{}, false, storeErr("expire", key, err)
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *valkeyStore) Upsert(ctx context.Context, entry Entry) (Entry, error) {
	entry.CreatedAt = s.now().UTC()
	entry.ExpiresAt = entry.CreatedAt.Add(s.ttl)

	payload, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, storeErr("upsert", entry.Key, err)
	}
	retention := 2 * s.ttl
	cmd := s.client.B().Set().Key(s.storageKey(entry.Key)).Value(string(payload)).Px(retention).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return Entry{}, storeErr("upsert", entry.Key, err)
	}
	return entry, nil
}

func (s *valkeyStore) DeleteByKey(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.storageKey(key)).Build()).Error(); err != nil {
		return storeErr("delete", key, err)
	}
	return nil
}

func (s *valkeyStore) DeleteByDate(ctx context.Context, date, location string) (int, error) {
	if location != "" {
		key := EncodeKey(date, location)
		storage := s.storageKey(key)
		resp := s.client.Do(ctx, s.client.B().Del().Key(storage).Build())
		removed, err := resp.AsInt64()
		if err != nil {
			return 0, storeErr("delete_date", key, err)
		}
		return int(removed), nil
	}

	keys, err := s.scanKeys(ctx, s.prefix+":"+date+"_*")
	if err != nil {
		return 0, storeErr("delete_date", date, err)
	}
	removed := 0
	for _, storageKey := range keys {
		resp := s.client.Do(ctx, s.client.B().Del().Key(storageKey).Build())
		n, err := resp.AsInt64()
		if err != nil {
			return removed, storeErr("delete_date", date, err)
		}
		removed += int(n)
	}
	return removed, nil
}

func (s *valkeyStore) DeleteAll(ctx context.Context) error {
	keys, err := s.scanKeys(ctx, s.prefix+":*")
	if err != nil {
		return storeErr("delete_all", "", err)
	}
	for _, storageKey := range keys {
		if err := s.client.Do(ctx, s.client.B().Del().Key(storageKey).Build()).Error(); err != nil {
			return storeErr("delete_all", "", err)
		}
	}
	return nil
}

func (s *valkeyStore) SweepExpired(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx, s.prefix+":*")
	if err != nil {
		return 0, storeErr("sweep", "", err)
	}
	now := s.now()
	removed := 0
	for _, storageKey := range keys {
		entry, found, err := s.load(ctx, storageKey)
		if err != nil {
			return removed, storeErr("sweep", storageKey, err)
		}
		if !found || !entry.ExpiredAt(now) {
			continue
		}
		if err := s.client.Do(ctx, s.client.B().Del().Key(storageKey).Build()).Error(); err != nil {
			return removed, storeErr("sweep", storageKey, err)
		}
		removed++
	}
	return removed, nil
}

func (s *valkeyStore) Enumerate(ctx context.Context) ([]Entry, error) {
	keys, err := s.scanKeys(ctx, s.prefix+":*")
	if err != nil {
		return nil, storeErr("enumerate", "", err)
	}
	entries := make([]Entry, 0, len(keys))
	for _, storageKey := range keys {
		entry, found, err := s.load(ctx, storageKey)
		if err != nil {
			return nil, storeErr("enumerate", storageKey, err)
		}
		if found {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *valkeyStore) Close(context.Context) error {
	s.client.Close()
	return nil
}

func (s *valkeyStore) load(ctx context.Context, storageKey string) (Entry, bool, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(storageKey).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	payload, err := resp.AsBytes()
	if err != nil {
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *valkeyStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	cursor := uint64(0)
	for {
		resp := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		scan, err := resp.AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, scan.Elements...)
		cursor = scan.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}
