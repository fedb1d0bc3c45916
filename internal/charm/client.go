// ABOUTME: Charm KV client wrapper for cloud-synced knowledge base storage
// ABOUTME: Authenticates with the local charm SSH key and syncs after writes
package charm

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

// ChunkPrefix namespaces every chunk key
const ChunkPrefix = "chunk:"

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// Client wraps charm KV for storage operations
type Client struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex
}

// NewClient opens the named charm KV database
func NewClient(cfg *Config) (*Client, error) {
	// charm reads the host from the environment when opening KV
	if cfg.Host != "" {
		os.Setenv("CHARM_HOST", cfg.Host)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// syncIfEnabled syncs to cloud after writes
func (c *Client) syncIfEnabled() {
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
}

// SetJSONBatch marshals and stores every entry, then syncs once
func (c *Client) SetJSONBatch(entries map[string]interface{}) error {
	encoded := make(map[string][]byte, len(entries))
	for key, value := range entries {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		encoded[key] = data
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, data := range encoded {
		if err := c.kv.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}
	}
	if len(encoded) > 0 {
		c.syncIfEnabled()
	}
	return nil
}

// DeleteKeys removes keys and syncs once. It returns how many were removed
// before any error.
func (c *Client) DeleteKeys(keys []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for _, key := range keys {
		if err := c.kv.Delete([]byte(key)); err != nil {
			if deleted > 0 {
				c.syncIfEnabled()
			}
			return deleted, fmt.Errorf("failed to delete key %s: %w", key, err)
		}
		deleted++
	}
	if deleted > 0 {
		c.syncIfEnabled()
	}
	return deleted, nil
}

// GetJSON retrieves and unmarshals a JSON value
func (c *Client) GetJSON(key string, dest interface{}) error {
	c.mu.Lock()
	data, err := c.kv.Get([]byte(key))
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("key not found: %s", key)
	}
	return json.Unmarshal(data, dest)
}

// ListKeys returns all keys with the given prefix
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	return result, nil
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.kv.Sync()
}

// Reset wipes the local copy of the database. Cloud data is re-synced on next open.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.kv.Reset()
}

// ID returns the charm user ID
func ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// AuthorizedKeys returns the SSH keys linked to the charm account
func AuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

// SourcePrefix returns the key prefix shared by all chunks of a source file.
// The name is query-escaped so one source can never prefix another.
func SourcePrefix(sourceFile string) string {
	return ChunkPrefix + url.QueryEscape(sourceFile) + "/"
}

// ChunkKey generates the key for a chunk
func ChunkKey(sourceFile, chunkID string) string {
	return SourcePrefix(sourceFile) + chunkID
}
