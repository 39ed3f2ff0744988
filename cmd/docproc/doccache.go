package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jason-riddle/docproc-go"
)

// DocCache maps document IDs to filenames. It only labels citations in
// search and ask output; document listings always come from the backend.
type DocCache struct {
	Docs      map[int]string `json:"docs"`
	FetchedAt time.Time      `json:"fetched_at"`
}

type docLister interface {
	ListDocuments(ctx context.Context) ([]docproc.Document, error)
}

// docNameCache stores a DocCache on disk, or only in memory when memory is
// set or the disk is unusable.
type docNameCache struct {
	path   string
	memory bool
	hot    *DocCache
	log    *slog.Logger
}

// getDocCacheFilePath returns where the name cache lives: docs.json under
// $XDG_CACHE_HOME/docproc-go, or ~/.cache/docproc-go when that is unset.
func getDocCacheFilePath() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate doc cache: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "docproc-go", "docs.json"), nil
}

func newDocNameCache(memory bool, log *slog.Logger) *docNameCache {
	c := &docNameCache{memory: memory, log: log}
	if memory {
		return c
	}

	path, err := getDocCacheFilePath()
	if err != nil {
		log.Warn("Could not determine doc cache path, using in-memory cache", "err", err)
		c.memory = true
		return c
	}
	c.path = path
	return c
}

// load returns the cached names, or nil if there is no usable cache.
func (c *docNameCache) load() (*DocCache, error) {
	if c.memory {
		return c.hot, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var cache DocCache
	if err := json.Unmarshal(data, &cache); err != nil {
		// Corrupt cache is the same as no cache.
		return nil, nil
	}

	return &cache, nil
}

// save stores docs. Disk failures switch the cache to memory for the rest
// of the run and are never returned.
func (c *docNameCache) save(docs map[int]string) {
	cache := &DocCache{
		Docs:      docs,
		FetchedAt: time.Now(),
	}
	c.hot = cache

	if c.memory {
		return
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		c.log.Warn("Could not marshal doc cache data", "err", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		c.fallback("Could not create doc cache directory", err)
		return
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		c.fallback("Could not write doc cache file", err)
		return
	}
}

func (c *docNameCache) fallback(msg string, err error) {
	c.log.Warn(msg, "err", err)
	c.log.Info("Using in-memory doc cache as fallback")
	c.memory = true
}

// remember records the names from a fresh document list.
func (c *docNameCache) remember(docs []docproc.Document) {
	names := make(map[int]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Filename
	}
	c.save(names)
}

// isDocCacheStale checks if cached doc data has exceeded TTL
func isDocCacheStale(cache *DocCache, ttl time.Duration) bool {
	if cache == nil {
		return true
	}
	return time.Since(cache.FetchedAt) > ttl
}

// names returns document names, refetching the list when the cache is
// missing, stale or forceRefresh is set.
func (c *docNameCache) names(ctx context.Context, client docLister, forceRefresh bool, ttl time.Duration) (map[int]string, error) {
	if !forceRefresh {
		cache, err := c.load()
		if err != nil {
			c.log.Warn("Could not load doc cache", "err", err)
		} else if !isDocCacheStale(cache, ttl) {
			return cache.Docs, nil
		}
	}

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	c.remember(docs)
	return c.hot.Docs, nil
}
