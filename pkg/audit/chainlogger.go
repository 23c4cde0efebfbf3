package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// LogEntry is a single audit record. Each entry commits to its predecessor
// through PreviousHash, so truncation or edits break the chain.
type LogEntry struct {
	Service      string `json:"service"`
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Payload      string `json:"payload"`
	Hash         string `json:"hash"`
}

// ChainLogger is an append-only, hash-chained request audit log. Every
// service keeps one and appends an entry per mutating request.
type ChainLogger struct {
	service string

	mu       sync.Mutex
	previous string
	entries  []*LogEntry
}

// NewChainLogger creates a chain for the named service, anchored at the zero
// hash.
func NewChainLogger(service string) *ChainLogger {
	return &ChainLogger{
		service:  service,
		previous: strings.Repeat("0", 64),
	}
}

// Append adds an entry for the payload and returns it.
func (c *ChainLogger) Append(payload string) *LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &LogEntry{
		Service:      c.service,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		PreviousHash: c.previous,
		Payload:      payload,
	}
	entry.Hash = entryHash(entry)

	c.previous = entry.Hash
	c.entries = append(c.entries, entry)
	return entry
}

// Entries returns a snapshot of the chain.
func (c *ChainLogger) Entries() []*LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// VerifyChain reports whether the entries form an unbroken hash chain.
func VerifyChain(entries []*LogEntry) bool {
	for i, entry := range entries {
		if i > 0 && entry.PreviousHash != entries[i-1].Hash {
			return false
		}
		if entryHash(entry) != entry.Hash {
			return false
		}
	}
	return true
}

func entryHash(e *LogEntry) string {
	sum := sha256.Sum256([]byte(e.Service + "|" + e.PreviousHash + "|" + e.Timestamp + "|" + e.Payload))
	return hex.EncodeToString(sum[:])
}
