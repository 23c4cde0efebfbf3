package gateway

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// AccountRef points at an externally held account. AccountID is the twin
// service's id when known; it is deliberately excluded from equality so a
// ref registered before its twin exists still matches later lookups.
type AccountRef struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	AccountID  string `json:"accountId,omitempty"`
}

// NewAccountRef validates the natural key.
func NewAccountRef(accountType, identifier string) (AccountRef, error) {
	if strings.TrimSpace(accountType) == "" {
		return AccountRef{}, errors.New("account type cannot be blank")
	}
	if strings.TrimSpace(identifier) == "" {
		return AccountRef{}, errors.New("account identifier cannot be blank")
	}
	return AccountRef{Type: accountType, Identifier: identifier}, nil
}

// ParseAccountRef parses the "type:identifier" string form.
func ParseAccountRef(s string) (AccountRef, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return AccountRef{}, fmt.Errorf("invalid account string %q: expected \"type:identifier\"", s)
	}
	return NewAccountRef(parts[0], parts[1])
}

func (r AccountRef) String() string {
	return r.Type + ":" + r.Identifier
}

// refKey is the registry's identity: (type, identifier) only.
type refKey struct {
	accountType string
	identifier  string
}

func (r AccountRef) key() refKey {
	return refKey{accountType: r.Type, identifier: r.Identifier}
}

// Registry is the process-wide set of monitored accounts. It is safe for
// concurrent add/remove/lookup from request-handling goroutines.
type Registry struct {
	mu   sync.RWMutex
	refs map[refKey]AccountRef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[refKey]AccountRef)}
}

// Add inserts the ref. It returns false without side effects when an equal
// ref (ignoring accountId) is already present.
func (reg *Registry) Add(ref AccountRef) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.refs[ref.key()]; ok {
		return false
	}
	reg.refs[ref.key()] = ref
	return true
}

// Remove deletes the ref by (type, identifier). It returns false when absent.
func (reg *Registry) Remove(ref AccountRef) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.refs[ref.key()]; !ok {
		return false
	}
	delete(reg.refs, ref.key())
	return true
}

// IsMonitored reports membership by (type, identifier).
func (reg *Registry) IsMonitored(ref AccountRef) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.refs[ref.key()]
	return ok
}

// List returns a snapshot of all monitored refs.
func (reg *Registry) List() []AccountRef {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]AccountRef, 0, len(reg.refs))
	for _, ref := range reg.refs {
		out = append(out, ref)
	}
	return out
}
