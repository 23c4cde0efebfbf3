package gateway

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountRefRejectsBlankFields(t *testing.T) {
	_, err := NewAccountRef("", "DE123")
	assert.Error(t, err)

	_, err = NewAccountRef("IBAN", "  ")
	assert.Error(t, err)

	ref, err := NewAccountRef("IBAN", "DE123")
	require.NoError(t, err)
	assert.Equal(t, "IBAN:DE123", ref.String())
}

func TestParseAccountRef(t *testing.T) {
	ref, err := ParseAccountRef("IBAN:DE123")
	require.NoError(t, err)
	assert.Equal(t, "IBAN", ref.Type)
	assert.Equal(t, "DE123", ref.Identifier)

	// identifiers may themselves contain colons
	ref, err = ParseAccountRef("URI:bank:acct:42")
	require.NoError(t, err)
	assert.Equal(t, "bank:acct:42", ref.Identifier)

	_, err = ParseAccountRef("no-separator")
	assert.Error(t, err)
}

func TestRegistryAddAndRemove(t *testing.T) {
	reg := NewRegistry()
	ref := AccountRef{Type: "IBAN", Identifier: "DE123"}

	require.True(t, reg.Add(ref))
	assert.False(t, reg.Add(ref), "second add of the same ref must be rejected")
	assert.True(t, reg.IsMonitored(ref))

	require.True(t, reg.Remove(ref))
	assert.False(t, reg.Remove(ref))
	assert.False(t, reg.IsMonitored(ref))
}

func TestRegistryEqualityIgnoresAccountID(t *testing.T) {
	reg := NewRegistry()
	require.True(t, reg.Add(AccountRef{Type: "IBAN", Identifier: "DE1"}))

	withID := AccountRef{Type: "IBAN", Identifier: "DE1", AccountID: "IBAN:DE1"}
	assert.True(t, reg.IsMonitored(withID),
		"membership must be decided by type and identifier only")
	assert.False(t, reg.Add(withID))
	assert.True(t, reg.Remove(withID))
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Add(AccountRef{Type: "IBAN", Identifier: "DE1"})
	reg.Add(AccountRef{Type: "IBAN", Identifier: "DE2"})

	refs := reg.List()
	assert.Len(t, refs, 2)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ref := AccountRef{Type: "IBAN", Identifier: fmt.Sprintf("DE%d", n)}
			reg.Add(ref)
			reg.IsMonitored(ref)
			reg.List()
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.List(), 50)
}
