package audit

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainLinksEntries(t *testing.T) {
	c := NewChainLogger("transfer-gateway")

	first := c.Append("one")
	second := c.Append("two")

	assert.Equal(t, strings.Repeat("0", 64), first.PreviousHash)
	assert.Equal(t, first.Hash, second.PreviousHash)
	assert.True(t, VerifyChain(c.Entries()))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	c := NewChainLogger("account-twin")
	c.Append("one")
	c.Append("two")
	c.Append("three")

	entries := c.Entries()
	entries[1].Payload = "tampered"
	assert.False(t, VerifyChain(entries))
}

func TestVerifyChainEmpty(t *testing.T) {
	assert.True(t, VerifyChain(nil))
}

func TestConcurrentAppend(t *testing.T) {
	c := NewChainLogger("notification-service")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append("payload")
		}()
	}
	wg.Wait()

	entries := c.Entries()
	require.Len(t, entries, 50)
	assert.True(t, VerifyChain(entries))
}
