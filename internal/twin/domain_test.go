package twin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/piggybank/internal/money"
)

func TestNewAccount(t *testing.T) {
	acct, err := NewAccount("BankAccount", "DE123", money.MustParse("100 EUR"))
	require.NoError(t, err)
	assert.Equal(t, "BankAccount:DE123", acct.ID)
	assert.Equal(t, "100 EUR", acct.Balance.String())

	_, err = NewAccount("", "DE123", money.MustParse("0 EUR"))
	require.Error(t, err)

	_, err = NewAccount("BankAccount", "   ", money.MustParse("0 EUR"))
	require.Error(t, err)
}

func TestApplyCreditAndDebit(t *testing.T) {
	acct, err := NewAccount("BankAccount", "DE123", money.MustParse("100 EUR"))
	require.NoError(t, err)

	credited, err := acct.Apply(money.MustParse("10 EUR"), Credit)
	require.NoError(t, err)
	assert.Equal(t, "110 EUR", credited.Balance.String())
	// the original value is untouched
	assert.Equal(t, "100 EUR", acct.Balance.String())

	debited, err := credited.Apply(money.MustParse("30 EUR"), Debit)
	require.NoError(t, err)
	assert.Equal(t, "80 EUR", debited.Balance.String())
}

func TestApplyCrossCurrencyFails(t *testing.T) {
	acct, err := NewAccount("BankAccount", "DE123", money.MustParse("100 EUR"))
	require.NoError(t, err)

	_, err = acct.Apply(money.MustParse("10 USD"), Credit)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestOpeningTransaction(t *testing.T) {
	acct, err := NewAccount("PayPal", "alice@example.com", money.MustParse("25 USD"))
	require.NoError(t, err)

	opening := NewOpeningTransaction(acct)
	assert.Equal(t, Dummy, opening.Type)
	assert.Equal(t, acct.ID, opening.AccountID)
	assert.True(t, opening.Amount.Equal(acct.Balance))
	assert.Equal(t, "Initial balance", opening.Purpose)
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, Credit.Valid())
	assert.True(t, Debit.Valid())
	assert.True(t, Dummy.Valid())
	assert.False(t, TransactionType("TRANSFER").Valid())

	assert.True(t, Credit.IncreasesBalance())
	assert.False(t, Debit.IncreasesBalance())
}
