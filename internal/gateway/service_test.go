package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/piggybank/internal/events"
)

type fakePublisher struct {
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	topic   string
	payload any
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedEvent{topic: topic, payload: payload})
	return nil
}

type fakeTwinClient struct {
	sent   []TransactionRequest
	failOn string // leg type to fail on, empty for none
}

func (f *fakeTwinClient) SendTransaction(ctx context.Context, txn TransactionRequest) error {
	if f.failOn != "" && txn.Type == f.failOn {
		return errors.New("twin unavailable")
	}
	f.sent = append(f.sent, txn)
	return nil
}

func newTestGateway(t *testing.T) (*Service, *Registry, *fakePublisher, *fakeTwinClient) {
	t.Helper()
	reg := NewRegistry()
	bus := &fakePublisher{}
	twin := &fakeTwinClient{}
	return NewService(reg, bus, twin, nil), reg, bus, twin
}

func TestProcessTransferUnmonitoredIsNoOp(t *testing.T) {
	svc, _, bus, twin := newTestGateway(t)

	err := svc.ProcessTransfer(context.Background(), sampleTransfer(t))
	require.NoError(t, err, "a transfer touching no monitored account succeeds")
	assert.Empty(t, bus.published)
	assert.Empty(t, twin.sent)
}

func TestProcessTransferBothSidesMonitored(t *testing.T) {
	svc, reg, bus, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.SourceAccount)
	reg.Add(transfer.TargetAccount)

	require.NoError(t, svc.ProcessTransfer(context.Background(), transfer))

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TopicTransferSubmitted, bus.published[0].topic)
	evt, ok := bus.published[0].payload.(events.TransferSubmitted)
	require.True(t, ok)
	assert.Equal(t, transfer.ID.String(), evt.TransferID)
	assert.Equal(t, "IBAN:DE1", evt.SourceAccount)
	assert.Equal(t, "IBAN:DE2", evt.TargetAccount)

	require.Len(t, twin.sent, 2)
	assert.Equal(t, "DEBIT", twin.sent[0].Type)
	assert.Equal(t, "IBAN:DE1", twin.sent[0].AccountID)
	assert.Equal(t, "CREDIT", twin.sent[1].Type)
	assert.Equal(t, "IBAN:DE2", twin.sent[1].AccountID)
}

func TestProcessTransferOnlySourceMonitored(t *testing.T) {
	svc, reg, bus, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.SourceAccount)

	require.NoError(t, svc.ProcessTransfer(context.Background(), transfer))

	assert.Len(t, bus.published, 1)
	require.Len(t, twin.sent, 1)
	assert.Equal(t, "DEBIT", twin.sent[0].Type)
}

func TestProcessTransferOnlyTargetMonitored(t *testing.T) {
	svc, reg, _, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.TargetAccount)

	require.NoError(t, svc.ProcessTransfer(context.Background(), transfer))

	require.Len(t, twin.sent, 1)
	assert.Equal(t, "CREDIT", twin.sent[0].Type)
}

func TestProcessTransferPublishFailureAborts(t *testing.T) {
	svc, reg, bus, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.SourceAccount)
	bus.err = errors.New("broker down")

	err := svc.ProcessTransfer(context.Background(), transfer)
	require.Error(t, err)
	assert.Empty(t, twin.sent, "no leg is forwarded when the event cannot be published")
}

func TestProcessTransferDebitFailureSkipsCredit(t *testing.T) {
	svc, reg, _, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.SourceAccount)
	reg.Add(transfer.TargetAccount)
	twin.failOn = "DEBIT"

	err := svc.ProcessTransfer(context.Background(), transfer)
	require.Error(t, err)
	assert.Empty(t, twin.sent)
}

func TestProcessTransferCreditFailureAfterDebit(t *testing.T) {
	svc, reg, _, twin := newTestGateway(t)
	transfer := sampleTransfer(t)
	reg.Add(transfer.SourceAccount)
	reg.Add(transfer.TargetAccount)
	twin.failOn = "CREDIT"

	err := svc.ProcessTransfer(context.Background(), transfer)
	require.Error(t, err)
	// the debit stays forwarded; there is no rollback
	require.Len(t, twin.sent, 1)
	assert.Equal(t, "DEBIT", twin.sent[0].Type)
}
