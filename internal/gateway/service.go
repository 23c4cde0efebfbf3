package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/piggybank/internal/events"
)

// Publisher publishes an event on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// TwinClient forwards a synthesized ledger entry to the account-twin service.
type TwinClient interface {
	SendTransaction(ctx context.Context, req TransactionRequest) error
}

// Service decides how a transfer affects the monitored set and fans it out.
type Service struct {
	registry *Registry
	bus      Publisher
	twin     TwinClient
	logger   *slog.Logger
}

// NewService wires the transfer fan-out.
func NewService(registry *Registry, bus Publisher, twin TwinClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: registry, bus: bus, twin: twin, logger: logger}
}

// ProcessTransfer handles one external transfer. A transfer touching no
// monitored account is successfully ignored. Otherwise the transfer event is
// published and each monitored side's leg is forwarded synchronously; the
// first failure aborts the operation without rolling back legs already
// forwarded.
func (s *Service) ProcessTransfer(ctx context.Context, transfer Transfer) error {
	sourceMonitored := s.registry.IsMonitored(transfer.SourceAccount)
	targetMonitored := s.registry.IsMonitored(transfer.TargetAccount)

	if !sourceMonitored && !targetMonitored {
		s.logger.Info("neither side monitored, skipping transfer",
			"transferId", transfer.ID)
		return nil
	}

	err := s.bus.Publish(ctx, events.TopicTransferSubmitted, events.TransferSubmitted{
		TransferID:         transfer.ID.String(),
		SourceAccount:      transfer.SourceAccount.String(),
		TargetAccount:      transfer.TargetAccount.String(),
		Amount:             transfer.Amount,
		ValuationTimestamp: transfer.ValuationTimestamp.UTC().Format(time.RFC3339Nano),
		Purpose:            transfer.Purpose,
	})
	if err != nil {
		return fmt.Errorf("publish transfer event: %w", err)
	}

	if sourceMonitored {
		if err := s.twin.SendTransaction(ctx, transfer.DebitLeg()); err != nil {
			return fmt.Errorf("forward debit leg: %w", err)
		}
		s.logger.Info("debit leg forwarded", "transferId", transfer.ID,
			"accountId", transfer.SourceAccount.String())
	}
	if targetMonitored {
		if err := s.twin.SendTransaction(ctx, transfer.CreditLeg()); err != nil {
			// the debit may already be applied; accepted inconsistency
			// window, logged for reconciliation
			s.logger.Error("credit leg failed after debit forwarding",
				"transferId", transfer.ID, "debitForwarded", sourceMonitored)
			return fmt.Errorf("forward credit leg: %w", err)
		}
		s.logger.Info("credit leg forwarded", "transferId", transfer.ID,
			"accountId", transfer.TargetAccount.String())
	}

	return nil
}
