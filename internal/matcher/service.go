package matcher

import (
	"context"

	"broker-reconciliation-service/internal/models"
	"broker-reconciliation-service/internal/store"
	"broker-reconciliation-service/pkg/errors"
	"broker-reconciliation-service/pkg/logger"
)

// Service runs reconciliation over the persisted ledgers and applies
// discrepancy confirmations.
type Service struct {
	store   store.Store
	matcher *DepositMatcher
	log     logger.Logger
}

// NewService creates a reconciliation service bound to the given
// store; a nil config selects the default tolerances.
func NewService(s store.Store, config *Config) (*Service, error) {
	m, err := NewDepositMatcher(config)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:   s,
		matcher: m,
		log:     logger.WithComponent("matcher"),
	}, nil
}

// CompareCRMAndGatewayDeposits loads both deposit ledgers for the
// range and reports the unmatched remainder. Discrepancies are a view
// over live ledger rows and are never persisted.
func (s *Service) CompareCRMAndGatewayDeposits(ctx context.Context, r store.Range) ([]models.Discrepancy, error) {
	crm, err := s.store.Entries(ctx, models.KindCRMDeposit, r)
	if err != nil {
		return nil, err
	}
	gateway, err := s.store.Entries(ctx, models.KindM2pDeposit, r)
	if err != nil {
		return nil, err
	}

	result := s.matcher.Reconcile(crm, gateway)
	s.log.WithFields(logger.Fields{
		"crm_entries":     len(crm),
		"gateway_entries": len(gateway),
		"matched":         len(result.Matched),
		"discrepancies":   len(result.Discrepancies),
	}).Info("deposit reconciliation complete")

	return result.Discrepancies, nil
}

// Confirm resolves a discrepancy by deleting the underlying ledger
// row, so the next comparison no longer reports it.
func (s *Service) Confirm(ctx context.Context, d models.Discrepancy) error {
	var kind models.EntryKind
	switch d.Source {
	case "CRM":
		kind = models.KindCRMDeposit
	case "M2p":
		kind = models.KindM2pDeposit
	default:
		return errors.ValidationError(errors.CodeInvalidData, "source", d.Source, nil)
	}
	if d.RowID == "" {
		return errors.ValidationError(errors.CodeMissingField, "row_id", d.RowID, nil)
	}

	if err := s.store.DeleteEntry(ctx, kind, d.RowID); err != nil {
		return err
	}
	s.log.WithFields(logger.Fields{
		"source": d.Source,
		"row_id": d.RowID,
	}).Info("discrepancy confirmed")
	return nil
}
