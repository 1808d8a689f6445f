package services

import (
	"context"
	"strings"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
)

// VerifyDonationRequest identifies one transaction to check.
type VerifyDonationRequest struct {
	TxHash  string
	Chain   domain.Chain
	ChainID *int64
}

// DonationVerifier matches a transaction's destinations against the cause
// registry. It reports; it never gates.
type DonationVerifier struct {
	registry *CauseRegistry
	indexer  ports.TransactionIndexer
	solana   ports.SolanaRPC
	notifier ports.Notifier
}

// NewDonationVerifier creates a verifier. notifier may be nil.
func NewDonationVerifier(registry *CauseRegistry, indexer ports.TransactionIndexer, solana ports.SolanaRPC, notifier ports.Notifier) *DonationVerifier {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &DonationVerifier{registry: registry, indexer: indexer, solana: solana, notifier: notifier}
}

// Verify resolves the transaction on its chain and looks for a matching
// cause. It refuses to run against a registry whose every source failed.
func (v *DonationVerifier) Verify(ctx context.Context, req VerifyDonationRequest) (domain.DonationMatch, error) {
	if strings.TrimSpace(req.TxHash) == "" {
		return domain.DonationMatch{}, domain.Invalid("tx_hash", "is required")
	}
	chain := req.Chain
	if chain == "" {
		chain = domain.ChainEVM
	}
	if chain == domain.ChainEVM && req.ChainID == nil {
		return domain.DonationMatch{}, domain.Invalid("chain_id", "is required for evm transactions")
	}

	snapshot := v.registry.GetVerifiedCauses(ctx)
	if snapshot.Unreliable() {
		return domain.DonationMatch{}, &domain.AggregateError{Failed: snapshot.FailedSources}
	}

	var (
		match domain.DonationMatch
		err   error
	)
	switch chain {
	case domain.ChainSolana:
		match, err = v.verifySolana(ctx, req.TxHash, snapshot.Causes)
	case domain.ChainEVM:
		match, err = v.verifyEVM(ctx, req.TxHash, *req.ChainID, snapshot.Causes)
	default:
		return domain.DonationMatch{}, domain.Invalid("chain", "must be evm or solana")
	}
	if err != nil {
		return domain.DonationMatch{}, err
	}

	if match.Verified {
		v.notifier.Notify(ctx, ports.Notification{
			Type:    domain.EventDonationVerified,
			Subject: match.TxHash,
			Data: map[string]any{
				"chain":    match.Chain,
				"chain_id": match.ChainID,
				"tx_hash":  match.TxHash,
				"to":       match.DestinationAddresses,
				"cause":    match.Cause.Name,
			},
		})
	}
	return match, nil
}

func (v *DonationVerifier) verifySolana(ctx context.Context, signature string, causes []domain.Cause) (domain.DonationMatch, error) {
	tx, err := v.solana.GetConfirmedTransaction(ctx, signature)
	if err != nil {
		return domain.DonationMatch{}, err
	}

	destinations := make([]string, 0, len(tx.Instructions))
	for _, ix := range tx.Instructions {
		if ix.Destination != "" {
			destinations = append(destinations, ix.Destination)
		}
	}

	match := domain.DonationMatch{
		Chain:                domain.ChainSolana,
		TxHash:               signature,
		DestinationAddresses: destinations,
	}
	match.Cause = findCause(causes, domain.ChainSolana, 0, destinations)
	match.Verified = match.Cause != nil
	return match, nil
}

func (v *DonationVerifier) verifyEVM(ctx context.Context, txHash string, chainID int64, causes []domain.Cause) (domain.DonationMatch, error) {
	tx, err := v.indexer.GetTransaction(ctx, chainID, txHash)
	if err != nil {
		return domain.DonationMatch{}, err
	}

	destination := strings.ToLower(tx.ToAddress)
	id := chainID
	match := domain.DonationMatch{
		Chain:                domain.ChainEVM,
		ChainID:              &id,
		TxHash:               txHash,
		DestinationAddresses: []string{destination},
	}
	match.Cause = findCause(causes, domain.ChainEVM, chainID, match.DestinationAddresses)
	match.Verified = match.Cause != nil
	return match, nil
}

// findCause returns the first cause, in registry order, paid by any destination.
func findCause(causes []domain.Cause, chain domain.Chain, chainID int64, destinations []string) *domain.Cause {
	for i := range causes {
		for _, destination := range destinations {
			if causes[i].Matches(chain, chainID, destination) {
				cause := causes[i]
				return &cause
			}
		}
	}
	return nil
}
