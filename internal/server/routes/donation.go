package routes

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	appservices "github.com/fr0stylo/trustguard/internal/app/services"
)

type verifyDonationRequest struct {
	TxHash  string        `json:"tx_hash" form:"tx_hash" validate:"required"`
	ChainID *ChainIDParam `json:"chain_id" form:"chain_id" validate:"omitempty,gt=0"`
	Chain   string        `json:"chain" form:"chain" validate:"omitempty,oneof=evm solana"`
}

type evmDonationResponse struct {
	ChainID  *int64  `json:"chain_id"`
	TxHash   string  `json:"tx_hash"`
	To       string  `json:"to"`
	Verified bool    `json:"verified"`
	Cause    *string `json:"cause"`
}

type solanaDonationResponse struct {
	Chain    domain.Chain `json:"chain"`
	TxHash   string       `json:"tx_hash"`
	To       []string     `json:"to"`
	Verified bool         `json:"verified"`
	Cause    *string      `json:"cause"`
}

type causesResponse struct {
	Causes        []domain.Cause         `json:"causes"`
	FailedSources []domain.SourceFailure `json:"failed_sources"`
}

// DonationVerifier checks a transaction against the cause registry.
type DonationVerifier interface {
	Verify(ctx context.Context, req appservices.VerifyDonationRequest) (domain.DonationMatch, error)
}

// CauseLister returns the aggregated cause registry.
type CauseLister interface {
	GetVerifiedCauses(ctx context.Context) domain.CauseRegistrySnapshot
}

// DonationRoutes exposes donation verification and the cause list.
type DonationRoutes struct {
	verifier DonationVerifier
	causes   CauseLister
}

// NewDonationRoutes constructs donation routes.
func NewDonationRoutes(verifier DonationVerifier, causes CauseLister) *DonationRoutes {
	return &DonationRoutes{verifier: verifier, causes: causes}
}

// RegisterRoutes registers donation endpoints.
func (r *DonationRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/verify_donation/", r.handleVerifyDonation)
	s.GET("/causes/", r.handleListCauses)
}

func (r *DonationRoutes) handleVerifyDonation(c echo.Context) error {
	var req verifyDonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	chain, _ := domain.ParseRequestChain(req.Chain)

	match, err := r.verifier.Verify(c.Request().Context(), appservices.VerifyDonationRequest{
		TxHash:  req.TxHash,
		Chain:   chain,
		ChainID: req.ChainID.int64Ptr(),
	})
	if err != nil {
		return respondError(c, err)
	}

	if match.Chain == domain.ChainSolana {
		return respondOK(c, solanaDonationResponse{
			Chain:    domain.ChainSolana,
			TxHash:   match.TxHash,
			To:       match.DestinationAddresses,
			Verified: match.Verified,
			Cause:    match.CauseName(),
		})
	}
	to := ""
	if len(match.DestinationAddresses) > 0 {
		to = match.DestinationAddresses[0]
	}
	return respondOK(c, evmDonationResponse{
		ChainID:  match.ChainID,
		TxHash:   match.TxHash,
		To:       to,
		Verified: match.Verified,
		Cause:    match.CauseName(),
	})
}

func (r *DonationRoutes) handleListCauses(c echo.Context) error {
	snapshot := r.causes.GetVerifiedCauses(c.Request().Context())
	return respondOK(c, causesResponse{
		Causes:        snapshot.Causes,
		FailedSources: snapshot.FailedSources,
	})
}
