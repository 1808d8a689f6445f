package routes

import (
	"github.com/labstack/echo/v4"

	appservices "github.com/fr0stylo/trustguard/internal/app/services"
)

type checkTokenRequest struct {
	Address string        `json:"address" form:"address" validate:"required,eth_addr"`
	ChainID *ChainIDParam `json:"chain_id" form:"chain_id" validate:"required,gt=0"`
}

type checkWalletRequest struct {
	Address string        `json:"address" form:"address" validate:"required,eth_addr"`
	ChainID *ChainIDParam `json:"chain_id" form:"chain_id" validate:"required,gt=0"`
}

type checkNFTRequest struct {
	Contract string        `json:"contract" form:"contract" validate:"required,eth_addr"`
	TokenID  string        `json:"token_id" form:"token_id" validate:"required,number,max=78"`
	ChainID  *ChainIDParam `json:"chain_id" form:"chain_id" validate:"required,gt=0"`
}

type checkURLRequest struct {
	URL string `json:"url" form:"url" validate:"required,url,max=2048"`
}

type simulateSolTxRequest struct {
	TxBase64 string `json:"tx_base64" form:"tx_base64" validate:"required,base64"`
}

type checkSolTokenRequest struct {
	Address string `json:"address" form:"address" validate:"required,sol_addr"`
}

// RiskRoutes exposes the single-asset risk tools.
type RiskRoutes struct {
	dispatcher *appservices.RiskDispatcher
}

// NewRiskRoutes constructs risk routes.
func NewRiskRoutes(dispatcher *appservices.RiskDispatcher) *RiskRoutes {
	return &RiskRoutes{dispatcher: dispatcher}
}

// RegisterRoutes registers risk endpoints.
func (r *RiskRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/check_token/", r.handleCheckToken)
	s.POST("/check_wallet/", r.handleCheckWallet)
	s.POST("/check_nft/", r.handleCheckNFT)
	s.POST("/check_url/", r.handleCheckURL)
	s.POST("/simulate_sol_tx/", r.handleSimulateSolTx)
	s.POST("/check_sol_token/", r.handleCheckSolToken)
}

func (r *RiskRoutes) handleCheckToken(c echo.Context) error {
	var req checkTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.CheckToken(c.Request().Context(), int64(*req.ChainID), req.Address)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}

func (r *RiskRoutes) handleCheckWallet(c echo.Context) error {
	var req checkWalletRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.CheckWallet(c.Request().Context(), int64(*req.ChainID), req.Address)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}

func (r *RiskRoutes) handleCheckNFT(c echo.Context) error {
	var req checkNFTRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.CheckNFT(c.Request().Context(), int64(*req.ChainID), req.Contract, req.TokenID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}

func (r *RiskRoutes) handleCheckURL(c echo.Context) error {
	var req checkURLRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.CheckURL(c.Request().Context(), req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}

func (r *RiskRoutes) handleSimulateSolTx(c echo.Context) error {
	var req simulateSolTxRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.SimulateSolanaTx(c.Request().Context(), req.TxBase64)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}

func (r *RiskRoutes) handleCheckSolToken(c echo.Context) error {
	var req checkSolTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	report, err := r.dispatcher.CheckSolanaToken(c.Request().Context(), req.Address)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, report)
}
