package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"

	"github.com/fr0stylo/trustguard/internal/app/domain"
)

const (
	solanaSignatureLen = 64
	solanaAddressLen   = 32
)

// RequestValidator adapts go-playground/validator to echo.Validator and
// reports the first failure as a *domain.ValidationError.
type RequestValidator struct {
	validate *validator.Validate
}

// NewValidator registers the chain-specific tags: sol_sig, sol_addr and evm_tx.
func NewValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("sol_sig", func(fl validator.FieldLevel) bool {
		return isBase58Len(fl.Field().String(), solanaSignatureLen)
	})
	_ = v.RegisterValidation("sol_addr", func(fl validator.FieldLevel) bool {
		return isBase58Len(fl.Field().String(), solanaAddressLen)
	})
	_ = v.RegisterValidation("evm_tx", func(fl validator.FieldLevel) bool {
		return isEVMTxHash(fl.Field().String())
	})
	v.RegisterStructValidation(verifyDonationStructLevel, verifyDonationRequest{})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.Invalid(fe.Field(), describeTag(fe))
	}
	return domain.Invalid("", err.Error())
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eth_addr":
		return "must be a 0x-prefixed 20-byte hex address"
	case "evm_tx":
		return "must be a 0x-prefixed 32-byte hex transaction hash"
	case "sol_sig":
		return "must be a base58 transaction signature"
	case "sol_addr":
		return "must be a base58 account address"
	case "base64":
		return "must be base64 encoded"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "number":
		return "must be a decimal number"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func isBase58Len(value string, size int) bool {
	decoded, err := base58.Decode(value)
	return err == nil && len(decoded) == size
}

func isEVMTxHash(value string) bool {
	decoded, err := hexutil.Decode(value)
	return err == nil && len(decoded) == common.HashLength
}

// verifyDonationStructLevel checks tx_hash against the format of the
// requested chain.
func verifyDonationStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(verifyDonationRequest)
	if req.TxHash == "" {
		return
	}
	chain, ok := domain.ParseRequestChain(req.Chain)
	if !ok {
		return
	}
	switch chain {
	case domain.ChainSolana:
		if !isBase58Len(req.TxHash, solanaSignatureLen) {
			sl.ReportError(req.TxHash, "tx_hash", "TxHash", "sol_sig", "")
		}
	case domain.ChainEVM:
		if !isEVMTxHash(req.TxHash) {
			sl.ReportError(req.TxHash, "tx_hash", "TxHash", "evm_tx", "")
		}
	}
}

// ChainIDParam accepts a chain id as a JSON integer, a decimal string or a
// form value. Anything else is rejected at bind time.
type ChainIDParam int64

// UnmarshalJSON implements json.Unmarshaler.
func (p *ChainIDParam) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	id, err := domain.ParseChainID(raw)
	if err != nil {
		return domain.Invalid("chain_id", "must be an integer")
	}
	*p = ChainIDParam(id)
	return nil
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query values.
func (p *ChainIDParam) UnmarshalParam(src string) error {
	id, err := domain.ParseChainID(src)
	if err != nil {
		return domain.Invalid("chain_id", "must be an integer")
	}
	*p = ChainIDParam(id)
	return nil
}

func (p *ChainIDParam) int64Ptr() *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

// bindAndValidate decodes the request into dst and validates it. Decoding
// failures become validation errors.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return validationErr
		}
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return domain.Invalid("", "malformed request body: "+fmt.Sprint(httpErr.Message))
		}
		return domain.Invalid("", "malformed request body: "+err.Error())
	}
	return c.Validate(dst)
}
