// Package upi renders scannable UPI payment codes.
package upi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/bluebuff/storefront/internal/pricing"
)

const dataURLPrefix = "data:image/png;base64,"

// PaymentRequest is what gets encoded into the code.
type PaymentRequest struct {
	PayeeAddress string // VPA, e.g. store@bank
	PayeeName    string
	Amount       float64
	Currency     string
}

// Code is a rendered payment code.
type Code struct {
	PaymentString string
	PNG           []byte
	DataURL       string
}

// PaymentString builds the upi://pay deep link.
func PaymentString(req PaymentRequest) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=%s",
		url.PathEscape(req.PayeeAddress),
		url.PathEscape(req.PayeeName),
		pricing.FormatAmount(req.Amount),
		req.Currency,
	)
}

// Encoder renders payment strings as PNG QR codes.
type Encoder struct {
	size int
}

// NewEncoder returns an Encoder producing size x size images.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{size: size}
}

// Generate renders the payment code for req.
func (e *Encoder) Generate(ctx context.Context, req PaymentRequest) (*Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.PayeeAddress == "" {
		return nil, errors.New("payee address is not configured")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", pricing.FormatAmount(req.Amount))
	}

	s := PaymentString(req)
	png, err := qrcode.Encode(s, qrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment code: %w", err)
	}
	return &Code{
		PaymentString: s,
		PNG:           png,
		DataURL:       dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// DecodeDataURL returns the PNG bytes of a code's data URL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, errors.New("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
}
