package upi

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentString(t *testing.T) {
	s := PaymentString(PaymentRequest{PayeeAddress: "store@bank", PayeeName: "Blue Buff", Amount: 500, Currency: "INR"})
	assert.Equal(t, "upi://pay?pa=store@bank&pn=Blue%20Buff&am=500&cu=INR", s)

	s = PaymentString(PaymentRequest{PayeeAddress: "store@bank", PayeeName: "Shop", Amount: 99.5, Currency: "INR"})
	assert.Contains(t, s, "am=99.5&")
}

func TestEncoder_Generate(t *testing.T) {
	enc := NewEncoder(128)
	code, err := enc.Generate(context.Background(), PaymentRequest{PayeeAddress: "store@bank", PayeeName: "Shop", Amount: 500, Currency: "INR"})
	require.NoError(t, err)

	assert.Contains(t, code.PaymentString, "am=500")
	assert.True(t, bytes.HasPrefix(code.PNG, []byte("\x89PNG")))

	png, err := DecodeDataURL(code.DataURL)
	require.NoError(t, err)
	assert.Equal(t, code.PNG, png)
}

func TestEncoder_GenerateRejects(t *testing.T) {
	enc := NewEncoder(0)

	_, err := enc.Generate(context.Background(), PaymentRequest{Amount: 500})
	assert.Error(t, err)

	_, err = enc.Generate(context.Background(), PaymentRequest{PayeeAddress: "a@b", Amount: 0})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = enc.Generate(ctx, PaymentRequest{PayeeAddress: "a@b", Amount: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeDataURL_Rejects(t *testing.T) {
	_, err := DecodeDataURL("data:text/plain;base64,aGk=")
	assert.Error(t, err)
}
