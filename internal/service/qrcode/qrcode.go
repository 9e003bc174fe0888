package qrcode

import (
	"encoding/json"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
)

const (
	DefaultSize = 256
	minSize     = 64
	maxSize     = 1024
)

// Payload returns the text encoded into a product's QR symbol: the full JSON
// form of the record.
func Payload(record models.ProductRecord) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}
	return payload, nil
}

// PNG renders the record's QR symbol as a square PNG of size pixels.
func PNG(record models.ProductRecord, size int) ([]byte, error) {
	payload, err := Payload(record)
	if err != nil {
		return nil, err
	}
	png, err := goqrcode.Encode(string(payload), goqrcode.Medium, clampSize(size))
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}

func clampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < minSize:
		return minSize
	case size > maxSize:
		return maxSize
	default:
		return size
	}
}
