// Package qr generates and validates the QR labels attached to items.
package qr

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"asset-inventory-backend/internal/model"
)

// payloadType discriminates our labels from arbitrary scanned codes.
const payloadType = "inventory_item"

// Payload is the JSON document embedded in an item's QR label.
type Payload struct {
	ID              int64  `json:"id"`
	InventoryNumber string `json:"inventory_number"`
	Name            string `json:"name"`
	Type            string `json:"type"`
}

// ItemPNG renders the QR label for an item as a PNG of the given pixel size.
func ItemPNG(item *model.Item, size int) ([]byte, error) {
	payload := Payload{
		ID:              item.ID,
		InventoryNumber: item.InventoryNumber,
		Name:            item.Name,
		Type:            payloadType,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(b), qrcode.Medium, size)
}

// DecodePayload parses scanned QR content and verifies it is one of ours.
func DecodePayload(content string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("not an inventory label: %w", err)
	}
	if p.Type != payloadType {
		return nil, fmt.Errorf("not an inventory label: type %q", p.Type)
	}
	if p.ID == 0 || p.InventoryNumber == "" {
		return nil, fmt.Errorf("inventory label is missing identifiers")
	}
	return &p, nil
}
