package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptIngestedMessage announces that a raw receipt was stored.
// The worker reloads the payload from the repository by ID.
type ReceiptIngestedMessage struct {
	ReceiptID string    `json:"receipt_id"`
	Merchant  string    `json:"merchant,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptIngestedMessage(receiptID, merchant string) *ReceiptIngestedMessage {
	return &ReceiptIngestedMessage{
		ReceiptID: receiptID,
		Merchant:  merchant,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReceiptIngestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReceiptIngestedMessageFromJSON decodes a message body.
func ReceiptIngestedMessageFromJSON(data []byte) (*ReceiptIngestedMessage, error) {
	var msg ReceiptIngestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
