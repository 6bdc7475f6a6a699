package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payload keys shared by publishers and handlers
const (
	PayloadDocumentKind = "document_kind"
	PayloadCustomerID   = "customer_id"
	PayloadNetAmount    = "net_amount"
	PayloadLineCount    = "line_count"
	PayloadProductID    = "product_id"
	PayloadRequested    = "requested"
	PayloadAvailable    = "available"
	PayloadFilePath     = "file_path"
	PayloadProducts     = "products"
	PayloadBatches      = "batches"
	PayloadStatus       = "status"
	PayloadReason       = "reason"
)

// Event represents a domain event about one aggregate, usually an order.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	AggregateID   string                 `json:"aggregate_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, aggregateID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, aggregateID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, aggregateID string, payload map[string]interface{}, correlationID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AggregateID:   aggregateID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with key set in its payload
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayloadDecimal retrieves a money or quantity value from the payload.
// Strings are parsed so payloads that went through JSON still read back.
func (e *Event) GetPayloadDecimal(key string) decimal.Decimal {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case decimal.Decimal:
			return v
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		case int64:
			return decimal.NewFromInt(v)
		case int:
			return decimal.NewFromInt(int64(v))
		case float64:
			return decimal.NewFromFloat(v)
		}
	}
	return decimal.Zero
}
