package event

// Type identifies the type of domain event
type Type string

const (
	TypeOrderCommitted  Type = "order.committed"
	TypeOrderExported   Type = "order.exported"
	TypeOrderCancelled  Type = "order.cancelled"
	TypeStockShortfall  Type = "stock.shortfall"
	TypeCatalogImported Type = "catalog.imported"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeOrderCommitted,
		TypeOrderExported,
		TypeOrderCancelled,
		TypeStockShortfall,
		TypeCatalogImported:
		return true
	default:
		return false
	}
}
