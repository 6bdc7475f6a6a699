package entity

// Document kinds handled by the billing engine
const (
	DocumentKindInvoice  = "INVOICE"  // sales invoice
	DocumentKindChallan  = "CHALLAN"  // delivery challan
	DocumentKindPurchase = "PURCHASE" // purchase entry
)

// Document-level discount kinds
const (
	DiscountKindPercent = "PERCENT"
	DiscountKindAmount  = "AMOUNT"
)

// Status constants for Order
const (
	OrderStatusCommitted = "COMMITTED"
	OrderStatusExported  = "EXPORTED"
	OrderStatusCancelled = "CANCELLED"
)

// Stock movement types
const (
	MovementTypeSale     = "SALE"
	MovementTypeChallan  = "CHALLAN"
	MovementTypePurchase = "PURCHASE"

	// MovementTypeCancellation reverses the movements of a cancelled order
	MovementTypeCancellation = "CANCELLATION"
)

// Reference types recorded on stock movements
const (
	ReferenceTypeOrder             = "ORDER"
	ReferenceTypeOrderCancellation = "ORDER_CANCELLATION"
)

// IsValidDocumentKind reports whether kind is one of the known document kinds.
func IsValidDocumentKind(kind string) bool {
	switch kind {
	case DocumentKindInvoice, DocumentKindChallan, DocumentKindPurchase:
		return true
	default:
		return false
	}
}

// MovementTypeFor maps a document kind to the stock movement it produces.
func MovementTypeFor(kind string) string {
	switch kind {
	case DocumentKindChallan:
		return MovementTypeChallan
	case DocumentKindPurchase:
		return MovementTypePurchase
	default:
		return MovementTypeSale
	}
}

// StockDirection is the sign of the stock change a committed document causes:
// purchases add stock, sales and challans remove it.
func StockDirection(kind string) int64 {
	if kind == DocumentKindPurchase {
		return 1
	}
	return -1
}
