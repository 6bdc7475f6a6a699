package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Validation errors
	ErrNoCustomer          = errors.New("customer is required")
	ErrNoLineItems         = errors.New("document has no line items")
	ErrNegativeQuantity    = errors.New("quantity cannot be negative")
	ErrNegativeRate        = errors.New("rate cannot be negative")
	ErrDiscountOutOfRange  = errors.New("discount percent must be between 0 and 100")
	ErrUnrecognizedTaxRate = errors.New("unrecognized GST rate")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrInvalidDiscountKind = errors.New("invalid document discount kind")
	ErrFractionalQuantity  = errors.New("stock quantity must be a whole number")
	ErrInvalidDocumentKind = errors.New("invalid document kind")

	// Stock errors
	ErrNoStock           = errors.New("no batch with stock for product")
	ErrInsufficientStock = errors.New("requested quantity exceeds batch stock")
	ErrBatchNotSelected  = errors.New("no batch selected for line")
	ErrBatchMismatch     = errors.New("batch does not belong to product")
	ErrStockConflict     = errors.New("batch stock changed before commit")

	// Calculation errors
	ErrNonFinite          = errors.New("non-finite numeric value")
	ErrBreakupMismatch    = errors.New("tax breakup does not add up to total tax")
	ErrRoundOffOutOfRange = errors.New("round-off outside half unit")
)

// ValidationError reports a missing selection or an out-of-range input.
type ValidationError struct {
	Err     error
	Field   string
	Details string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StockError reports a quantity that the selected or available stock cannot cover.
type StockError struct {
	Err       error
	ProductID string
	BatchID   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	if e.BatchID == "" {
		return fmt.Sprintf("%s: product %s", e.Err.Error(), e.ProductID)
	}
	return fmt.Sprintf("%s: batch %s requested %s available %s",
		e.Err.Error(), e.BatchID, e.Requested.String(), e.Available.String())
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// CalculationError signals a result the calculator should never produce.
type CalculationError struct {
	Err     error
	Details string
}

func (e *CalculationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStock reports whether err carries a StockError.
func IsStock(err error) bool {
	var s *StockError
	return errors.As(err, &s)
}

// IsCalculation reports whether err carries a CalculationError.
func IsCalculation(err error) bool {
	var c *CalculationError
	return errors.As(err, &c)
}
