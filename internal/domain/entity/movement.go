package entity

import "time"

// StockMovement is an audit row written whenever committed stock changes.
type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	BatchID        string    `db:"batch_id" json:"batch_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int64     `db:"quantity_change" json:"quantity_change"`
	ReferenceType  string    `db:"reference_type" json:"reference_type"`
	ReferenceID    string    `db:"reference_id" json:"reference_id"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
