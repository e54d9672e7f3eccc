package domain

import "time"

// TransactionType distinguishes pass purchases from booth passages.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypePassage  TransactionType = "PASSAGE"
)

// Transaction is the immutable audit record of toll activity. Created once
// by the purchase flow or the passage evaluator, never updated, never
// consulted for admission decisions.
type Transaction struct {
	ID          string          `json:"id"`
	BoothID     string          `json:"booth_id"`
	TollID      string          `json:"toll_id"`
	VehicleReg  string          `json:"vehicle_reg"`
	VehicleType VehicleType     `json:"vehicle_type"`
	Type        TransactionType `json:"type"`
	PassID      *string         `json:"pass_id,omitempty"`
	// Amount is the price for purchases and 0 for passages - passage does
	// not charge, the cost was paid at purchase.
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks transaction data.
func (t *Transaction) Validate() error {
	if t.TollID == "" || t.BoothID == "" || t.VehicleReg == "" {
		return ErrInvalidTransactionData
	}
	if t.Type != TransactionTypePurchase && t.Type != TransactionTypePassage {
		return ErrInvalidTransactionData
	}
	if t.Amount < 0 {
		return ErrInvalidTransactionData
	}
	return nil
}
