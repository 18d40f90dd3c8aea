package enums

import "fmt"

// TransactionType classifies a stock ledger entry.
type TransactionType string

const (
	TransactionTypeInbound    TransactionType = "inbound"
	TransactionTypeOutbound   TransactionType = "outbound"
	TransactionTypeMove       TransactionType = "move"
	TransactionTypeAdjustment TransactionType = "stocktake-adjustment"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeInbound,
	TransactionTypeOutbound,
	TransactionTypeMove,
	TransactionTypeAdjustment,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// CodePrefix returns the prefix used when generating human-facing
// transaction codes for this type.
func (t TransactionType) CodePrefix() string {
	switch t {
	case TransactionTypeInbound:
		return "IN"
	case TransactionTypeOutbound:
		return "OUT"
	case TransactionTypeMove:
		return "MOV"
	case TransactionTypeAdjustment:
		return "ADJ"
	}
	return "TXN"
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
