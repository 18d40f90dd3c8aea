package enums

import "fmt"

// StockDirection records which way a stocktake adjustment moved the balance.
// Ledger quantities are stored as positive magnitudes; the direction carries
// the sign.
type StockDirection string

const (
	StockDirectionUp   StockDirection = "up"
	StockDirectionDown StockDirection = "down"
)

// String implements fmt.Stringer.
func (d StockDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known StockDirection.
func (d StockDirection) IsValid() bool {
	return d == StockDirectionUp || d == StockDirectionDown
}

// Sign returns +1 for up and -1 for down.
func (d StockDirection) Sign() int {
	if d == StockDirectionDown {
		return -1
	}
	return 1
}

// ParseStockDirection converts raw input into a StockDirection.
func ParseStockDirection(value string) (StockDirection, error) {
	switch StockDirection(value) {
	case StockDirectionUp:
		return StockDirectionUp, nil
	case StockDirectionDown:
		return StockDirectionDown, nil
	}
	return "", fmt.Errorf("invalid stock direction %q", value)
}
