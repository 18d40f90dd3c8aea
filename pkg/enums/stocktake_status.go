package enums

import "fmt"

// StocktakeStatus tracks the lifecycle of a counting session. Active sessions
// may transition to completed or cancelled; both are terminal.
type StocktakeStatus string

const (
	StocktakeStatusActive    StocktakeStatus = "active"
	StocktakeStatusCompleted StocktakeStatus = "completed"
	StocktakeStatusCancelled StocktakeStatus = "cancelled"
)

var validStocktakeStatuses = []StocktakeStatus{
	StocktakeStatusActive,
	StocktakeStatusCompleted,
	StocktakeStatusCancelled,
}

// String implements fmt.Stringer.
func (s StocktakeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StocktakeStatus.
func (s StocktakeStatus) IsValid() bool {
	for _, candidate := range validStocktakeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s StocktakeStatus) IsTerminal() bool {
	return s == StocktakeStatusCompleted || s == StocktakeStatusCancelled
}

// ParseStocktakeStatus converts raw input into a StocktakeStatus.
func ParseStocktakeStatus(value string) (StocktakeStatus, error) {
	for _, candidate := range validStocktakeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stocktake status %q", value)
}
