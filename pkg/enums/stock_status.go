package enums

// StockStatus is the advisory classification of a balance against the
// product's min/max thresholds, surfaced only in reporting.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusLow        StockStatus = "LOW_STOCK"
	StockStatusNormal     StockStatus = "NORMAL"
	StockStatusOverstock  StockStatus = "OVERSTOCK"
)

// ClassifyStock maps a quantity onto its advisory status. Low stock compares
// with <= against the minimum level.
func ClassifyStock(quantity, minLevel, maxLevel int) StockStatus {
	switch {
	case quantity == 0:
		return StockStatusOutOfStock
	case quantity <= minLevel:
		return StockStatusLow
	case maxLevel > 0 && quantity > maxLevel:
		return StockStatusOverstock
	}
	return StockStatusNormal
}
