package dto

// LowStockAlert lists an item at or below its threshold.
type LowStockAlert struct {
	ItemID            string `json:"item_id"`
	Name              string `json:"name"`
	CurrentStock      int    `json:"current_stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// StockDrift reports an item whose counter disagrees with its ledger.
type StockDrift struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	LedgerSum    int    `json:"ledger_sum"`
	Difference   int    `json:"difference"`
}

type ReconcileResponse struct {
	ItemsChecked int          `json:"items_checked"`
	Consistent   bool         `json:"consistent"`
	Drifts       []StockDrift `json:"drifts"`
}
