package entity

import (
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// StockDailySnapshot is one persisted (company, item type, item, date)
// balance record. Rows are created or overwritten whole by a calculation
// pass; they are never partially updated.
type StockDailySnapshot struct {
	// Key
	CompanyCode  string       `db:"company_code" json:"companyCode"`
	ItemTypeCode ItemTypeCode `db:"item_type_code" json:"itemTypeCode"`
	ItemCode     string       `db:"item_code" json:"itemCode"`
	SnapshotDate time.Time    `db:"snapshot_date" json:"snapshotDate"`

	// Descriptive attributes carried from the transaction sources
	ItemName string `db:"item_name" json:"itemName"`
	UOM      string `db:"uom" json:"uom"`

	// Balance components
	OpeningBalance   types.Quantity `db:"opening_balance" json:"openingBalance"`
	IncomingQty      types.Quantity `db:"incoming_qty" json:"incomingQty"`
	OutgoingQty      types.Quantity `db:"outgoing_qty" json:"outgoingQty"`
	MaterialUsageQty types.Quantity `db:"material_usage_qty" json:"materialUsageQty"`
	ProductionQty    types.Quantity `db:"production_qty" json:"productionQty"`
	AdjustmentQty    types.Quantity `db:"adjustment_qty" json:"adjustmentQty"`
	WipBalanceQty    types.Quantity `db:"wip_balance_qty" json:"wipBalanceQty"`
	ClosingBalance   types.Quantity `db:"closing_balance" json:"closingBalance"`

	CalculationMethod CalculationMethod `db:"calculation_method" json:"calculationMethod"`
	CalculatedAt      time.Time         `db:"calculated_at" json:"calculatedAt"`
}

// FormulaClosing recomputes the closing balance from the persisted components.
// For TRANSACTION rows this must match ClosingBalance within tolerance.
func (s *StockDailySnapshot) FormulaClosing() types.Quantity {
	return s.OpeningBalance.
		Add(s.IncomingQty).
		Add(s.ProductionQty).
		Sub(s.OutgoingQty).
		Sub(s.MaterialUsageQty).
		Add(s.AdjustmentQty)
}

// BeginningBalance is an externally supplied anchor balance, used only
// when no prior snapshot exists for the item.
type BeginningBalance struct {
	CompanyCode  string         `db:"company_code" json:"companyCode"`
	ItemCode     string         `db:"item_code" json:"itemCode"`
	ItemTypeCode ItemTypeCode   `db:"item_type_code" json:"itemTypeCode"`
	ItemName     string         `db:"item_name" json:"itemName"`
	UOM          string         `db:"uom" json:"uom"`
	BalanceQty   types.Quantity `db:"balance_qty" json:"balanceQty"`
	BalanceDate  time.Time      `db:"balance_date" json:"balanceDate"`
}
