// Package snapshot provides the daily stock snapshot calculation engine.
package snapshot

import (
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
)

// Scope narrows a calculation pass to an item type and/or a single item.
// The zero value means "all items for the company and date".
type Scope struct {
	ItemType *entity.ItemTypeCode
	ItemCode *string
}

// IsFull reports whether the scope covers every item.
// Full-scope passes use delete-then-insert; narrowed passes upsert.
func (s Scope) IsFull() bool {
	return s.ItemType == nil && s.ItemCode == nil
}

// Matches reports whether an item key falls inside the scope.
func (s Scope) Matches(key ItemKey) bool {
	if s.ItemType != nil && key.ItemType != *s.ItemType {
		return false
	}
	if s.ItemCode != nil && key.ItemCode != *s.ItemCode {
		return false
	}
	return true
}

// ItemKey identifies one item needing recomputation, with the descriptive
// attributes carried into the snapshot row.
type ItemKey struct {
	ItemType entity.ItemTypeCode `db:"item_type_code"`
	ItemCode string              `db:"item_code"`
	ItemName string              `db:"item_name"`
	UOM      string              `db:"uom"`
}

// CompanyDate is one (company, business date) pair touched by recent
// transaction writes.
type CompanyDate struct {
	CompanyCode string    `db:"company_code"`
	Date        time.Time `db:"touch_date"`
}

// CalculateInput describes one calculation pass.
type CalculateInput struct {
	CompanyCode string
	TargetDate  time.Time
	Scope       Scope

	// Exhaustive widens item enumeration to every item the company has ever
	// snapshotted, not only items with rows on or after the target date.
	// The nightly EOD pass sets this so dormant items keep getting daily rows.
	Exhaustive bool
}

// CascadeInput describes a forward recomputation starting at StartDate.
type CascadeInput struct {
	CompanyCode string
	StartDate   time.Time
	// EndDate optionally bounds the cascade (inclusive). Nil means every
	// later materialized date.
	EndDate *time.Time
	Scope   Scope
}

// CalculationResult summarizes one calculation pass.
type CalculationResult struct {
	CompanyCode     string             `json:"companyCode"`
	SnapshotDate    time.Time          `json:"snapshotDate"`
	ItemsProcessed  int                `json:"itemsProcessed"`
	ItemsFailed     int                `json:"itemsFailed"`
	Method          string             `json:"calculationMethod"`
	ExecutionTimeMs int64              `json:"executionTimeMs"`
	Validations     []ValidationResult `json:"validationResults"`
}

// MethodMixed is reported when a pass produced rows under both calculation
// methods. Persisted rows always carry their own concrete method.
const MethodMixed = "MIXED"
