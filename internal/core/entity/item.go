// Package entity provides core domain entities.
package entity

import "strings"

// ItemTypeCode classifies items in the bonded-warehouse ledger.
type ItemTypeCode string

const (
	// ItemTypeRawMaterial (ROH) - bahan baku
	ItemTypeRawMaterial ItemTypeCode = "ROH"
	// ItemTypeWIP (HALB) - work in progress; balance is observed, not derived
	ItemTypeWIP ItemTypeCode = "HALB"
	// ItemTypeFinishedGoods (FERT) - barang jadi
	ItemTypeFinishedGoods ItemTypeCode = "FERT"
	// ItemTypeCapitalGoods (HIBE) - machines and capital goods; variants carry
	// a suffix (HIBE1, HIBE2, ...) and share the HIBE formula
	ItemTypeCapitalGoods ItemTypeCode = "HIBE"
	// ItemTypeScrap (SCRAP) - waste and scrap
	ItemTypeScrap ItemTypeCode = "SCRAP"
)

// CalculationMethod tells how a snapshot's closing balance was produced.
type CalculationMethod string

const (
	// MethodTransaction derives the closing balance from aggregated movements.
	MethodTransaction CalculationMethod = "TRANSACTION"
	// MethodWIPSnapshot takes the balance from an externally observed WIP record.
	MethodWIPSnapshot CalculationMethod = "WIP_SNAPSHOT"
)

// IsCapitalGoods reports whether the code is a HIBE variant.
func (c ItemTypeCode) IsCapitalGoods() bool {
	return strings.HasPrefix(string(c), string(ItemTypeCapitalGoods))
}

// Method returns the calculation method for this item type.
// Only HALB uses WIP_SNAPSHOT; every other type derives from transactions.
func (c ItemTypeCode) Method() CalculationMethod {
	if c == ItemTypeWIP {
		return MethodWIPSnapshot
	}
	return MethodTransaction
}

// Valid reports whether the code is one of the known item classes.
func (c ItemTypeCode) Valid() bool {
	switch c {
	case ItemTypeRawMaterial, ItemTypeWIP, ItemTypeFinishedGoods, ItemTypeScrap:
		return true
	}
	return c.IsCapitalGoods()
}
