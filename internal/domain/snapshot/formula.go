package snapshot

import (
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// BalanceFormula describes how one item type's daily balance is derived.
// This is the single dispatch point: the inline calculate path, the EOD
// pass and the queue worker all resolve their formula here.
type BalanceFormula struct {
	Method entity.CalculationMethod

	// Term selection for the TRANSACTION method. Terms an item type does not
	// use stay zero by construction; adjustments apply to every type.
	UsesIncoming      bool
	UsesOutgoing      bool
	UsesMaterialUsage bool
	UsesProduction    bool
}

// FormulaFor returns the balance formula for an item type.
//
//	ROH    opening + incoming - material_usage + adjustment
//	FERT   opening + production - outgoing + adjustment
//	HIBE*  opening + incoming - outgoing + adjustment
//	SCRAP  opening + incoming - outgoing + adjustment
//	HALB   externally observed WIP balance (not derived)
func FormulaFor(code entity.ItemTypeCode) BalanceFormula {
	switch {
	case code == entity.ItemTypeWIP:
		return BalanceFormula{Method: entity.MethodWIPSnapshot}
	case code == entity.ItemTypeRawMaterial:
		return BalanceFormula{
			Method:            entity.MethodTransaction,
			UsesIncoming:      true,
			UsesMaterialUsage: true,
		}
	case code == entity.ItemTypeFinishedGoods:
		return BalanceFormula{
			Method:         entity.MethodTransaction,
			UsesProduction: true,
			UsesOutgoing:   true,
		}
	default:
		// HIBE variants and SCRAP share the plain in/out formula.
		return BalanceFormula{
			Method:       entity.MethodTransaction,
			UsesIncoming: true,
			UsesOutgoing: true,
		}
	}
}

// Movements holds the aggregated daily terms for one item.
type Movements struct {
	Incoming      types.Quantity
	Outgoing      types.Quantity
	MaterialUsage types.Quantity
	Production    types.Quantity
	Adjustment    types.Quantity
}

// Closing applies the transaction formula:
// closing = opening + incoming + production - outgoing - material_usage + adjustment.
func (f BalanceFormula) Closing(opening types.Quantity, m Movements) types.Quantity {
	return opening.
		Add(m.Incoming).
		Add(m.Production).
		Sub(m.Outgoing).
		Sub(m.MaterialUsage).
		Add(m.Adjustment)
}
