package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

var (
	rawItem = ItemKey{ItemType: entity.ItemTypeRawMaterial, ItemCode: "RM-001", ItemName: "Steel Coil", UOM: "KG"}
	wipItem = ItemKey{ItemType: entity.ItemTypeWIP, ItemCode: "WP-001", ItemName: "Half Frame", UOM: "PC"}
	finItem = ItemKey{ItemType: entity.ItemTypeFinishedGoods, ItemCode: "FG-001", ItemName: "Frame", UOM: "PC"}
	capItem = ItemKey{ItemType: "HIBE2", ItemCode: "MC-001", ItemName: "Press Machine", UOM: "UN"}
)

func mustCalculate(t *testing.T, e *Engine, company, date string) CalculationResult {
	t.Helper()
	result, err := e.Calculate(context.Background(), CalculateInput{
		CompanyCode: company,
		TargetDate:  day(date),
	})
	require.NoError(t, err)
	return result
}

func snapshotFor(t *testing.T, store *fakeStore, company string, key ItemKey, date string) entity.StockDailySnapshot {
	t.Helper()
	snap, ok := store.snapshots[snapKey{
		company:  company,
		itemType: key.ItemType,
		itemCode: key.ItemCode,
		date:     date,
	}]
	require.True(t, ok, "expected snapshot for %s on %s", key.ItemCode, date)
	return snap
}

func TestCalculateRawMaterialFromBeginningBalance(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "50")
	store.addMaterialUsage("C001", rawItem, "2026-02-01", "30")

	engine := newTestEngine(store)
	result := mustCalculate(t, engine, "C001", "2026-02-01")

	assert.Equal(t, 1, result.ItemsProcessed)
	assert.Equal(t, 0, result.ItemsFailed)
	assert.Equal(t, string(entity.MethodTransaction), result.Method)
	assert.Empty(t, result.Validations)

	snap := snapshotFor(t, store, "C001", rawItem, "2026-02-01")
	assert.True(t, snap.OpeningBalance.Equal(types.MustQuantity("100")))
	assert.True(t, snap.IncomingQty.Equal(types.MustQuantity("50")))
	assert.True(t, snap.MaterialUsageQty.Equal(types.MustQuantity("30")))
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("120")))
	assert.Equal(t, entity.MethodTransaction, snap.CalculationMethod)
	assert.Equal(t, "Steel Coil", snap.ItemName)
	assert.Equal(t, "KG", snap.UOM)
}

func TestCalculateOpeningChainsFromPreviousClosing(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "50")
	store.addMaterialUsage("C001", rawItem, "2026-02-02", "20")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")
	mustCalculate(t, engine, "C001", "2026-02-02")

	day1 := snapshotFor(t, store, "C001", rawItem, "2026-02-01")
	day2 := snapshotFor(t, store, "C001", rawItem, "2026-02-02")

	assert.True(t, day2.OpeningBalance.Equal(day1.ClosingBalance))
	assert.True(t, day2.ClosingBalance.Equal(types.MustQuantity("130")))
}

func TestCalculateWipUsesObservedBalance(t *testing.T) {
	store := newFakeStore()
	store.addWip("C001", wipItem, "2026-02-01", "75.5")

	engine := newTestEngine(store)
	result := mustCalculate(t, engine, "C001", "2026-02-01")

	assert.Equal(t, string(entity.MethodWIPSnapshot), result.Method)

	snap := snapshotFor(t, store, "C001", wipItem, "2026-02-01")
	assert.Equal(t, entity.MethodWIPSnapshot, snap.CalculationMethod)
	assert.True(t, snap.WipBalanceQty.Equal(types.MustQuantity("75.5")))
	assert.True(t, snap.OpeningBalance.Equal(types.MustQuantity("75.5")))
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("75.5")))
}

func TestCalculateWipCarriesForwardWhenNotObserved(t *testing.T) {
	store := newFakeStore()
	store.addWip("C001", wipItem, "2026-02-01", "60")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")

	// No WIP record on the 2nd; the balance carries forward.
	_, err := engine.Calculate(context.Background(), CalculateInput{
		CompanyCode: "C001",
		TargetDate:  day("2026-02-02"),
		Exhaustive:  true,
	})
	require.NoError(t, err)

	snap := snapshotFor(t, store, "C001", wipItem, "2026-02-02")
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("60")))
	assert.True(t, snap.WipBalanceQty.Equal(types.MustQuantity("60")))
}

func TestCalculateFinishedGoodsFormula(t *testing.T) {
	store := newFakeStore()
	store.addProduction("C001", finItem, "2026-02-01", "40")
	store.addOutgoing("C001", finItem, "2026-02-01", "15")
	store.addAdjustment("C001", finItem, "2026-02-01", "-2")

	// Incoming exists but FERT ignores it.
	store.incoming[store.movKey("C001", finItem.ItemCode, day("2026-02-01"))] = types.MustQuantity("999")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")

	snap := snapshotFor(t, store, "C001", finItem, "2026-02-01")
	assert.True(t, snap.IncomingQty.IsZero(), "FERT must not pick up incoming")
	assert.True(t, snap.ProductionQty.Equal(types.MustQuantity("40")))
	assert.True(t, snap.OutgoingQty.Equal(types.MustQuantity("15")))
	assert.True(t, snap.AdjustmentQty.Equal(types.MustQuantity("-2")))
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("23")))
}

func TestCalculateCapitalGoodsVariant(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", capItem, "2026-01-31", "3")
	store.addIncoming("C001", capItem, "2026-02-01", "2")
	store.addOutgoing("C001", capItem, "2026-02-01", "1")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")

	snap := snapshotFor(t, store, "C001", capItem, "2026-02-01")
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("4")))
	assert.Equal(t, entity.MethodTransaction, snap.CalculationMethod)
}

func TestCalculateIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "50")

	engine := newTestEngine(store)
	first := mustCalculate(t, engine, "C001", "2026-02-01")
	firstSnap := snapshotFor(t, store, "C001", rawItem, "2026-02-01")

	second := mustCalculate(t, engine, "C001", "2026-02-01")
	secondSnap := snapshotFor(t, store, "C001", rawItem, "2026-02-01")

	assert.Equal(t, first.ItemsProcessed, second.ItemsProcessed)
	assert.True(t, firstSnap.ClosingBalance.Equal(secondSnap.ClosingBalance))
	assert.Len(t, store.snapshots, 1, "re-running must not duplicate rows")
}

func TestCalculateMixedMethodReported(t *testing.T) {
	store := newFakeStore()
	store.addIncoming("C001", rawItem, "2026-02-01", "10")
	store.addWip("C001", wipItem, "2026-02-01", "5")

	engine := newTestEngine(store)
	result := mustCalculate(t, engine, "C001", "2026-02-01")

	assert.Equal(t, 2, result.ItemsProcessed)
	assert.Equal(t, MethodMixed, result.Method)
}

func TestCalculateScopedToItemTypeUpserts(t *testing.T) {
	store := newFakeStore()
	store.addIncoming("C001", rawItem, "2026-02-01", "10")
	store.addProduction("C001", finItem, "2026-02-01", "20")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")
	require.Len(t, store.snapshots, 2)

	// A scoped recompute must leave the other type's row in place.
	rawType := entity.ItemTypeRawMaterial
	result, err := engine.Calculate(context.Background(), CalculateInput{
		CompanyCode: "C001",
		TargetDate:  day("2026-02-01"),
		Scope:       Scope{ItemType: &rawType},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsProcessed)
	assert.Equal(t, string(entity.MethodTransaction), result.Method)
	assert.Len(t, store.snapshots, 2)
}

func TestCalculateValidationFlagsNegativeStock(t *testing.T) {
	store := newFakeStore()
	store.addOutgoing("C001", capItem, "2026-02-01", "5")

	engine := newTestEngine(store)
	result := mustCalculate(t, engine, "C001", "2026-02-01")

	require.Len(t, result.Validations, 1)
	assert.Equal(t, ValidationNegativeStock, result.Validations[0].Type)
	assert.Equal(t, "MC-001", result.Validations[0].ItemCode)

	// Findings never block persistence.
	snap := snapshotFor(t, store, "C001", capItem, "2026-02-01")
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("-5")))
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	engine := newTestEngine(newFakeStore())

	_, err := engine.Calculate(context.Background(), CalculateInput{TargetDate: day("2026-02-01")})
	assert.Error(t, err)

	_, err = engine.Calculate(context.Background(), CalculateInput{CompanyCode: "C001"})
	assert.Error(t, err)

	bogus := entity.ItemTypeCode("XXXX")
	_, err = engine.Calculate(context.Background(), CalculateInput{
		CompanyCode: "C001",
		TargetDate:  day("2026-02-01"),
		Scope:       Scope{ItemType: &bogus},
	})
	assert.Error(t, err)
}

func TestCascadeRepairsForwardChain(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "50")
	store.addMaterialUsage("C001", rawItem, "2026-02-02", "20")
	store.addIncoming("C001", rawItem, "2026-02-03", "10")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")
	mustCalculate(t, engine, "C001", "2026-02-02")
	mustCalculate(t, engine, "C001", "2026-02-03")

	require.True(t, snapshotFor(t, store, "C001", rawItem, "2026-02-03").
		ClosingBalance.Equal(types.MustQuantity("140")))

	// A backdated receipt lands on the 1st; cascading from there must ripple
	// through every later materialized day.
	store.addIncoming("C001", rawItem, "2026-02-01", "25")

	results, err := engine.Cascade(context.Background(), CascadeInput{
		CompanyCode: "C001",
		StartDate:   day("2026-02-01"),
	})
	require.NoError(t, err)
	assert.Len(t, results, 3, "start date plus both later materialized dates")

	day1 := snapshotFor(t, store, "C001", rawItem, "2026-02-01")
	day2 := snapshotFor(t, store, "C001", rawItem, "2026-02-02")
	day3 := snapshotFor(t, store, "C001", rawItem, "2026-02-03")

	assert.True(t, day1.ClosingBalance.Equal(types.MustQuantity("175")))
	assert.True(t, day2.OpeningBalance.Equal(day1.ClosingBalance))
	assert.True(t, day3.OpeningBalance.Equal(day2.ClosingBalance))
	assert.True(t, day3.ClosingBalance.Equal(types.MustQuantity("165")))
}

func TestCascadeHonorsEndDate(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "10")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")
	mustCalculate(t, engine, "C001", "2026-02-02")
	mustCalculate(t, engine, "C001", "2026-02-03")

	end := day("2026-02-02")
	results, err := engine.Cascade(context.Background(), CascadeInput{
		CompanyCode: "C001",
		StartDate:   day("2026-02-01"),
		EndDate:     &end,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCascadeDoesNotFabricateDates(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100")
	store.addIncoming("C001", rawItem, "2026-02-01", "10")

	engine := newTestEngine(store)
	mustCalculate(t, engine, "C001", "2026-02-01")

	// Only the 1st is materialized; the cascade must not invent the 2nd.
	results, err := engine.Cascade(context.Background(), CascadeInput{
		CompanyCode: "C001",
		StartDate:   day("2026-02-01"),
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Len(t, store.snapshots, 1)
}

func TestConservationClosingMatchesFormula(t *testing.T) {
	store := newFakeStore()
	store.addBeginning("C001", rawItem, "2026-01-31", "100.25")
	store.addIncoming("C001", rawItem, "2026-02-01", "50.1")
	store.addMaterialUsage("C001", rawItem, "2026-02-01", "30.05")
	store.addAdjustment("C001", rawItem, "2026-02-01", "-0.3")

	engine := newTestEngine(store)
	result := mustCalculate(t, engine, "C001", "2026-02-01")
	assert.Empty(t, result.Validations)

	snap := snapshotFor(t, store, "C001", rawItem, "2026-02-01")
	assert.True(t, snap.ClosingBalance.Equal(snap.FormulaClosing()))
	assert.True(t, snap.ClosingBalance.Equal(types.MustQuantity("120")))
}
