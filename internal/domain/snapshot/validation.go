package snapshot

import (
	"fmt"
	"time"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
)

// ValidationType classifies a diagnostic finding.
type ValidationType string

const (
	// ValidationBalanceMismatch - a TRANSACTION row whose closing balance
	// diverges from the formula-recomputed value beyond tolerance.
	ValidationBalanceMismatch ValidationType = "BALANCE_MISMATCH"
	// ValidationNegativeStock - a row with a negative closing balance.
	ValidationNegativeStock ValidationType = "NEGATIVE_STOCK"
)

// ValidationResult is one diagnostic finding for operators and monitoring.
type ValidationResult struct {
	Type         ValidationType      `json:"type"`
	CompanyCode  string              `json:"companyCode"`
	ItemTypeCode entity.ItemTypeCode `json:"itemTypeCode"`
	ItemCode     string              `json:"itemCode"`
	SnapshotDate time.Time           `json:"snapshotDate"`
	Expected     types.Quantity      `json:"expected"`
	Actual       types.Quantity      `json:"actual"`
	Message      string              `json:"message"`
}

// Checker runs post-hoc sanity checks over a computed scope. Findings are
// purely observational: they never fail the pass and never block
// persistence of the rows they describe.
type Checker struct{}

// NewChecker creates a validation checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check inspects the rows of one calculation pass.
func (c *Checker) Check(rows []entity.StockDailySnapshot) []ValidationResult {
	var findings []ValidationResult

	for i := range rows {
		row := &rows[i]

		if row.CalculationMethod == entity.MethodTransaction {
			expected := row.FormulaClosing()
			if !types.WithinTolerance(expected, row.ClosingBalance) {
				findings = append(findings, ValidationResult{
					Type:         ValidationBalanceMismatch,
					CompanyCode:  row.CompanyCode,
					ItemTypeCode: row.ItemTypeCode,
					ItemCode:     row.ItemCode,
					SnapshotDate: row.SnapshotDate,
					Expected:     expected,
					Actual:       row.ClosingBalance,
					Message: fmt.Sprintf("closing balance %s diverges from formula value %s",
						row.ClosingBalance.String(), expected.String()),
				})
			}
		}

		if row.ClosingBalance.IsNegative() {
			findings = append(findings, ValidationResult{
				Type:         ValidationNegativeStock,
				CompanyCode:  row.CompanyCode,
				ItemTypeCode: row.ItemTypeCode,
				ItemCode:     row.ItemCode,
				SnapshotDate: row.SnapshotDate,
				Expected:     types.ZeroQuantity(),
				Actual:       row.ClosingBalance,
				Message:      fmt.Sprintf("negative closing balance %s", row.ClosingBalance.String()),
			})
		}
	}

	return findings
}
