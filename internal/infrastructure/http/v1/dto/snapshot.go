package dto

// CalculateRequest triggers one calculation pass.
type CalculateRequest struct {
	CompanyCode string  `json:"companyCode" binding:"required"`
	TargetDate  string  `json:"targetDate" binding:"required"` // YYYY-MM-DD
	ItemType    *string `json:"itemType,omitempty"`
	ItemCode    *string `json:"itemCode,omitempty"`
}

// CascadeRequest triggers a forward recomputation.
type CascadeRequest struct {
	CompanyCode string  `json:"companyCode" binding:"required"`
	StartDate   string  `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate     *string `json:"endDate,omitempty"`
	ItemType    *string `json:"itemType,omitempty"`
	ItemCode    *string `json:"itemCode,omitempty"`
}

// SnapshotQuery filters snapshot listings.
type SnapshotQuery struct {
	CompanyCode string  `form:"companyCode" binding:"required"`
	Date        string  `form:"date" binding:"required"` // YYYY-MM-DD
	ItemType    *string `form:"itemType"`
	ItemCode    *string `form:"itemCode"`
}
