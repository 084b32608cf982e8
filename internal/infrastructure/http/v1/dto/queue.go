package dto

// EnqueueRequest requests a deferred recalculation.
type EnqueueRequest struct {
	CompanyCode string  `json:"companyCode" binding:"required"`
	RecalcDate  string  `json:"recalcDate" binding:"required"` // YYYY-MM-DD
	ItemType    *string `json:"itemType,omitempty"`
	ItemCode    *string `json:"itemCode,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// QueueQuery filters queue listings.
type QueueQuery struct {
	CompanyCode string  `form:"companyCode"`
	Status      *string `form:"status"`
	Limit       int     `form:"limit"`
}
