package dto

// JobLogQuery filters batch job log listings.
type JobLogQuery struct {
	JobType *string `form:"jobType"`
	Limit   int     `form:"limit"`
}
