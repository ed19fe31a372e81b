package models

import (
	"path"
	"time"
)

const (
	// ReferenceCodeLength is the fixed size of a public tracking code.
	ReferenceCodeLength = 12
	// ReferenceCodeAlphabet lists the characters a tracking code is drawn from.
	ReferenceCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// RequestPageSize is the number of requests shown per dashboard page.
	RequestPageSize = 15
)

// RequestStatus is the derived lifecycle state of a reset request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusProcessed RequestStatus = "PROCESSED"
)

// ResetRequest is a public user's password-reset submission.
type ResetRequest struct {
	ID            int64     `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Department    string    `db:"department" json:"department"`
	Email         string    `db:"email" json:"email"`
	UploadedFile  string    `db:"uploaded_file" json:"uploaded_file"`
	SubmittedAt   time.Time `db:"submitted_at" json:"submitted_at"`
	Processed     bool      `db:"processed" json:"processed"`
	ReferenceCode string    `db:"reference_code" json:"reference_code"`
}

// Status maps the processed flag onto the lifecycle state.
func (r *ResetRequest) Status() RequestStatus {
	if r.Processed {
		return RequestStatusProcessed
	}
	return RequestStatusPending
}

// FileName returns the stored file's basename, as served under /uploads/.
func (r *ResetRequest) FileName() string {
	if r.UploadedFile == "" {
		return ""
	}
	return path.Base(r.UploadedFile)
}

// SubmitRequest carries the public submission form fields.
type SubmitRequest struct {
	FullName   string `form:"full_name" json:"full_name" validate:"required,max=255"`
	Department string `form:"department" json:"department" validate:"required,max=255"`
	Email      string `form:"email" json:"email" validate:"required,email,max=254"`
}

// RequestFilter holds the raw dashboard query parameters.
type RequestFilter struct {
	Query string
	Day   string
	Month string
	Year  string
	Page  int
}

// RequestQuery is a validated dashboard filter ready for the store.
// Zero Day, Month or Year means the component is not filtered.
type RequestQuery struct {
	Search   string
	Day      int
	Month    int
	Year     int
	TimeZone string
	Limit    int
	Offset   int
}

// RequestDetail bundles a request with its conversation thread.
type RequestDetail struct {
	Request  *ResetRequest `json:"request"`
	Status   RequestStatus `json:"status"`
	Messages []Message     `json:"messages"`
}

// RequestPage is one page of the staff dashboard.
type RequestPage struct {
	Items      []ResetRequest `json:"items"`
	Pagination Pagination     `json:"pagination"`
}
