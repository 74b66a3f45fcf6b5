package model

import "time"

const (
	IssueNone          = "none"
	IssueDamaged       = "damaged"
	IssueMissingLabel  = "missing_label"
	IssueWrongLocation = "wrong_location"
	IssueOther         = "other"
)

// CountSubmission is the record of a performed count. Everything except
// CountedQty, IssueType, Note and the actual pallet/lot fields is copied
// from the assignment at submit time; Variance is always derived.
type CountSubmission struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AssignmentID   string    `json:"assignment_id" bson:"assignment_id" validate:"required,mongodb"`
	CountedBy      string    `json:"counted_by" bson:"counted_by" validate:"required,roster_name"`
	Location       string    `json:"location" bson:"location" validate:"required,location_code"`
	PalletID       string    `json:"pallet_id,omitempty" bson:"pallet_id,omitempty"`
	SKU            string    `json:"sku,omitempty" bson:"sku,omitempty"`
	Lot            string    `json:"lot,omitempty" bson:"lot,omitempty"`
	ExpectedQty    int       `json:"expected_qty" bson:"expected_qty" validate:"min=0"`
	CountedQty     int       `json:"counted_qty" bson:"counted_qty" validate:"min=0"`
	Variance       int       `json:"variance" bson:"variance"`
	IssueType      string    `json:"issue_type" bson:"issue_type" validate:"required,oneof=none damaged missing_label wrong_location other"`
	Note           string    `json:"note,omitempty" bson:"note,omitempty" validate:"max=500"`
	ActualPalletID string    `json:"actual_pallet_id,omitempty" bson:"actual_pallet_id,omitempty"`
	ActualLot      string    `json:"actual_lot,omitempty" bson:"actual_lot,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at" bson:"submitted_at" validate:"omitempty"`
}

// CountRequest is the writable surface of a count submission.
type CountRequest struct {
	AssignmentID   string `json:"assignment_id" validate:"required,mongodb"`
	CountedQty     int    `json:"counted_qty" validate:"min=0"`
	IssueType      string `json:"issue_type,omitempty" validate:"omitempty,oneof=none damaged missing_label wrong_location other"`
	Note           string `json:"note,omitempty" validate:"max=500"`
	ActualPalletID string `json:"actual_pallet_id,omitempty"`
	ActualLot      string `json:"actual_lot,omitempty"`
}

// DashboardSnapshot is what the live dashboard renders.
type DashboardSnapshot struct {
	TotalAssignments     int64   `json:"total_assignments"`
	OpenAssignments      int64   `json:"open_assignments"`
	CompletedAssignments int64   `json:"completed_assignments"`
	SubmissionsToday     int64   `json:"submissions_today"`
	MatchedCounts        int64   `json:"matched_counts"`
	VarianceCounts       int64   `json:"variance_counts"`
	AccuracyPct          float64 `json:"accuracy_pct"`
	GeneratedAt          string  `json:"generated_at"`
}
