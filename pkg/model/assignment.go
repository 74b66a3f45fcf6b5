package model

import "time"

const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type Assignment struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AssignedTo  string    `json:"assigned_to" bson:"assigned_to" validate:"required,roster_name"`
	Location    string    `json:"location" bson:"location" validate:"required,location_code"`
	PalletID    string    `json:"pallet_id,omitempty" bson:"pallet_id,omitempty" validate:"omitempty,location_code"`
	SKU         string    `json:"sku,omitempty" bson:"sku,omitempty" validate:"omitempty,location_code"`
	Lot         string    `json:"lot,omitempty" bson:"lot,omitempty" validate:"omitempty,location_code"`
	ExpectedQty int       `json:"expected_qty" bson:"expected_qty" validate:"min=0"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=assigned in_progress completed cancelled"`
	LockedUntil time.Time `json:"locked_until" bson:"locked_until" validate:"omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Locked reports whether the assignment's location claim is still active.
func (a *Assignment) Locked(now time.Time) bool {
	return now.Before(a.LockedUntil)
}

// Open reports whether the assignment still expects a count.
func (a *Assignment) Open() bool {
	return a.Status == StatusAssigned || a.Status == StatusInProgress
}

type AssignmentUpdate struct {
	AssignedTo  string  `json:"assigned_to,omitempty" validate:"omitempty,roster_name"`
	PalletID    *string `json:"pallet_id,omitempty" validate:"omitempty"`
	SKU         *string `json:"sku,omitempty" validate:"omitempty"`
	Lot         *string `json:"lot,omitempty" validate:"omitempty"`
	ExpectedQty *int    `json:"expected_qty,omitempty" validate:"omitempty,min=0"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=assigned in_progress completed cancelled"`
}
