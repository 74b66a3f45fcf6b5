package model

import "time"

// AssignmentLock is the time-boxed claim on an inventory location. The
// document _id is the location key, so a second insert for the same
// location fails with a duplicate key error until the lock is released
// or its TTL index reaps it.
type AssignmentLock struct {
	ID         string    `bson:"_id" json:"id"`
	AssignedTo string    `bson:"assigned_to" json:"assigned_to"`
	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
