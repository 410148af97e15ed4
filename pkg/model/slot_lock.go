package model

import "time"

// SlotLock is a time-boxed mutual exclusion record over one SlotKey.
// A lock whose ExpiresAt has passed is treated as absent.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
