package models

import "time"

// PurgeBacklog records the cascade steps of an account purge that still
// have to be retried. It is keyed by subject id.
type PurgeBacklog struct {
	SubjectID   string    `bson:"_id" json:"uid"`
	Collections []string  `bson:"collections" json:"collections"`
	Attempts    int       `bson:"attempts" json:"attempts"`
	LastError   string    `bson:"lastError" json:"lastError"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
