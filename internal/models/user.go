package models

import "time"

// Identity is supplied by the identity provider for every operation.
// The core trusts it and never re-derives it.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

// FieldTemplate defines a template field key that is instantiated with an
// empty value on every new day.
type FieldTemplate struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileField is an arbitrary user-supplied key/value included in exports
type ProfileField struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// RetentionPolicy governs automatic snapshot deletion. Zero means unlimited.
type RetentionPolicy struct {
	MaxAgeDays int `db:"max_age_days" json:"maxAgeDays"`
	MaxCount   int `db:"max_count" json:"maxCount"`
}

// Snapshot is an archived, immutable copy of a completed day
type Snapshot struct {
	UserID  string    `json:"-"`
	Date    string    `json:"date"`
	State   DayState  `json:"state"`
	SavedAt time.Time `json:"savedAt"`
}
