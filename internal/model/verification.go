package model

import "time"

// Verification holds single use tokens, e.g. e-mail verification links.
// Identifier is "<purpose>:<subject>", Value is the token itself
type Verification struct {
	ID         string    `gorm:"primaryKey;size:32" json:"id"`
	Identifier string    `gorm:"index;not null" json:"identifier"`
	Value      string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
