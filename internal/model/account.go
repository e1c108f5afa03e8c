package model

import "time"

// ProviderCredential is the provider ID of email/password accounts
const ProviderCredential = "credential"

// Account links a user to a way of signing in. Email/password users have a
// single credential account holding the password hash
type Account struct {
	ID         string    `gorm:"primaryKey;size:32" json:"id"`
	UserID     string    `gorm:"index;not null" json:"userId"`
	AccountID  string    `gorm:"not null" json:"accountId"`
	ProviderID string    `gorm:"not null" json:"providerId"`
	Password   *string   `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
