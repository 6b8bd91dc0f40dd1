package domain

import "time"

// Credential is a stored OAuth token pair for one principal. ExpiresAt is
// epoch milliseconds to match the upstream token math exactly.
type Credential struct {
	PrincipalID  string    `gorm:"column:principal_id;primaryKey" json:"principal_id"`
	AccessToken  string    `gorm:"column:access_token" json:"-"`
	RefreshToken string    `gorm:"column:refresh_token" json:"-"`
	APIDomain    string    `gorm:"column:api_domain" json:"api_domain"`
	ExpiresAt    int64     `gorm:"column:expires_at" json:"expires_at"`
	IsAdmin      bool      `gorm:"column:is_admin" json:"is_admin"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Credential) TableName() string {
	return "user_tokens"
}

// ExpiresAtTime returns the expiry as a time.Time.
func (c Credential) ExpiresAtTime() time.Time {
	return time.UnixMilli(c.ExpiresAt).UTC()
}
