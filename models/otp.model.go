package models

import "time"

type OTP struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;index;not null" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"code"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `gorm:"index;not null" json:"createdAt"`
}

func (OTP) TableName() string { return "otp_codes" }

// Expired reports whether the code is no longer usable at t.
func (o *OTP) Expired(t time.Time) bool {
	return t.After(o.ExpiresAt)
}
