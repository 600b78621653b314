package model

import "time"

// User represents a registered account that owns books.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:256;not null"`
	FullName     string    `json:"full_name,omitempty" gorm:"size:100"`
	PasswordHash string    `json:"-" gorm:"size:256;not null"` // Never expose in JSON
	Active       bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
