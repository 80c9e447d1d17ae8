package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the only persisted entity. Phone numbers are stored in canonical
// +<countrycode><number> form and are unique across all users. The verification
// code and its expiry are either both set or both cleared.
type User struct {
	gorm.Model
	Avatar                    *string    `gorm:"column:avatar"`
	FirstName                 string     `gorm:"column:first_name;not null"`
	LastName                  string     `gorm:"column:last_name;not null"`
	Phone                     string     `gorm:"column:phone;unique;not null"`
	Email                     *string    `gorm:"column:email"`
	Password                  string     `gorm:"column:password;not null"`
	IsVerified                bool       `gorm:"column:is_verified;default:false;not null"`
	VerificationCode          *string    `gorm:"column:verification_code"`
	VerificationCodeExpiresAt *time.Time `gorm:"column:verification_code_expires_at"`
}
