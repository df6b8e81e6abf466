package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
)

// User represents an account in the system. Role-specific data lives in the
// PatientProfile and DoctorProfile extension tables.
type User struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Surname     string `gorm:"size:100;not null" json:"surname"`
	NationalID  string `gorm:"column:national_id;uniqueIndex;size:20;not null" json:"nationalId"`
	Username    string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password    string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Role        Role   `gorm:"size:20;not null" json:"role"`
	ContactInfo string `gorm:"size:255" json:"contactInfo,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens       []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	DoctorAppointments  []Appointment  `gorm:"foreignKey:DoctorID" json:"-"`
	PatientAppointments []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	NationalID  string    `json:"nationalId"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	ContactInfo string    `json:"contactInfo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FullName returns the display name used in appointment listings.
func (u *User) FullName() string {
	return u.Name + " " + u.Surname
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		NationalID:  u.NationalID,
		Username:    u.Username,
		Role:        u.Role,
		ContactInfo: u.ContactInfo,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
