package models

// DoctorProfile extends a User account with doctor-specific fields.
// WorkingHours is a comma-separated range specification such as
// "09:00-12:00,13:00-17:00"; see the schedule package for how it expands
// into bookable slots.
type DoctorProfile struct {
	UserID       string `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	Branch       string `gorm:"size:100;index" json:"branch"`
	Polyclinic   string `gorm:"size:100" json:"polyclinic"`
	WorkingHours string `gorm:"size:255" json:"workingHours"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
