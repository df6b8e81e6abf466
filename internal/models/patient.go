package models

// PatientProfile extends a User account with patient-specific fields.
// The system currently stores nothing beyond the link itself; contact info
// lives on the account.
type PatientProfile struct {
	UserID string `gorm:"primaryKey;type:varchar(36)" json:"userId"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
