package models

// AppointmentState represents the state of an appointment. It is a flat
// enum: state transitions are not constrained by a legality matrix.
type AppointmentState string

const (
	StateActive    AppointmentState = "ACTIVE"
	StateCancelled AppointmentState = "CANCELLED"
	StateCompleted AppointmentState = "COMPLETED"
	StateNoShow    AppointmentState = "NO_SHOW"
)

// ParseAppointmentState maps a state label onto the enum. The second return
// value is false for unknown labels.
func ParseAppointmentState(s string) (AppointmentState, bool) {
	switch AppointmentState(s) {
	case StateActive, StateCancelled, StateCompleted, StateNoShow:
		return AppointmentState(s), true
	}
	return "", false
}

// Appointment represents a booked slot between a patient and a doctor.
// Date is stored as "YYYY-MM-DD" and TimeOfDay as "HH:MM"; both are
// normalized by the store before they reach the database.
type Appointment struct {
	BaseModel
	PatientID    string           `gorm:"size:36;index" json:"patientId"`
	DoctorID     string           `gorm:"size:36;index" json:"doctorId"`
	Date         string           `gorm:"size:10;index" json:"date"`
	TimeOfDay    string           `gorm:"column:time;size:5" json:"time"`
	State        AppointmentState `gorm:"size:20;default:'ACTIVE'" json:"state"`
	Note         string           `gorm:"type:text" json:"note"`
	Prescription string           `gorm:"type:text" json:"prescription"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
