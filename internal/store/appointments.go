package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/notify"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// NormalizeDate validates a boundary "YYYY-MM-DD" string and returns it in
// canonical form.
func NormalizeDate(s string) (string, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, s)
	}
	return d.Format(dateLayout), nil
}

// NormalizeClock validates a boundary "HH:MM" string and returns it in
// canonical form.
func NormalizeClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: time must be HH:MM, got %q", ErrValidation, s)
	}
	return t.Format(clockLayout), nil
}

// AppointmentRow is the denormalized listing shape consumed by views:
// the counterpart's display name plus branch (patient views) or national id
// (doctor views), with the raw date/time/state strings.
type AppointmentRow struct {
	ID           string `json:"id"`
	PersonName   string `json:"personName"`
	Branch       string `json:"branch,omitempty"`
	NationalID   string `json:"nationalId,omitempty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	State        string `json:"state"`
	Note         string `json:"note"`
	Prescription string `json:"prescription"`
}

// AppointmentStore owns all reads and writes against appointment rows and
// enforces the two booking invariants:
//
//	A: at most one ACTIVE appointment per (doctor, date, time)
//	B: at most one ACTIVE appointment per (patient, date)
//
// Book and RescheduleByPatient run their invariant checks and the write in
// one transaction, additionally serialized by bookMu so two concurrent
// requests cannot interleave between check and write.
type AppointmentStore struct {
	db     *gorm.DB
	events *notify.Broadcaster

	bookMu sync.Mutex
}

// NewAppointmentStore creates an AppointmentStore publishing change signals
// on events.
func NewAppointmentStore(db *gorm.DB, events *notify.Broadcaster) *AppointmentStore {
	return &AppointmentStore{db: db, events: events}
}

// IsSlotTaken reports whether an ACTIVE appointment exists at the exact
// (doctor, date, time) tuple.
func (s *AppointmentStore) IsSlotTaken(ctx context.Context, doctorID, date, timeOfDay string) (bool, error) {
	return slotTaken(s.db.WithContext(ctx), doctorID, date, timeOfDay)
}

// HasPatientAppointmentSameDay reports whether the patient holds any ACTIVE
// appointment on the given date, with any doctor.
func (s *AppointmentStore) HasPatientAppointmentSameDay(ctx context.Context, patientID, date string) (bool, error) {
	return patientBusy(s.db.WithContext(ctx), patientID, date)
}

func slotTaken(tx *gorm.DB, doctorID, date, timeOfDay string) (bool, error) {
	var n int64
	err := tx.Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND state = ?",
			doctorID, date, timeOfDay, models.StateActive).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count doctor slot: %w", err)
	}
	return n > 0, nil
}

func patientBusy(tx *gorm.DB, patientID, date string) (bool, error) {
	var n int64
	err := tx.Model(&models.Appointment{}).
		Where("patient_id = ? AND date = ? AND state = ?",
			patientID, date, models.StateActive).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count patient day: %w", err)
	}
	return n > 0, nil
}

// Book creates a new ACTIVE appointment after re-validating both invariants.
// Date and timeOfDay are raw form strings and are normalized first. The
// change signal fires exactly once, after the transaction commits.
func (s *AppointmentStore) Book(ctx context.Context, patientID, doctorID, date, timeOfDay string) (*models.Appointment, error) {
	date, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	timeOfDay, err = NormalizeClock(timeOfDay)
	if err != nil {
		return nil, err
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	appt := models.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		TimeOfDay: timeOfDay,
		State:     models.StateActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		busy, err := patientBusy(tx, patientID, date)
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("%w: patient already has an active appointment on %s", ErrConflict, date)
		}

		taken, err := slotTaken(tx, doctorID, date, timeOfDay)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: slot %s %s is already booked", ErrConflict, date, timeOfDay)
		}

		return tx.Create(&appt).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.Notify()
	return &appt, nil
}

// CancelByPatient transitions an appointment to CANCELLED, but only if it is
// still ACTIVE and belongs to the requesting patient. A mismatched id,
// owner or state is a silent no-op: no error, no state change and no change
// signal.
func (s *AppointmentStore) CancelByPatient(ctx context.Context, appointmentID, patientID string) error {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND patient_id = ? AND state = ?",
			appointmentID, patientID, models.StateActive).
		Update("state", models.StateCancelled)
	if res.Error != nil {
		return fmt.Errorf("cancel appointment: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.events.Notify()
	}
	return nil
}

// RescheduleByPatient moves an ACTIVE appointment owned by the
// patient/doctor pairing to a new date/time, re-validating both invariants
// against the new slot first.
//
// The checks do not exempt the appointment's own current slot, matching the
// original behavior: rescheduling to another time on a day where the patient
// already holds an active appointment is rejected even when that appointment
// is the one being moved.
func (s *AppointmentStore) RescheduleByPatient(ctx context.Context, appointmentID, patientID, doctorID, newDate, newTime string) error {
	newDate, err := NormalizeDate(newDate)
	if err != nil {
		return err
	}
	newTime, err = NormalizeClock(newTime)
	if err != nil {
		return err
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	var moved bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		busy, err := patientBusy(tx, patientID, newDate)
		if err != nil {
			return err
		}
		if busy {
			return fmt.Errorf("%w: patient already has an active appointment on %s", ErrConflict, newDate)
		}

		taken, err := slotTaken(tx, doctorID, newDate, newTime)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: slot %s %s is already booked", ErrConflict, newDate, newTime)
		}

		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND patient_id = ? AND doctor_id = ? AND state = ?",
				appointmentID, patientID, doctorID, models.StateActive).
			Updates(map[string]any{"date": newDate, "time": newTime})
		if res.Error != nil {
			return fmt.Errorf("reschedule appointment: %w", res.Error)
		}
		moved = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return err
	}

	if moved {
		s.events.Notify()
	}
	return nil
}

// SetStateByDoctor overwrites the state of any appointment owned by the
// doctor. Transitions are unconstrained: completing an already-cancelled
// appointment is permitted. A row that does not match is a silent no-op.
func (s *AppointmentStore) SetStateByDoctor(ctx context.Context, appointmentID, doctorID, newState string) error {
	state, ok := models.ParseAppointmentState(newState)
	if !ok {
		return fmt.Errorf("%w: unknown appointment state %q", ErrValidation, newState)
	}

	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND doctor_id = ?", appointmentID, doctorID).
		Update("state", state)
	if res.Error != nil {
		return fmt.Errorf("set appointment state: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.events.Notify()
	}
	return nil
}

// SaveExam overwrites the exam note and prescription of an appointment owned
// by the doctor, regardless of its state.
func (s *AppointmentStore) SaveExam(ctx context.Context, appointmentID, doctorID, note, prescription string) error {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND doctor_id = ?", appointmentID, doctorID).
		Updates(map[string]any{"note": note, "prescription": prescription})
	if res.Error != nil {
		return fmt.Errorf("save exam: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.events.Notify()
	}
	return nil
}

// Exam returns the exam note and prescription of an appointment owned by the
// doctor. A row that does not match yields empty strings, not an error.
func (s *AppointmentStore) Exam(ctx context.Context, appointmentID, doctorID string) (note, prescription string, err error) {
	var appt models.Appointment
	res := s.db.WithContext(ctx).
		Select("note", "prescription").
		Where("id = ? AND doctor_id = ?", appointmentID, doctorID).
		Take(&appt)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("load exam: %w", res.Error)
	}
	return appt.Note, appt.Prescription, nil
}

// joinRow carries the raw columns of the listing queries; the display name
// is assembled in Go so the SQL stays portable across MySQL and sqlite.
type joinRow struct {
	ID           string
	Name         string
	Surname      string
	Branch       string
	NationalID   string `gorm:"column:national_id"`
	Date         string
	Time         string
	State        string
	Note         string
	Prescription string
}

func toRows(raw []joinRow) []AppointmentRow {
	rows := make([]AppointmentRow, len(raw))
	for i, r := range raw {
		rows[i] = AppointmentRow{
			ID:           r.ID,
			PersonName:   r.Name + " " + r.Surname,
			Branch:       r.Branch,
			NationalID:   r.NationalID,
			Date:         r.Date,
			Time:         r.Time,
			State:        r.State,
			Note:         r.Note,
			Prescription: r.Prescription,
		}
	}
	return rows
}

// ListByPatient returns the patient's full appointment history, newest
// first, joined with the doctor's display name and branch.
func (s *AppointmentStore) ListByPatient(ctx context.Context, patientID string) ([]AppointmentRow, error) {
	var raw []joinRow
	err := s.db.WithContext(ctx).
		Table("appointments AS a").
		Select("a.id, u.name, u.surname, d.branch, a.date, a.time, a.state, a.note, a.prescription").
		Joins("JOIN users u ON u.id = a.doctor_id").
		Joins("JOIN doctor_profiles d ON d.user_id = u.id").
		Where("a.patient_id = ?", patientID).
		Order("a.date DESC, a.time DESC").
		Scan(&raw).Error
	if err != nil {
		return nil, fmt.Errorf("list by patient: %w", err)
	}
	return toRows(raw), nil
}

// ListByDoctorBetween returns the doctor's appointments in [from, to],
// joined with the patient's national id and display name, ordered by
// date and time.
func (s *AppointmentStore) ListByDoctorBetween(ctx context.Context, doctorID, from, to string) ([]AppointmentRow, error) {
	from, err := NormalizeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = NormalizeDate(to)
	if err != nil {
		return nil, err
	}

	var raw []joinRow
	err = s.db.WithContext(ctx).
		Table("appointments AS a").
		Select("a.id, u.national_id, u.name, u.surname, a.date, a.time, a.state, a.note, a.prescription").
		Joins("JOIN users u ON u.id = a.patient_id").
		Where("a.doctor_id = ? AND a.date BETWEEN ? AND ?", doctorID, from, to).
		Order("a.date, a.time").
		Scan(&raw).Error
	if err != nil {
		return nil, fmt.Errorf("list by doctor: %w", err)
	}
	return toRows(raw), nil
}

// ListByPatientBetween returns the patient's appointments in [from, to],
// joined with the doctor's display name and branch, ordered by date and
// time.
func (s *AppointmentStore) ListByPatientBetween(ctx context.Context, patientID, from, to string) ([]AppointmentRow, error) {
	from, err := NormalizeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = NormalizeDate(to)
	if err != nil {
		return nil, err
	}

	var raw []joinRow
	err = s.db.WithContext(ctx).
		Table("appointments AS a").
		Select("a.id, u.name, u.surname, d.branch, a.date, a.time, a.state, a.note, a.prescription").
		Joins("JOIN users u ON u.id = a.doctor_id").
		Joins("JOIN doctor_profiles d ON d.user_id = u.id").
		Where("a.patient_id = ? AND a.date BETWEEN ? AND ?", patientID, from, to).
		Order("a.date, a.time").
		Scan(&raw).Error
	if err != nil {
		return nil, fmt.Errorf("list by patient between: %w", err)
	}
	return toRows(raw), nil
}
