package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/notify"
	"clinic-booking-server/internal/store"
)

type apptFixture struct {
	db      *gorm.DB
	store   *store.AppointmentStore
	events  *notify.Broadcaster
	signals *int
	patient *models.User
	doctor  *models.User
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()

	db := openTestDB(t)
	events := notify.NewBroadcaster()
	signals := 0
	events.Subscribe(func() { signals++ })

	return &apptFixture{
		db:      db,
		store:   store.NewAppointmentStore(db, events),
		events:  events,
		signals: &signals,
		patient: createPatient(t, db, "Ayse", "Yilmaz", "11111111111", "ayse"),
		doctor:  createDoctor(t, db, "Mehmet", "Demir", "22222222222", "drmehmet", "Cardiology", "09:00-12:00"),
	}
}

func TestBookCreatesActiveAppointment(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, models.StateActive, appt.State)
	assert.Equal(t, "2026-09-07", appt.Date)
	assert.Equal(t, "09:00", appt.TimeOfDay)
	assert.Equal(t, 1, *f.signals)

	taken, err := f.store.IsSlotTaken(ctx, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	assert.True(t, taken)

	busy, err := f.store.HasPatientAppointmentSameDay(ctx, f.patient.ID, "2026-09-07")
	require.NoError(t, err)
	assert.True(t, busy)

	free, err := f.store.IsSlotTaken(ctx, f.doctor.ID, "2026-09-07", "10:00")
	require.NoError(t, err)
	assert.False(t, free)

	rows, err := f.store.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, appt.ID, rows[0].ID)
	assert.Equal(t, "Mehmet Demir", rows[0].PersonName)
	assert.Equal(t, "Cardiology", rows[0].Branch)
	assert.Equal(t, string(models.StateActive), rows[0].State)
}

func TestBookRejectsTakenDoctorSlot(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	other := createPatient(t, f.db, "Fatma", "Kaya", "33333333333", "fatma")

	_, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	_, err = f.store.Book(ctx, other.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, *f.signals, "failed booking must not notify")
}

func TestBookRejectsSecondAppointmentSameDay(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	otherDoctor := createDoctor(t, f.db, "Zeynep", "Celik", "44444444444", "drzeynep", "Dermatology", "13:00-17:00")

	_, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	// Different doctor, different time, same day: still rejected.
	_, err = f.store.Book(ctx, f.patient.ID, otherDoctor.ID, "2026-09-07", "14:00")
	require.ErrorIs(t, err, store.ErrConflict)

	// The next day is fine once the first day is occupied.
	_, err = f.store.Book(ctx, f.patient.ID, otherDoctor.ID, "2026-09-08", "14:00")
	require.NoError(t, err)
}

func TestBookValidatesBoundaryInput(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	_, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "07/09/2026", "09:00")
	require.ErrorIs(t, err, store.ErrValidation)

	_, err = f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "9am")
	require.ErrorIs(t, err, store.ErrValidation)

	assert.Equal(t, 0, *f.signals)
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	require.Equal(t, 1, *f.signals)

	require.NoError(t, f.store.CancelByPatient(ctx, appt.ID, f.patient.ID))
	assert.Equal(t, 2, *f.signals)

	// Cancelling again: no error, no state change, no extra signal.
	require.NoError(t, f.store.CancelByPatient(ctx, appt.ID, f.patient.ID))
	assert.Equal(t, 2, *f.signals)

	rows, err := f.store.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(models.StateCancelled), rows[0].State)
}

func TestCancelIgnoresForeignAppointments(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	other := createPatient(t, f.db, "Fatma", "Kaya", "33333333333", "fatma")

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	// Someone else's id: silent no-op, appointment stays active.
	require.NoError(t, f.store.CancelByPatient(ctx, appt.ID, other.ID))
	assert.Equal(t, 1, *f.signals)

	taken, err := f.store.IsSlotTaken(ctx, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestReschedulePreservesIdentity(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	require.NoError(t, f.store.SaveExam(ctx, appt.ID, f.doctor.ID, "follow-up in two weeks", "ibuprofen 400mg"))

	require.NoError(t, f.store.RescheduleByPatient(ctx, appt.ID, f.patient.ID, f.doctor.ID, "2026-09-09", "10:00"))

	var moved models.Appointment
	require.NoError(t, f.db.First(&moved, "id = ?", appt.ID).Error)
	assert.Equal(t, appt.ID, moved.ID)
	assert.Equal(t, f.patient.ID, moved.PatientID)
	assert.Equal(t, f.doctor.ID, moved.DoctorID)
	assert.Equal(t, "2026-09-09", moved.Date)
	assert.Equal(t, "10:00", moved.TimeOfDay)
	assert.Equal(t, models.StateActive, moved.State)
	assert.Equal(t, "follow-up in two weeks", moved.Note)
	assert.Equal(t, "ibuprofen 400mg", moved.Prescription)

	// The old slot is free again.
	taken, err := f.store.IsSlotTaken(ctx, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRescheduleRejectsOccupiedTargets(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	other := createPatient(t, f.db, "Fatma", "Kaya", "33333333333", "fatma")

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	_, err = f.store.Book(ctx, other.ID, f.doctor.ID, "2026-09-09", "10:00")
	require.NoError(t, err)

	// Target slot already booked by another patient.
	err = f.store.RescheduleByPatient(ctx, appt.ID, f.patient.ID, f.doctor.ID, "2026-09-09", "10:00")
	require.ErrorIs(t, err, store.ErrConflict)

	// The same-day check does not exempt the appointment's own slot, so a
	// pure time change within the same day is rejected as well.
	err = f.store.RescheduleByPatient(ctx, appt.ID, f.patient.ID, f.doctor.ID, "2026-09-07", "11:00")
	require.ErrorIs(t, err, store.ErrConflict)

	var unchanged models.Appointment
	require.NoError(t, f.db.First(&unchanged, "id = ?", appt.ID).Error)
	assert.Equal(t, "2026-09-07", unchanged.Date)
	assert.Equal(t, "09:00", unchanged.TimeOfDay)
}

func TestRescheduleIgnoresForeignAppointments(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	other := createPatient(t, f.db, "Fatma", "Kaya", "33333333333", "fatma")

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)
	signalsBefore := *f.signals

	// Wrong owner: checks pass but the update matches zero rows. Silent
	// no-op, no signal.
	require.NoError(t, f.store.RescheduleByPatient(ctx, appt.ID, other.ID, f.doctor.ID, "2026-09-09", "10:00"))
	assert.Equal(t, signalsBefore, *f.signals)

	var unchanged models.Appointment
	require.NoError(t, f.db.First(&unchanged, "id = ?", appt.ID).Error)
	assert.Equal(t, "2026-09-07", unchanged.Date)
}

func TestSetStateByDoctorIsUnconstrained(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	require.NoError(t, f.store.CancelByPatient(ctx, appt.ID, f.patient.ID))

	// No legality matrix: a cancelled appointment can be completed.
	require.NoError(t, f.store.SetStateByDoctor(ctx, appt.ID, f.doctor.ID, "COMPLETED"))

	var row models.Appointment
	require.NoError(t, f.db.First(&row, "id = ?", appt.ID).Error)
	assert.Equal(t, models.StateCompleted, row.State)

	// Unknown labels are rejected before touching the database.
	err = f.store.SetStateByDoctor(ctx, appt.ID, f.doctor.ID, "RESOLVED")
	require.ErrorIs(t, err, store.ErrValidation)

	// A doctor cannot touch another doctor's rows; silent no-op.
	otherDoctor := createDoctor(t, f.db, "Zeynep", "Celik", "44444444444", "drzeynep", "Dermatology", "")
	signalsBefore := *f.signals
	require.NoError(t, f.store.SetStateByDoctor(ctx, appt.ID, otherDoctor.ID, "NO_SHOW"))
	assert.Equal(t, signalsBefore, *f.signals)
}

func TestSaveExamAndReadBack(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	appt, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	// Exam fields are writable regardless of state.
	require.NoError(t, f.store.SetStateByDoctor(ctx, appt.ID, f.doctor.ID, "COMPLETED"))
	require.NoError(t, f.store.SaveExam(ctx, appt.ID, f.doctor.ID, "mild hypertension", "lisinopril 10mg"))

	note, prescription, err := f.store.Exam(ctx, appt.ID, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, "mild hypertension", note)
	assert.Equal(t, "lisinopril 10mg", prescription)

	// A non-owning doctor reads empty fields, not an error.
	otherDoctor := createDoctor(t, f.db, "Zeynep", "Celik", "44444444444", "drzeynep", "Dermatology", "")
	note, prescription, err = f.store.Exam(ctx, appt.ID, otherDoctor.ID)
	require.NoError(t, err)
	assert.Empty(t, note)
	assert.Empty(t, prescription)
}

func TestNotificationFanOutOnCreate(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	var order []string
	f.events.Subscribe(func() { order = append(order, "first") })
	f.events.Subscribe(func() { order = append(order, "second") })

	_, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-07", "09:00")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestListOrderingAndDenormalization(t *testing.T) {
	t.Parallel()
	f := newApptFixture(t)
	ctx := context.Background()

	seed := []struct{ date, tod string }{
		{"2026-09-07", "09:00"},
		{"2026-09-09", "10:00"},
		{"2026-09-08", "11:00"},
	}
	for _, s := range seed {
		_, err := f.store.Book(ctx, f.patient.ID, f.doctor.ID, s.date, s.tod)
		require.NoError(t, err)
	}

	// Patient history: newest first.
	rows, err := f.store.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-09-09", rows[0].Date)
	assert.Equal(t, "2026-09-08", rows[1].Date)
	assert.Equal(t, "2026-09-07", rows[2].Date)

	// Doctor week view: ascending, carrying the patient's national id.
	rows, err = f.store.ListByDoctorBetween(ctx, f.doctor.ID, "2026-09-07", "2026-09-08")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-09-07", rows[0].Date)
	assert.Equal(t, "Ayse Yilmaz", rows[0].PersonName)
	assert.Equal(t, "11111111111", rows[0].NationalID)

	// Patient range view: ascending with doctor name and branch.
	rows, err = f.store.ListByPatientBetween(ctx, f.patient.ID, "2026-09-08", "2026-09-09")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-09-08", rows[0].Date)
	assert.Equal(t, "Mehmet Demir", rows[0].PersonName)
	assert.Equal(t, "Cardiology", rows[0].Branch)

	// Range endpoints are validated like any other boundary date.
	_, err = f.store.ListByDoctorBetween(ctx, f.doctor.ID, "last monday", "2026-09-08")
	require.ErrorIs(t, err, store.ErrValidation)
}
