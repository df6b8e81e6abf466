package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-booking-server/internal/notify"
	"clinic-booking-server/internal/store"
)

// openMockDB wires gorm's MySQL dialector over a sqlmock connection so
// storage failures can be injected.
func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestBookPropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	db, mock := openMockDB(t)
	events := notify.NewBroadcaster()
	notified := false
	events.Subscribe(func() { notified = true })

	s := store.NewAppointmentStore(db, events)

	boom := errors.New("connection reset by peer")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count").WillReturnError(boom)
	mock.ExpectRollback()

	_, err := s.Book(context.Background(), "patient-1", "doctor-1", "2026-09-07", "09:00")
	require.ErrorIs(t, err, boom)

	// A storage failure is neither a conflict nor bad input, and it must
	// not raise the change signal.
	assert.NotErrorIs(t, err, store.ErrConflict)
	assert.NotErrorIs(t, err, store.ErrValidation)
	assert.False(t, notified)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSlotTakenPropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	db, mock := openMockDB(t)
	s := store.NewAppointmentStore(db, notify.NewBroadcaster())

	boom := errors.New("driver: bad connection")
	mock.ExpectQuery("SELECT count").WillReturnError(boom)

	_, err := s.IsSlotTaken(context.Background(), "doctor-1", "2026-09-07", "09:00")
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	db, mock := openMockDB(t)
	events := notify.NewBroadcaster()
	notified := false
	events.Subscribe(func() { notified = true })

	s := store.NewAppointmentStore(db, events)

	boom := errors.New("table is locked")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `appointments`").WillReturnError(boom)
	mock.ExpectRollback()

	err := s.CancelByPatient(context.Background(), "appt-1", "patient-1")
	require.ErrorIs(t, err, boom)
	assert.False(t, notified)

	require.NoError(t, mock.ExpectationsWereMet())
}
