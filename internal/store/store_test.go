package store_test

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-booking-server/internal/models"
)

// openTestDB opens a fresh in-memory sqlite database migrated to the
// application schema. Each test gets its own database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createPatient(t *testing.T, db *gorm.DB, name, surname, nationalID, username string) *models.User {
	t.Helper()

	user := models.User{
		Name:       name,
		Surname:    surname,
		NationalID: nationalID,
		Username:   username,
		Role:       models.RolePatient,
	}
	require.NoError(t, user.SetPassword("patient-password"))
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.PatientProfile{UserID: user.ID}).Error)
	return &user
}

func createDoctor(t *testing.T, db *gorm.DB, name, surname, nationalID, username, branch, workingHours string) *models.User {
	t.Helper()

	user := models.User{
		Name:       name,
		Surname:    surname,
		NationalID: nationalID,
		Username:   username,
		Role:       models.RoleDoctor,
	}
	require.NoError(t, user.SetPassword("doctor-password"))
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.DoctorProfile{
		UserID:       user.ID,
		Branch:       branch,
		Polyclinic:   "Central Polyclinic",
		WorkingHours: workingHours,
	}).Error)
	return &user
}
