package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

// DoctorInfo is the doctor-specific payload attached to an authenticated
// account or a doctor listing.
type DoctorInfo struct {
	Branch       string `json:"branch"`
	Polyclinic   string `json:"polyclinic"`
	WorkingHours string `json:"workingHours"`
}

// Account is the role-tagged result of authentication: a shared base record
// plus an optional doctor payload. Patients carry no extra fields.
type Account struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Surname     string      `json:"surname"`
	Username    string      `json:"username"`
	NationalID  string      `json:"nationalId"`
	ContactInfo string      `json:"contactInfo,omitempty"`
	Role        models.Role `json:"role"`
	Doctor      *DoctorInfo `json:"doctor,omitempty"`
}

// DoctorListing is a doctor row shown to patients picking a doctor.
type DoctorListing struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Branch       string `json:"branch"`
	Polyclinic   string `json:"polyclinic"`
	WorkingHours string `json:"workingHours"`
}

// PatientListing is a patient row shown in doctor-side search results.
type PatientListing struct {
	ID         string `json:"id"`
	NationalID string `json:"nationalId"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
}

// UserStore owns user, patient and doctor records. Appointments reference
// them by id only.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Authenticate verifies the credentials and returns the role-tagged account,
// enriched with the doctor profile when the role is DOCTOR. Unknown
// usernames and wrong passwords are indistinguishable in the returned error.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return s.accountFor(ctx, &user)
}

// AccountByID loads the role-tagged account for an already-authenticated
// user id.
func (s *UserStore) AccountByID(ctx context.Context, userID string) (*Account, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.accountFor(ctx, &user)
}

func (s *UserStore) accountFor(ctx context.Context, user *models.User) (*Account, error) {
	acct := &Account{
		ID:          user.ID,
		Name:        user.Name,
		Surname:     user.Surname,
		Username:    user.Username,
		NationalID:  user.NationalID,
		ContactInfo: user.ContactInfo,
		Role:        user.Role,
	}

	if user.Role == models.RoleDoctor {
		var profile models.DoctorProfile
		err := s.db.WithContext(ctx).First(&profile, "user_id = ?", user.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load doctor profile: %w", err)
		}
		acct.Doctor = &DoctorInfo{
			Branch:       profile.Branch,
			Polyclinic:   profile.Polyclinic,
			WorkingHours: profile.WorkingHours,
		}
	}

	return acct, nil
}

// RegisterPatient creates the base user row plus the patient extension row
// in one transaction. Registration is rejected when the national id or the
// username is already taken.
func (s *UserStore) RegisterPatient(ctx context.Context, name, surname, nationalID, username, password, contactInfo string) (*models.User, error) {
	user := models.User{
		Name:        name,
		Surname:     surname,
		NationalID:  nationalID,
		Username:    username,
		Role:        models.RolePatient,
		ContactInfo: contactInfo,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&models.User{}).
			Where("national_id = ? OR username = ?", nationalID, username).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("check identity: %w", err)
		}
		if n > 0 {
			return ErrDuplicateIdentity
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Create(&models.PatientProfile{UserID: user.ID}).Error; err != nil {
			return fmt.Errorf("create patient profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DoctorByUserID returns the joined doctor listing for a user id, or nil if
// the user has no doctor profile.
func (s *UserStore) DoctorByUserID(ctx context.Context, userID string) (*DoctorListing, error) {
	var row DoctorListing
	res := s.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id, u.name, u.surname, d.branch, d.polyclinic, d.working_hours").
		Joins("JOIN doctor_profiles d ON d.user_id = u.id").
		Where("u.id = ?", userID).
		Take(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load doctor: %w", res.Error)
	}
	return &row, nil
}

// Branches returns the distinct doctor branches (specialties), sorted.
func (s *UserStore) Branches(ctx context.Context) ([]string, error) {
	var branches []string
	err := s.db.WithContext(ctx).
		Model(&models.DoctorProfile{}).
		Distinct().
		Order("branch").
		Pluck("branch", &branches).Error
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// DoctorsByBranch returns the doctors of one branch, ordered by name.
func (s *UserStore) DoctorsByBranch(ctx context.Context, branch string) ([]DoctorListing, error) {
	var rows []DoctorListing
	err := s.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id, u.name, u.surname, d.branch, d.polyclinic, d.working_hours").
		Joins("JOIN doctor_profiles d ON d.user_id = u.id").
		Where("d.branch = ?", branch).
		Order("u.name, u.surname").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list doctors by branch: %w", err)
	}
	return rows, nil
}

// SearchDoctors returns doctors whose name, surname or branch matches the
// query.
func (s *UserStore) SearchDoctors(ctx context.Context, q string) ([]DoctorListing, error) {
	like := "%" + q + "%"
	var rows []DoctorListing
	err := s.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id, u.name, u.surname, d.branch, d.polyclinic, d.working_hours").
		Joins("JOIN doctor_profiles d ON d.user_id = u.id").
		Where("u.name LIKE ? OR u.surname LIKE ? OR d.branch LIKE ?", like, like, like).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return rows, nil
}

// SearchPatients returns patients whose national id, name or surname matches
// the query.
func (s *UserStore) SearchPatients(ctx context.Context, q string) ([]PatientListing, error) {
	like := "%" + q + "%"
	var rows []PatientListing
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id, national_id, name, surname").
		Where("role = ? AND (national_id LIKE ? OR name LIKE ? OR surname LIKE ?)",
			models.RolePatient, like, like, like).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return rows, nil
}

// UpdateContact updates the account's contact info and, when newPassword is
// non-empty, replaces the password hash.
func (s *UserStore) UpdateContact(ctx context.Context, userID, contactInfo, newPassword string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	user.ContactInfo = contactInfo
	if newPassword != "" {
		if err := user.SetPassword(newPassword); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// UpdateWorkingHours replaces a doctor's working-hours specification. A user
// without a doctor profile is a silent no-op.
func (s *UserStore) UpdateWorkingHours(ctx context.Context, doctorUserID, workingHours string) error {
	err := s.db.WithContext(ctx).
		Model(&models.DoctorProfile{}).
		Where("user_id = ?", doctorUserID).
		Update("working_hours", workingHours).Error
	if err != nil {
		return fmt.Errorf("update working hours: %w", err)
	}
	return nil
}
