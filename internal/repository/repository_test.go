package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/placement-go-api/internal/models"
)

func testDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.Student{},
		&models.Drive{},
		&models.DriveRegistration{},
		&models.DriveResult{},
		&models.Offer{},
		&models.ActivityLog{},
		&models.PlacementEvent{},
	))

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, accountID uint, roll string) models.Student {
	t.Helper()

	student := models.Student{
		AccountID:  accountID,
		RollNumber: roll,
		Name:       "Student " + roll,
		Email:      roll + "@example.edu",
		Branch:     "CSE",
		Semester:   7,
		CGPA:       8.0,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedDrive(t *testing.T, db *gorm.DB, accountID uint, status models.DriveStatus) models.Drive {
	t.Helper()

	now := time.Now().UTC()
	drive := models.Drive{
		AccountID:            accountID,
		CompanyID:            1,
		JobTitle:             "Backend Engineer",
		CTC:                  12.5,
		RegistrationDeadline: now.Add(24 * time.Hour),
		DriveDate:            now.Add(72 * time.Hour),
		Status:               status,
	}
	require.NoError(t, db.Create(&drive).Error)
	return drive
}
