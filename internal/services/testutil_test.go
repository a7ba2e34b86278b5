// internal/services/testutil_test.go
package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.Purchase{},
		&models.Notification{},
	))

	return db
}

func newTestConfig(agentEmails ...string) *config.Config {
	return &config.Config{
		Environment: "test",
		Marketplace: config.MarketplaceConfig{
			AgentEmails:   agentEmails,
			SweepInterval: time.Hour,
		},
	}
}

func createUser(t *testing.T, db *gorm.DB, username, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     role,
		Phone:    "5550100",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("test-password"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// createAgentAt creates an agent whose creation time is pinned, so tests
// can control the workload tie-break ordering.
func createAgentAt(t *testing.T, db *gorm.DB, username, email string, createdAt time.Time) *models.User {
	t.Helper()

	agent := createUser(t, db, username, email, models.RoleAgent)
	require.NoError(t, db.Model(agent).Update("created_at", createdAt).Error)
	agent.CreatedAt = createdAt
	return agent
}

func testPhotos() []string {
	return []string{
		"https://cdn.example.com/photos/front.jpg",
		"https://cdn.example.com/photos/back.jpg",
		"https://cdn.example.com/photos/left.jpg",
		"https://cdn.example.com/photos/right.jpg",
	}
}

func newListingRequest(carNumber string) *CreateListingRequest {
	return &CreateListingRequest{
		Brand:        "Honda",
		Model:        "City",
		VehicleType:  models.VehicleTypeSedan,
		Transmission: models.TransmissionManual,
		Year:         2019,
		FuelType:     models.FuelTypePetrol,
		Seater:       5,
		Color:        "white",
		CarNumber:    carNumber,
		KmDriven:     42000,
		Price:        650000,
		Photos:       testPhotos(),
		City:         "Pune",
		State:        "Maharashtra",
	}
}

func countNotifications(t *testing.T, db *gorm.DB, userID interface{}, ntype models.NotificationType) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, ntype).
		Count(&count).Error)
	return count
}
