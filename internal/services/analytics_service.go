// internal/services/analytics_service.go
package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
)

// AnalyticsService aggregates read-only business metrics for the admin
// dashboard. It never mutates lifecycle state.
type AnalyticsService struct {
	db *gorm.DB
}

type DashboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	TotalAgents       int64   `json:"total_agents"`
	NewUsersThisMonth int64   `json:"new_users_this_month"`
	TotalCars         int64   `json:"total_cars"`
	PendingCars       int64   `json:"pending_cars"`
	UnderVerification int64   `json:"under_verification"`
	AvailableCars     int64   `json:"available_cars"`
	SoldCars          int64   `json:"sold_cars"`
	RejectedCars      int64   `json:"rejected_cars"`
	TotalPurchases    int64   `json:"total_purchases"`
	TotalRevenue      float64 `json:"total_revenue"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
}

type AgentPerformance struct {
	AgentID       string `json:"agent_id"`
	Username      string `json:"username"`
	PendingCount  int64  `json:"pending_count"`
	InFlightCount int64  `json:"in_flight_count"`
	ApprovedCount int64  `json:"approved_count"`
	RejectedCount int64  `json:"rejected_count"`
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

func (s *AnalyticsService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	monthStart := time.Now().AddDate(0, 0, -30)

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAgent).Count(&stats.TotalAgents)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	statusCounts := []struct {
		status models.CarStatus
		dest   *int64
	}{
		{models.CarStatusPending, &stats.PendingCars},
		{models.CarStatusVerification, &stats.UnderVerification},
		{models.CarStatusAvailable, &stats.AvailableCars},
		{models.CarStatusSold, &stats.SoldCars},
		{models.CarStatusRejected, &stats.RejectedCars},
	}
	s.db.Model(&models.Car{}).Count(&stats.TotalCars)
	for _, sc := range statusCounts {
		s.db.Model(&models.Car{}).Where("status = ?", sc.status).Count(sc.dest)
	}

	s.db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseStatusSold).Count(&stats.TotalPurchases)

	if err := s.db.Model(&models.Purchase{}).
		Where("status = ?", models.PurchaseStatusSold).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	if err := s.db.Model(&models.Purchase{}).
		Where("status = ? AND created_at >= ?", models.PurchaseStatusSold, monthStart).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&stats.MonthlyRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}

	return stats, nil
}

// GetAgentPerformance reports per-agent queue depths and outcomes. The
// approved/rejected counts rely on the agent reference being retained on
// terminal records.
func (s *AnalyticsService) GetAgentPerformance() ([]AgentPerformance, error) {
	var agents []models.User
	if err := s.db.Where("role = ?", models.RoleAgent).Order("created_at ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	out := make([]AgentPerformance, 0, len(agents))
	for _, agent := range agents {
		perf := AgentPerformance{
			AgentID:  agent.ID.String(),
			Username: agent.Username,
		}
		s.db.Model(&models.Car{}).Where("agent_id = ? AND status = ?", agent.ID, models.CarStatusPending).Count(&perf.PendingCount)
		s.db.Model(&models.Car{}).Where("agent_id = ? AND status = ?", agent.ID, models.CarStatusVerification).Count(&perf.InFlightCount)
		s.db.Model(&models.Car{}).Where("agent_id = ? AND status = ?", agent.ID, models.CarStatusAvailable).Count(&perf.ApprovedCount)
		s.db.Model(&models.Car{}).Where("agent_id = ? AND status = ?", agent.ID, models.CarStatusRejected).Count(&perf.RejectedCount)
		out = append(out, perf)
	}

	return out, nil
}
