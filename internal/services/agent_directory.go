// internal/services/agent_directory.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
)

// AgentDirectory resolves the pool of verification agents eligible for
// auto-assignment and picks the least-loaded one. The pool is restricted
// to the configured email allow-list; eligibility is read-only and
// computed on demand, never cached.
type AgentDirectory struct {
	db          *gorm.DB
	agentEmails []string
}

func NewAgentDirectory(db *gorm.DB, agentEmails []string) *AgentDirectory {
	return &AgentDirectory{
		db:          db,
		agentEmails: agentEmails,
	}
}

// ListEligibleAgents returns agents whose email appears in the allow-list,
// ordered by account creation time ascending. The ordering doubles as the
// tie-break for equal workloads.
func (s *AgentDirectory) ListEligibleAgents() ([]models.User, error) {
	if len(s.agentEmails) == 0 {
		return nil, ErrNoAgentsConfigured
	}

	var agents []models.User
	err := s.db.
		Where("role = ? AND email IN ?", models.RoleAgent, s.agentEmails).
		Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	if len(agents) == 0 {
		return nil, ErrNoEligibleAgents
	}

	return agents, nil
}

// ComputeWorkload counts the cars in pending status assigned to the agent.
// Cars the agent has already accepted for verification are not counted;
// only unaccepted assignments weigh on new-listing routing.
func (s *AgentDirectory) ComputeWorkload(agentID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Car{}).
		Where("agent_id = ? AND status = ?", agentID, models.CarStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute workload: %w", err)
	}
	return count, nil
}

// PickLeastBusy selects the eligible agent with the fewest pending
// assignments. The first agent encountered wins ties, which combined with
// the creation-time ordering makes selection stable.
func (s *AgentDirectory) PickLeastBusy() (*models.User, error) {
	agents, err := s.ListEligibleAgents()
	if err != nil {
		return nil, err
	}

	var chosen *models.User
	var minLoad int64
	for i := range agents {
		load, err := s.ComputeWorkload(agents[i].ID)
		if err != nil {
			return nil, err
		}
		if chosen == nil || load < minLoad {
			chosen = &agents[i]
			minLoad = load
		}
	}

	return chosen, nil
}
