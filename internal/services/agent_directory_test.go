// internal/services/agent_directory_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
)

func TestListEligibleAgents(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	createAgentAt(t, db, "agent-b", "b@agents.example.com", base.Add(time.Hour))
	createAgentAt(t, db, "agent-a", "a@agents.example.com", base)
	createUser(t, db, "outsider", "outsider@agents.example.com", models.RoleAgent)
	createUser(t, db, "seller", "seller@example.com", models.RoleUser)

	t.Run("empty allow-list", func(t *testing.T) {
		dir := NewAgentDirectory(db, nil)
		_, err := dir.ListEligibleAgents()
		assert.ErrorIs(t, err, ErrNoAgentsConfigured)
	})

	t.Run("no matching agents", func(t *testing.T) {
		dir := NewAgentDirectory(db, []string{"nobody@agents.example.com"})
		_, err := dir.ListEligibleAgents()
		assert.ErrorIs(t, err, ErrNoEligibleAgents)
	})

	t.Run("ordered by creation time", func(t *testing.T) {
		dir := NewAgentDirectory(db, []string{"a@agents.example.com", "b@agents.example.com"})
		agents, err := dir.ListEligibleAgents()
		require.NoError(t, err)
		require.Len(t, agents, 2)
		assert.Equal(t, "agent-a", agents[0].Username)
		assert.Equal(t, "agent-b", agents[1].Username)
	})

	t.Run("allow-list filters non-listed agents", func(t *testing.T) {
		dir := NewAgentDirectory(db, []string{"a@agents.example.com"})
		agents, err := dir.ListEligibleAgents()
		require.NoError(t, err)
		require.Len(t, agents, 1)
		assert.Equal(t, "agent-a", agents[0].Username)
	})
}

func TestPickLeastBusy(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := createAgentAt(t, db, "agent-first", "first@agents.example.com", base)
	second := createAgentAt(t, db, "agent-second", "second@agents.example.com", base.Add(time.Hour))
	seller := createUser(t, db, "seller", "seller@example.com", models.RoleUser)

	dir := NewAgentDirectory(db, []string{"first@agents.example.com", "second@agents.example.com"})

	// Equal workloads: the earliest-created agent wins.
	chosen, err := dir.PickLeastBusy()
	require.NoError(t, err)
	assert.Equal(t, first.ID, chosen.ID)

	// Load the first agent with a pending car; the second should now win.
	require.NoError(t, db.Create(&models.Car{
		Brand:      "Maruti",
		Model:      "Swift",
		CarNumber:  "MH12AA0001",
		Price:      300000,
		Year:       2018,
		SellerID:   seller.ID,
		SellerName: seller.Username,
		Status:     models.CarStatusPending,
		AgentID:    &first.ID,
	}).Error)

	chosen, err = dir.PickLeastBusy()
	require.NoError(t, err)
	assert.Equal(t, second.ID, chosen.ID)

	// A car under verification does not count toward workload.
	require.NoError(t, db.Create(&models.Car{
		Brand:      "Hyundai",
		Model:      "i20",
		CarNumber:  "MH12AA0002",
		Price:      400000,
		Year:       2020,
		SellerID:   seller.ID,
		SellerName: seller.Username,
		Status:     models.CarStatusVerification,
		AgentID:    &second.ID,
	}).Error)

	chosen, err = dir.PickLeastBusy()
	require.NoError(t, err)
	assert.Equal(t, second.ID, chosen.ID)
}
