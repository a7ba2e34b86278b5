// internal/services/purchase_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheeldeal/wheeldeal-backend/internal/models"
)

type purchaseFixture struct {
	*listingFixture
	purchases *PurchaseService
	buyer     *models.User
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()

	lf := newListingFixture(t)
	cfg := newTestConfig()
	buyer := createUser(t, lf.db, "buyer", "buyer@example.com", models.RoleUser)

	return &purchaseFixture{
		listingFixture: lf,
		purchases:      NewPurchaseService(lf.db, NewNotificationService(lf.db, cfg)),
		buyer:          buyer,
	}
}

// listedCar drives a submission through verification to available.
func (f *purchaseFixture) listedCar(t *testing.T, carNumber string) *models.Car {
	t.Helper()

	car := f.submit(t, carNumber)
	_, err := f.service.AcceptForVerification(car.ID, f.agent.ID, 3)
	require.NoError(t, err)
	listed, err := f.service.Approve(car.ID, f.agent.ID, &ApproveRequest{})
	require.NoError(t, err)
	return listed
}

func (f *purchaseFixture) purchaseRequest(car *models.Car) *CreatePurchaseRequest {
	return &CreatePurchaseRequest{
		CarID:         car.ID,
		BuyerName:     f.buyer.Username,
		BuyerPhone:    "5550111",
		Address:       "12 Lake Road",
		City:          "Pune",
		State:         "Maharashtra",
		Pincode:       "411001",
		PaymentMethod: models.PaymentMethodCash,
	}
}

func TestCreatePurchase(t *testing.T) {
	t.Run("happy path marks car sold", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.listedCar(t, "MH12AB1234")

		purchase, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		require.NoError(t, err)

		assert.Equal(t, models.PurchaseStatusSold, purchase.Status)
		assert.Equal(t, car.Price, purchase.TotalPrice)
		assert.Equal(t, f.buyer.ID, purchase.BuyerID)

		reloaded, err := f.service.GetCar(car.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CarStatusSold, reloaded.Status)

		assert.EqualValues(t, 1, countNotifications(t, f.db, f.buyer.ID, models.NotificationPurchaseConfirmed))
		assert.EqualValues(t, 1, countNotifications(t, f.db, f.agent.ID, models.NotificationSaleRecorded))
		assert.EqualValues(t, 1, countNotifications(t, f.db, f.agent2.ID, models.NotificationSaleRecorded))
	})

	t.Run("second buyer loses", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.listedCar(t, "MH12AB1234")

		_, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		require.NoError(t, err)

		other := createUser(t, f.db, "buyer-two", "buyer2@example.com", models.RoleUser)
		req := f.purchaseRequest(car)
		req.BuyerName = other.Username
		_, err = f.purchases.CreatePurchase(other.ID, req)
		assert.ErrorIs(t, err, ErrCarNotAvailable)

		// Losing attempt leaves no purchase row behind.
		var count int64
		require.NoError(t, f.db.Model(&models.Purchase{}).Where("car_id = ?", car.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("pending car cannot be bought", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.submit(t, "MH12AB1234")

		_, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		assert.ErrorIs(t, err, ErrCarNotAvailable)
	})

	t.Run("unknown car", func(t *testing.T) {
		f := newPurchaseFixture(t)
		req := f.purchaseRequest(&models.Car{})
		req.CarID = f.buyer.ID

		_, err := f.purchases.CreatePurchase(f.buyer.ID, req)
		assert.ErrorIs(t, err, ErrCarNotFound)
	})
}

func TestUpdatePurchaseStatus(t *testing.T) {
	t.Run("cancel reopens the car", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.listedCar(t, "MH12AB1234")

		purchase, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		require.NoError(t, err)

		updated, err := f.purchases.UpdatePurchaseStatus(purchase.ID, models.PurchaseStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.PurchaseStatusCancelled, updated.Status)

		reloaded, err := f.service.GetCar(car.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CarStatusAvailable, reloaded.Status)

		assert.EqualValues(t, 1, countNotifications(t, f.db, f.buyer.ID, models.NotificationPurchaseCancelled))

		// The reopened car can be bought again.
		other := createUser(t, f.db, "buyer-two", "buyer2@example.com", models.RoleUser)
		req := f.purchaseRequest(car)
		req.BuyerName = other.Username
		_, err = f.purchases.CreatePurchase(other.ID, req)
		require.NoError(t, err)
	})

	t.Run("repeating the current status is rejected", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.listedCar(t, "MH12AB1234")

		purchase, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		require.NoError(t, err)

		_, err = f.purchases.UpdatePurchaseStatus(purchase.ID, models.PurchaseStatusSold)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("second cancel cannot reopen a resold car", func(t *testing.T) {
		f := newPurchaseFixture(t)
		car := f.listedCar(t, "MH12AB1234")

		first, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
		require.NoError(t, err)
		_, err = f.purchases.UpdatePurchaseStatus(first.ID, models.PurchaseStatusCancelled)
		require.NoError(t, err)

		other := createUser(t, f.db, "buyer-two", "buyer2@example.com", models.RoleUser)
		req := f.purchaseRequest(car)
		req.BuyerName = other.Username
		second, err := f.purchases.CreatePurchase(other.ID, req)
		require.NoError(t, err)

		// Cancelling the stale purchase again must not pull the car out
		// from under the new buyer.
		_, err = f.purchases.UpdatePurchaseStatus(first.ID, models.PurchaseStatusCancelled)
		assert.ErrorIs(t, err, ErrInvalidState)

		reloaded, err := f.service.GetCar(car.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CarStatusSold, reloaded.Status)

		kept, err := f.purchases.GetPurchase(second.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PurchaseStatusSold, kept.Status)
	})

	t.Run("unknown purchase", func(t *testing.T) {
		f := newPurchaseFixture(t)
		_, err := f.purchases.UpdatePurchaseStatus(f.buyer.ID, models.PurchaseStatusCancelled)
		assert.ErrorIs(t, err, ErrPurchaseNotFound)
	})
}

func TestListBuyerPurchases(t *testing.T) {
	f := newPurchaseFixture(t)
	car := f.listedCar(t, "MH12AB1234")

	_, err := f.purchases.CreatePurchase(f.buyer.ID, f.purchaseRequest(car))
	require.NoError(t, err)

	mine, err := f.purchases.ListBuyerPurchases(f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, car.ID, mine[0].CarID)

	other := createUser(t, f.db, "buyer-two", "buyer2@example.com", models.RoleUser)
	none, err := f.purchases.ListBuyerPurchases(other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
