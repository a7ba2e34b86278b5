// internal/handlers/handlers_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wheeldeal/wheeldeal-backend/internal/config"
	"github.com/wheeldeal/wheeldeal-backend/internal/models"
	"github.com/wheeldeal/wheeldeal-backend/internal/router"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type MarketplaceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	cfg    *config.Config

	seller *models.User
	agent  *models.User
	buyer  *models.User
	admin  *models.User
}

func (suite *MarketplaceTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(suite.T().TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.AutoMigrate(
		&models.User{}, &models.Car{}, &models.Purchase{}, &models.Notification{},
	))

	suite.db = db
	suite.cfg = &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "handlers-test-secret",
			AccessTokenTTL: 1,
		},
		Marketplace: config.MarketplaceConfig{
			AgentEmails:   []string{"agent@agents.example.com"},
			SweepInterval: time.Hour,
		},
	}

	suite.seller = suite.createUser("seller", "seller@example.com", models.RoleUser)
	suite.agent = suite.createUser("agent", "agent@agents.example.com", models.RoleAgent)
	suite.buyer = suite.createUser("buyer", "buyer@example.com", models.RoleUser)
	suite.admin = suite.createUser("admin", "admin@example.com", models.RoleAdmin)

	suite.router = router.Initialize(db, suite.cfg)
}

func (suite *MarketplaceTestSuite) createUser(username, email string, role models.UserRole) *models.User {
	user := &models.User{
		Username: username,
		Email:    email,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(suite.T(), user.SetPassword("test-password"))
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *MarketplaceTestSuite) tokenFor(user *models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), 1)
	require.NoError(suite.T(), err)
	return token
}

func (suite *MarketplaceTestSuite) request(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		buf = bytes.NewBuffer(jsonData)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+suite.tokenFor(user))
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *MarketplaceTestSuite) parse(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func listingBody(carNumber string) map[string]interface{} {
	return map[string]interface{}{
		"brand":        "Honda",
		"model":        "City",
		"vehicle_type": "sedan",
		"transmission": "manual",
		"year":         2019,
		"fuel_type":    "petrol",
		"seater":       5,
		"car_number":   carNumber,
		"km_driven":    42000,
		"price":        650000,
		"photos": []string{
			"https://cdn.example.com/photos/front.jpg",
			"https://cdn.example.com/photos/back.jpg",
			"https://cdn.example.com/photos/left.jpg",
			"https://cdn.example.com/photos/right.jpg",
		},
		"city":  "Pune",
		"state": "Maharashtra",
	}
}

// submitCar posts a listing and returns the created car id.
func (suite *MarketplaceTestSuite) submitCar(carNumber string) string {
	w := suite.request("POST", "/sell", listingBody(carNumber), suite.seller)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	response := suite.parse(w)
	data := response["data"].(map[string]interface{})
	car := data["car"].(map[string]interface{})
	return car["id"].(string)
}

func (suite *MarketplaceTestSuite) TestSellRequiresAuth() {
	w := suite.request("POST", "/sell", listingBody("MH12AB1234"), nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *MarketplaceTestSuite) TestSellHappyPath() {
	w := suite.request("POST", "/sell", listingBody("mh12ab1234"), suite.seller)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	response := suite.parse(w)
	assert.True(suite.T(), response["success"].(bool))

	car := response["data"].(map[string]interface{})["car"].(map[string]interface{})
	assert.Equal(suite.T(), "pending", car["status"])
	assert.Equal(suite.T(), "MH12AB1234", car["car_number"])
}

func (suite *MarketplaceTestSuite) TestSellTooFewPhotos() {
	body := listingBody("MH12AB1234")
	body["photos"] = []string{"https://cdn.example.com/photos/front.jpg"}

	w := suite.request("POST", "/sell", body, suite.seller)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *MarketplaceTestSuite) TestSellNoAgentsConfigured() {
	suite.cfg.Marketplace.AgentEmails = nil
	suite.router = router.Initialize(suite.db, suite.cfg)

	w := suite.request("POST", "/sell", listingBody("MH12AB1234"), suite.seller)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *MarketplaceTestSuite) TestAgentLifecycle() {
	carID := suite.submitCar("MH12AB1234")

	// The assigned queue shows the pending car.
	w := suite.request("GET", "/agent/assigned", nil, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	cars := suite.parse(w)["data"].(map[string]interface{})["cars"].([]interface{})
	require.Len(suite.T(), cars, 1)

	// Sellers cannot reach agent routes.
	w = suite.request("GET", "/agent/assigned", nil, suite.seller)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// Accept with an out-of-range window.
	w = suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 11}, suite.agent)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Accept properly.
	w = suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 5}, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	// Double accept fails.
	w = suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 5}, suite.agent)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// The verification queue shows the in-flight car.
	w = suite.request("GET", "/agent/verification", nil, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	queue := suite.parse(w)["data"].(map[string]interface{})["cars"].([]interface{})
	require.Len(suite.T(), queue, 1)

	// Approve with specs.
	w = suite.request("POST", "/agent/approve/"+carID, map[string]interface{}{"engine": 1498}, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var car models.Car
	require.NoError(suite.T(), suite.db.First(&car, "id = ?", carID).Error)
	assert.Equal(suite.T(), models.CarStatusAvailable, car.Status)
	require.NotNil(suite.T(), car.Engine)
	assert.Equal(suite.T(), 1498, *car.Engine)
}

func (suite *MarketplaceTestSuite) TestRejectListing() {
	carID := suite.submitCar("MH12AB1234")

	w := suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 2}, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("POST", "/agent/reject/"+carID, nil, suite.agent)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var car models.Car
	require.NoError(suite.T(), suite.db.First(&car, "id = ?", carID).Error)
	assert.Equal(suite.T(), models.CarStatusRejected, car.Status)
}

func (suite *MarketplaceTestSuite) TestPublicBrowseShowsOnlyAvailable() {
	carID := suite.submitCar("MH12AB1234")

	w := suite.request("GET", "/cars", nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	cars := suite.parse(w)["data"].([]interface{})
	assert.Empty(suite.T(), cars)

	// A pending car is hidden from anonymous detail reads.
	w = suite.request("GET", "/cars/"+carID, nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// But visible to its seller.
	w = suite.request("GET", "/cars/"+carID, nil, suite.seller)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 1}, suite.agent)
	suite.request("POST", "/agent/approve/"+carID, map[string]interface{}{}, suite.agent)

	w = suite.request("GET", "/cars", nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	cars = suite.parse(w)["data"].([]interface{})
	assert.Len(suite.T(), cars, 1)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))
}

func (suite *MarketplaceTestSuite) TestPurchaseFlow() {
	carID := suite.submitCar("MH12AB1234")
	suite.request("POST", "/agent/accept/"+carID, map[string]interface{}{"verification_days": 1}, suite.agent)
	suite.request("POST", "/agent/approve/"+carID, map[string]interface{}{}, suite.agent)

	purchaseBody := map[string]interface{}{
		"car_id":         carID,
		"buyer_name":     "buyer",
		"buyer_phone":    "5550111",
		"address":        "12 Lake Road",
		"city":           "Pune",
		"state":          "Maharashtra",
		"pincode":        "411001",
		"payment_method": "cash",
	}

	w := suite.request("POST", "/purchase/create", purchaseBody, suite.buyer)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	purchase := suite.parse(w)["data"].(map[string]interface{})["purchase"].(map[string]interface{})
	purchaseID := purchase["id"].(string)
	assert.Equal(suite.T(), "sold", purchase["status"])

	// Second purchase of the same car fails.
	w = suite.request("POST", "/purchase/create", purchaseBody, suite.buyer)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Purchase history.
	w = suite.request("GET", "/purchase/my", nil, suite.buyer)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	mine := suite.parse(w)["data"].(map[string]interface{})["purchases"].([]interface{})
	assert.Len(suite.T(), mine, 1)

	// Cancel reopens the car.
	w = suite.request("PATCH", fmt.Sprintf("/purchase/%s/status", purchaseID),
		map[string]interface{}{"status": "cancelled"}, suite.buyer)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var car models.Car
	require.NoError(suite.T(), suite.db.First(&car, "id = ?", carID).Error)
	assert.Equal(suite.T(), models.CarStatusAvailable, car.Status)
}

func (suite *MarketplaceTestSuite) TestNotificationInbox() {
	suite.submitCar("MH12AB1234")

	w := suite.request("GET", "/notifications", nil, suite.seller)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	inbox := suite.parse(w)["data"].([]interface{})
	require.NotEmpty(suite.T(), inbox)

	first := inbox[0].(map[string]interface{})
	notificationID := first["id"].(string)
	assert.Equal(suite.T(), false, first["read"])

	w = suite.request("PATCH", "/notifications/"+notificationID+"/read", nil, suite.seller)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Another user cannot touch it.
	w = suite.request("PATCH", "/notifications/"+notificationID+"/read", nil, suite.buyer)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("DELETE", "/notifications/"+notificationID, nil, suite.seller)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *MarketplaceTestSuite) TestAdminRoutes() {
	w := suite.request("GET", "/admin/dashboard/stats", nil, suite.seller)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.request("GET", "/admin/dashboard/stats", nil, suite.admin)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	stats := suite.parse(w)["data"].(map[string]interface{})["stats"].(map[string]interface{})
	assert.EqualValues(suite.T(), 4, stats["total_users"])

	w = suite.request("GET", "/admin/agents/performance", nil, suite.admin)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *MarketplaceTestSuite) TestHealthCheck() {
	w := suite.request("GET", "/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func TestMarketplaceSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceTestSuite))
}
