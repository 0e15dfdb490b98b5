package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/controllers"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/kendall-kelly/tee-store-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	customerID = "auth0|customer"
	adminID    = "auth0|admin"
)

// StoreAcceptanceTestSuite walks shopper and admin journeys over a real HTTP server
type StoreAcceptanceTestSuite struct {
	suite.Suite
	server  *httptest.Server
	fixture *testutil.Fixture
	client  *http.Client
}

// SetupSuite runs once before all tests
func (suite *StoreAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
	suite.client = &http.Client{}
}

// SetupTest starts a fresh store for each test
func (suite *StoreAcceptanceTestSuite) SetupTest() {
	f := testutil.NewFixture(suite.T())
	f.CreateProfile(suite.T(), adminID, "Store Admin", "admin@example.com", "admin")
	suite.fixture = f

	router := gin.New()
	router.Use(gin.Recovery())
	controllers.RegisterRoutes(router.Group("/api/v1"), controllers.NewHandlers(f.Services, f.Log), controllers.Auth{
		Required: testutil.MockAuth(true),
		Optional: testutil.MockAuth(false),
		Admin:    middleware.RequireAdmin(f.Services.Profiles, f.Log),
	})
	suite.server = httptest.NewServer(router)
}

// TearDownTest stops the server
func (suite *StoreAcceptanceTestSuite) TearDownTest() {
	suite.server.Close()
}

// makeRequest is a helper to make JSON requests as userID
func (suite *StoreAcceptanceTestSuite) makeRequest(method, path, userID string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, reader)
	suite.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return suite.do(req, userID)
}

// makeMultipartRequest posts form fields and files as userID
func (suite *StoreAcceptanceTestSuite) makeMultipartRequest(path, userID string, fields map[string]string, files ...testutil.FormFile) (*http.Response, map[string]interface{}) {
	body, contentType := testutil.MultipartBody(suite.T(), fields, files...)
	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, body)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", contentType)
	return suite.do(req, userID)
}

func (suite *StoreAcceptanceTestSuite) do(req *http.Request, userID string) (*http.Response, map[string]interface{}) {
	if userID != "" {
		req.Header.Set(testutil.UserHeader, userID)
	}
	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var response map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

// expect asserts the status code and returns the data object
func (suite *StoreAcceptanceTestSuite) expect(status int, resp *http.Response, response map[string]interface{}) map[string]interface{} {
	suite.Require().Equal(status, resp.StatusCode, "Unexpected response: %v", response)
	data, _ := response["data"].(map[string]interface{})
	return data
}

// signUp registers a customer the way the storefront does after login
func (suite *StoreAcceptanceTestSuite) signUp(userID, name, email string) {
	suite.fixture.UserInfo.SetUser(testutil.AccessToken(userID), services.Auth0UserInfo{Sub: userID, Email: email, Name: name})
	resp, response := suite.makeRequest(http.MethodPost, "/api/v1/users", userID, nil)
	profile := suite.expect(http.StatusCreated, resp, response)
	suite.Equal("customer", profile["role"])
}

// TestShopperBuysOneOfOne covers the storefront from listing to delivery
func (suite *StoreAcceptanceTestSuite) TestShopperBuysOneOfOne() {
	t := suite.T()
	suite.signUp(customerID, "Ada Obi", "ada@example.com")

	// Admin lists a new piece
	resp, response := suite.makeRequest(http.MethodPost, "/api/v1/admin/products", adminID, map[string]interface{}{
		"name":     "Eko Night Tee",
		"price":    "18000",
		"category": "tees",
		"colors":   []string{"Black"},
	})
	productID := suite.expect(http.StatusCreated, resp, response)["id"].(string)

	// Shopper saves it, then buys it
	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/wishlist", customerID, controllers.AddWishlistRequest{ProductID: productID})
	suite.expect(http.StatusCreated, resp, response)

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/products/"+productID, customerID, nil)
	product := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, true, product["wishlisted"])

	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/cart/items", customerID, controllers.AddCartItemRequest{ProductID: productID, Size: "L", Color: "Black", Quantity: 3})
	cart := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, float64(1), cart["total_items"], "One-of-one pieces are capped at one")

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/shipping?region=Ogun", customerID, nil)
	quote := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, "2000", quote["shipping_cost"])
	assert.Equal(t, "20000", quote["total"])

	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/checkout", customerID, services.CheckoutInput{
		Name: "Ada Obi", Email: "ada@example.com", Phone: "08030000000", Address: "4 Sagamu Road", City: "Abeokuta", State: "Ogun",
	})
	instructions := suite.expect(http.StatusCreated, resp, response)
	order := instructions["order"].(map[string]interface{})
	orderID := order["id"].(string)
	assert.Equal(t, "20000", order["total_amount"])
	assert.Equal(t, "₦20,000", instructions["amount_display"])
	assert.Regexp(t, `^PTTEE-`, instructions["payment_code"])

	// Shopper sends proof of the transfer
	resp, response = suite.makeMultipartRequest("/api/v1/orders/"+orderID+"/receipt", customerID, nil,
		testutil.FormFile{Field: "receipt", Name: "transfer.jpg", Content: []byte("jpeg")})
	order = suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, string(models.OrderPendingConfirmation), order["status"])

	// Admin reviews the receipt and moves the order along
	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/admin/orders?status="+url.QueryEscape(string(models.OrderPendingConfirmation)), adminID, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Len(t, response["data"], 1)

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/admin/orders/"+orderID+"/receipt", adminID, nil)
	link := suite.expect(http.StatusOK, resp, response)
	assert.Contains(t, link["url"], "?expires=900")

	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/confirm", adminID, nil)
	suite.expect(http.StatusOK, resp, response)

	for _, status := range []models.OrderStatus{models.OrderShipped, models.OrderDelivered, models.OrderCompleted} {
		resp, response = suite.makeRequest(http.MethodPut, "/api/v1/admin/orders/"+orderID+"/status", adminID, controllers.UpdateOrderStatusRequest{Status: status})
		order = suite.expect(http.StatusOK, resp, response)
		assert.Equal(t, string(status), order["status"])
	}

	// The piece moved to the sold archive
	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/products?available=true", "", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Empty(t, response["data"])

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/products/sold", "", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	sold := response["data"].([]interface{})
	suite.Require().Len(sold, 1)
	assert.Equal(t, productID, sold[0].(map[string]interface{})["id"])

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/admin/orders/"+orderID+"/history", adminID, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, len(response["data"].([]interface{})), 5)

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/admin/stats", adminID, nil)
	stats := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, "20000", stats["total_revenue"])
	assert.Equal(t, float64(1), stats["sold_products"])
}

// TestShopperCommissionsDesign covers a custom request from idea to payment
func (suite *StoreAcceptanceTestSuite) TestShopperCommissionsDesign() {
	t := suite.T()
	suite.signUp(customerID, "Ada Obi", "ada@example.com")

	resp, response := suite.makeMultipartRequest("/api/v1/custom-requests", customerID, map[string]string{
		"description": "Our family cat in sunglasses",
		"shirt_color": "White",
	}, testutil.FormFile{Field: "reference_images", Name: "cat.jpg", Content: []byte("jpeg")})
	request := suite.expect(http.StatusCreated, resp, response)
	requestID := request["id"].(string)
	assert.Equal(t, string(models.RequestUnderReview), request["status"])
	assert.Equal(t, "Ada Obi", request["user_name"])

	// Admin picks it up and drafts two options
	resp, response = suite.makeRequest(http.MethodPut, "/api/v1/admin/custom-requests/"+requestID+"/status", adminID, controllers.UpdateRequestStatusRequest{Status: models.RequestInProgress})
	suite.expect(http.StatusOK, resp, response)

	resp, response = suite.makeMultipartRequest("/api/v1/admin/custom-requests/"+requestID+"/mockups", adminID, map[string]string{
		"name": "Cat Front Print", "price": "21000", "url": "https://cdn.example.com/front.png",
	})
	request = suite.expect(http.StatusCreated, resp, response)
	frontID := request["mockups"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, response = suite.makeMultipartRequest("/api/v1/admin/custom-requests/"+requestID+"/mockups", adminID, map[string]string{
		"name": "Cat Back Print", "price": "24000", "url": "https://cdn.example.com/back.png",
	})
	request = suite.expect(http.StatusCreated, resp, response)
	assert.Equal(t, string(models.RequestMockupReady), request["status"])

	// Shopper picks the first option
	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/custom-requests", customerID, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Len(t, response["data"], 1)

	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/cart/items", customerID, controllers.AddCartItemRequest{
		CustomRequestID: requestID, CustomMockupID: frontID, Size: "M",
	})
	cart := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, "21000", cart["total_price"])

	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/checkout", customerID, services.CheckoutInput{
		Name: "Ada Obi", Email: "ada@example.com", Phone: "08030000000", Address: "9 Aminu Kano Crescent", City: "Wuse", State: "FCT",
	})
	instructions := suite.expect(http.StatusCreated, resp, response)
	orderID := instructions["order"].(map[string]interface{})["id"].(string)
	assert.Equal(t, "26000", instructions["order"].(map[string]interface{})["total_amount"])

	// The bank reports the transfer
	suite.fixture.Verifier.SetResult("TX-PENDING", services.VerificationPending)
	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/verify", customerID, controllers.VerifyPaymentRequest{TransactionID: "TX-PENDING"})
	suite.expect(http.StatusOK, resp, response)

	suite.fixture.Verifier.SetResult("TX-DONE", services.VerificationSuccessful)
	resp, response = suite.makeRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/verify", customerID, controllers.VerifyPaymentRequest{TransactionID: "TX-DONE"})
	suite.expect(http.StatusOK, resp, response)

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/orders/"+orderID, customerID, nil)
	order := suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, string(models.OrderCompleted), order["status"])

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/custom-requests/"+requestID, customerID, nil)
	request = suite.expect(http.StatusOK, resp, response)
	assert.Equal(t, string(models.RequestCompleted), request["status"])
	assert.Equal(t, "21000", request["final_price"])
	assert.Equal(t, orderID, request["order_id"])
}

// TestGuestJourney covers what a visitor can do before signing in
func (suite *StoreAcceptanceTestSuite) TestGuestJourney() {
	t := suite.T()
	suite.fixture.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

	resp, response := suite.makeRequest(http.MethodGet, "/api/v1/products?search=sunset", "", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Len(t, response["data"], 1)

	resp, response = suite.makeMultipartRequest("/api/v1/custom-requests", "", map[string]string{
		"name":        "Tunde Bako",
		"email":       "tunde@example.com",
		"description": "Danfo bus silhouette",
	})
	suite.expect(http.StatusCreated, resp, response)

	resp, _ = suite.makeRequest(http.MethodPost, "/api/v1/cart/items", "", controllers.AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "Adding to cart requires signing in")

	resp, _ = suite.makeRequest(http.MethodGet, "/api/v1/custom-requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, response = suite.makeRequest(http.MethodGet, "/api/v1/admin/custom-requests", adminID, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	requests := response["data"].([]interface{})
	suite.Require().Len(requests, 1)
	assert.Nil(t, requests[0].(map[string]interface{})["user_id"])
}

// TestStoreAcceptanceTestSuite runs the test suite
func TestStoreAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(StoreAcceptanceTestSuite))
}
