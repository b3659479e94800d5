package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/internal/validator"
	"metalhub_backend/pkg/apperrors"
	"metalhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth authenticates whoever is named in X-Test-User / X-Test-Role.
func fakeAuth(c *gin.Context) {
	userID := c.GetHeader("X-Test-User")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header required"))
		return
	}
	c.Set(contextkeys.UserIDKey, userID)
	c.Set(contextkeys.RoleKey, c.GetHeader("X-Test-Role"))
	c.Next()
}

func newRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(string(contextkeys.DBContextKey), &gorm.DB{})
		c.Next()
	})
	register(r.Group("/api/v1"))
	return r
}

type testRequest struct {
	method string
	path   string
	body   string
	user   string
	role   models.UserRole
	header map[string]string
}

func do(r *gin.Engine, tr testRequest) *httptest.ResponseRecorder {
	req := httptest.NewRequest(tr.method, tr.path, strings.NewReader(tr.body))
	if tr.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tr.user != "" {
		req.Header.Set("X-Test-User", tr.user)
		req.Header.Set("X-Test-Role", string(tr.role))
	}
	for k, v := range tr.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func newBase() *BaseHandler {
	return NewBaseHandler(validator.New())
}

// ---- listings ----

type fakeListingService struct {
	lastQuery  *dto.ListingQuery
	lastSeller string
	createErr  error
	findErr    error
}

func (f *fakeListingService) Create(_ context.Context, _ *gorm.DB, sellerID string, req *dto.CreateListingRequest) (*dto.ListingResponse, error) {
	f.lastSeller = sellerID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.ListingResponse{}, nil
}

func (f *fakeListingService) Update(_ context.Context, _ *gorm.DB, sellerID, _ string, _ *dto.UpdateListingRequest) (*dto.ListingResponse, error) {
	f.lastSeller = sellerID
	return &dto.ListingResponse{}, nil
}

func (f *fakeListingService) Delete(_ context.Context, _ *gorm.DB, sellerID, _ string) error {
	f.lastSeller = sellerID
	return nil
}

func (f *fakeListingService) FindOne(_ context.Context, _ *gorm.DB, _ string) (*dto.ListingResponse, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &dto.ListingResponse{}, nil
}

func (f *fakeListingService) Search(_ context.Context, _ *gorm.DB, query *dto.ListingQuery) (*dto.ListingPage, error) {
	f.lastQuery = query
	return &dto.ListingPage{Listings: []dto.ListingResponse{}, Pagination: dto.Pagination{Page: 1, Limit: 20}}, nil
}

func (f *fakeListingService) MyListings(_ context.Context, _ *gorm.DB, sellerID string) ([]dto.ListingResponse, error) {
	f.lastSeller = sellerID
	return []dto.ListingResponse{}, nil
}

func (f *fakeListingService) PendingListings(context.Context, *gorm.DB, int, int) (*dto.ListingPage, error) {
	return &dto.ListingPage{}, nil
}

func (f *fakeListingService) Approve(context.Context, *gorm.DB, string) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (f *fakeListingService) Reject(context.Context, *gorm.DB, string) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (f *fakeListingService) Feature(context.Context, *gorm.DB, string, int) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func TestListingHandler(t *testing.T) {
	svc := &fakeListingService{}
	h := NewListingHandler(newBase(), svc)
	r := newRouter(func(rg *gin.RouterGroup) { h.RegisterRoutes(rg, fakeAuth) })

	t.Run("search is public and splits csv filters", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodGet, path: "/api/v1/listings?metal=Copper,%20Zinc&metal=Lead&country=IN&sortBy=price-low"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"Copper", "Zinc", "Lead"}, svc.lastQuery.Metal)
		assert.Equal(t, []string{"IN"}, svc.lastQuery.Country)
		assert.Equal(t, "price-low", svc.lastQuery.SortBy)
	})

	t.Run("unknown sort rejected", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodGet, path: "/api/v1/listings?sortBy=cheapest"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("my listings requires auth", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodGet, path: "/api/v1/listings/my"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = do(r, testRequest{method: http.MethodGet, path: "/api/v1/listings/my", user: "s1", role: models.UserRoleSeller})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "s1", svc.lastSeller)
	})

	t.Run("admin cannot create listings", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/listings", body: `{}`, user: "a1", role: models.UserRoleAdmin})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("create validates body", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/listings", body: `{"title":"x"}`, user: "s1", role: models.UserRoleSeller})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service errors map to status", func(t *testing.T) {
		svc.findErr = apperrors.ErrListingNotFound
		defer func() { svc.findErr = nil }()

		w := do(r, testRequest{method: http.MethodGet, path: "/api/v1/listings/missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.CodeNotFound, errorCode(t, w))
	})

	t.Run("delete own listing", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodDelete, path: "/api/v1/listings/l1", user: "s2", role: models.UserRoleBuyer})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "s2", svc.lastSeller)
	})
}

// ---- offers ----

type fakeOfferService struct {
	decided   []string
	decideErr error
	created   *dto.CreateOfferRequest
}

func (f *fakeOfferService) CreateOffer(_ context.Context, _ *gorm.DB, buyerID, listingID string, req *dto.CreateOfferRequest) (*models.Offer, error) {
	f.created = req
	return &models.Offer{ListingID: listingID, BuyerID: buyerID, OfferPrice: req.OfferPrice}, nil
}

func (f *fakeOfferService) Accept(_ context.Context, _ *gorm.DB, _, offerID string) (*models.Offer, error) {
	return f.decide("accept:" + offerID)
}

func (f *fakeOfferService) Reject(_ context.Context, _ *gorm.DB, _, offerID string) (*models.Offer, error) {
	return f.decide("reject:" + offerID)
}

func (f *fakeOfferService) decide(tag string) (*models.Offer, error) {
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	f.decided = append(f.decided, tag)
	return &models.Offer{}, nil
}

func (f *fakeOfferService) ListForListing(context.Context, *gorm.DB, string, string) ([]models.Offer, error) {
	return []models.Offer{}, nil
}

func (f *fakeOfferService) ListMine(context.Context, *gorm.DB, string) ([]models.Offer, error) {
	return []models.Offer{}, nil
}

func TestOfferHandler(t *testing.T) {
	svc := &fakeOfferService{}
	h := NewOfferHandler(newBase(), svc)
	r := newRouter(func(rg *gin.RouterGroup) { h.RegisterRoutes(rg, fakeAuth) })

	t.Run("create", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/listing/l1", body: `{"offerPrice":950.5}`, user: "b1", role: models.UserRoleBuyer})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 950.5, svc.created.OfferPrice)
	})

	t.Run("price must be positive", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/listing/l1", body: `{"offerPrice":0}`, user: "b1", role: models.UserRoleBuyer})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("accept and reject", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/o1/accept", user: "s1", role: models.UserRoleSeller})
		assert.Equal(t, http.StatusOK, w.Code)
		w = do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/o2/reject", user: "s1", role: models.UserRoleSeller})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"accept:o1", "reject:o2"}, svc.decided)
	})

	t.Run("decided offer", func(t *testing.T) {
		svc.decideErr = apperrors.ErrOfferNotPending
		defer func() { svc.decideErr = nil }()

		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/o1/accept", user: "s1", role: models.UserRoleSeller})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin cannot decide", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/offers/o1/accept", user: "a1", role: models.UserRoleAdmin})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("everything needs auth", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodGet, path: "/api/v1/offers/my"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// ---- payment ----

type fakePaymentService struct {
	body      []byte
	signature string
	order     *dto.CreateOrderRequest
}

func (f *fakePaymentService) CreateOrder(_ context.Context, _ *gorm.DB, _ string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	f.order = req
	return &dto.CreateOrderResponse{OrderID: "order_1", Amount: 99900, Currency: "INR"}, nil
}

func (f *fakePaymentService) HandleWebhook(_ context.Context, _ *gorm.DB, body []byte, signature string) error {
	f.body = body
	f.signature = signature
	if signature != "good" {
		return apperrors.ErrInvalidWebhookSignature
	}
	return nil
}

func (f *fakePaymentService) History(context.Context, *gorm.DB, string) ([]models.Payment, error) {
	return []models.Payment{}, nil
}

func TestPaymentHandler(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(newBase(), svc)
	r := newRouter(func(rg *gin.RouterGroup) { h.RegisterRoutes(rg, fakeAuth) })

	t.Run("create order", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/payment/create-order", body: `{"plan":"GOLD"}`, user: "u1", role: models.UserRoleBuyer})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, models.PlanGold, svc.order.Plan)
		assert.Contains(t, w.Body.String(), `"orderId":"order_1"`)
	})

	t.Run("unknown plan", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/payment/create-order", body: `{"plan":"PLATINUM"}`, user: "u1", role: models.UserRoleBuyer})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("webhook passes raw body and signature", func(t *testing.T) {
		payload := `{"event":"payment.captured"}`
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/payment/webhook", body: payload, header: map[string]string{webhookSignatureHeader: "good"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, string(svc.body))
		assert.Equal(t, "good", svc.signature)
	})

	t.Run("webhook bad signature", func(t *testing.T) {
		w := do(r, testRequest{method: http.MethodPost, path: "/api/v1/payment/webhook", body: `{}`, header: map[string]string{webhookSignatureHeader: "bad"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 20},
		{"page=3&limit=50", 3, 50},
		{"page=0&limit=500", 1, 100},
		{"page=x&limit=-2", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			page, limit := ParsePagination(c)
			assert.Equal(t, tc.page, page)
			assert.Equal(t, tc.limit, limit)
		})
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(nil))
	assert.Equal(t, []string{"a", "b", "c"}, splitCSV([]string{"a, b", " ", "c,"}))
}
