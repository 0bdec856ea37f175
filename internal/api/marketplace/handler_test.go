//nolint:noctx // Test file uses http.NewRequest for simplicity
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/service/account"
	"github.com/verdictapp/verdict/internal/service/requests"
	"github.com/verdictapp/verdict/pkg/logger"
	"github.com/verdictapp/verdict/test/mocks"
)

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	v1 := router.Group("/api/v1")
	v1.POST("/session", h.InitSession)
	v1.GET("/profile", h.GetProfile)
	v1.POST("/requests", h.CreateRequest)
	v1.GET("/requests", h.ListOpenRequests)
	v1.GET("/requests/mine", h.ListMyRequests)
	v1.GET("/requests/:id", h.GetRequest)
	v1.POST("/requests/:id/verdicts", h.SubmitVerdict)
	v1.POST("/requests/:id/cancel", h.CancelRequest)
	v1.GET("/earnings/summary", h.GetEarningsSummary)

	return router
}

func newTestHandler(accounts *mocks.MockAccountService, reqs *mocks.MockRequestService, earn *mocks.MockEarningsService) *Handler {
	log := logger.New("debug", "text", "stdout")
	return NewHandlerWithInterfaces(accounts, reqs, earn, log)
}

func authedAccountService() *mocks.MockAccountService {
	return &mocks.MockAccountService{
		GetProfileByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return &models.Profile{ID: 1, AuthID: authID, Credits: 3}, nil
		},
	}
}

func doRequest(router *gin.Engine, method, path string, body interface{}, authID string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authID != "" {
		req.Header.Set("X-Auth-User-ID", authID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInitSession(t *testing.T) {
	accounts := &mocks.MockAccountService{
		InitializeUserFunc: func(ctx context.Context, identity account.Identity) (*account.InitResult, error) {
			assert.Equal(t, "auth0|alice", identity.AuthID)
			assert.Equal(t, "alice@example.com", identity.Email)
			return &account.InitResult{
				IsNewUser: true,
				Profile:   &models.Profile{ID: 1, AuthID: identity.AuthID, Credits: 3},
			}, nil
		},
	}
	router := setupRouter(newTestHandler(accounts, &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	req, _ := http.NewRequest("POST", "/api/v1/session", bytes.NewReader(nil))
	req.Header.Set("X-Auth-User-ID", "auth0|alice")
	req.Header.Set("X-Auth-Email", "alice@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, true, response["is_new_user"])
}

func TestInitSession_MissingIdentity(t *testing.T) {
	router := setupRouter(newTestHandler(&mocks.MockAccountService{}, &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/session", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetProfile(t *testing.T) {
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	w := doRequest(router, "GET", "/api/v1/profile", nil, "auth0|alice")

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Profile models.Profile `json:"profile"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), response.Profile.ID)
	assert.Equal(t, 3, response.Profile.Credits)
}

func TestGetProfile_UnknownProfile(t *testing.T) {
	accounts := &mocks.MockAccountService{
		GetProfileByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return nil, apperrors.ErrProfileNotFound
		},
	}
	router := setupRouter(newTestHandler(accounts, &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	w := doRequest(router, "GET", "/api/v1/profile", nil, "auth0|ghost")

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "PROFILE_NOT_FOUND", response["code"])
}

func TestCreateRequest(t *testing.T) {
	reqs := &mocks.MockRequestService{
		CreateFunc: func(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error) {
			assert.Equal(t, uint(1), userID)
			assert.Equal(t, "design", payload.Category)
			return &models.VerdictRequest{
				ID: 5, UserID: userID, Category: payload.Category,
				Tier: payload.Tier, Status: models.RequestStatusOpen, TargetVerdictCount: 3,
			}, nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests", map[string]string{
		"category": "design",
		"content":  "landing page draft",
		"tier":     "community",
	}, "auth0|alice")

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateRequest_InsufficientCredits(t *testing.T) {
	reqs := &mocks.MockRequestService{
		CreateFunc: func(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error) {
			return nil, apperrors.ErrInsufficientCredits
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests", map[string]string{
		"category": "design",
		"content":  "x",
		"tier":     "community",
	}, "auth0|alice")

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "INSUFFICIENT_CREDITS", response["code"])
}

func TestCreateRequest_UnknownTier(t *testing.T) {
	reqs := &mocks.MockRequestService{
		CreateFunc: func(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error) {
			return nil, apperrors.ErrUnknownTier
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests", map[string]string{
		"category": "design",
		"content":  "x",
		"tier":     "platinum",
	}, "auth0|alice")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "UNKNOWN_TIER", response["code"])
}

func TestCreateRequest_InvalidBody(t *testing.T) {
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	// Missing required fields
	w := doRequest(router, "POST", "/api/v1/requests", map[string]string{"category": "design"}, "auth0|alice")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitVerdict(t *testing.T) {
	reqs := &mocks.MockRequestService{
		AddJudgeVerdictFunc: func(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error) {
			assert.Equal(t, uint(5), requestID)
			assert.Equal(t, uint(1), judgeID)
			assert.Equal(t, 8, payload.Rating)
			return &models.VerdictRequest{ID: requestID, Status: models.RequestStatusInProgress, ReceivedVerdictCount: 1, TargetVerdictCount: 3},
				&models.VerdictResponse{ID: 100, RequestID: requestID, JudgeID: judgeID, Rating: payload.Rating},
				nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/5/verdicts", map[string]interface{}{
		"rating":   8,
		"feedback": "strong concept",
	}, "auth0|alice")

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSubmitVerdict_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"own request", apperrors.ErrCannotJudgeOwnRequest, "CANNOT_JUDGE_OWN_REQUEST"},
		{"already judged", apperrors.ErrAlreadyJudged, "ALREADY_JUDGED"},
		{"request filled", apperrors.ErrRequestFilled, "REQUEST_ALREADY_FILLED"},
		{"request closed", apperrors.ErrRequestClosed, "REQUEST_CLOSED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := &mocks.MockRequestService{
				AddJudgeVerdictFunc: func(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error) {
					return nil, nil, tt.err
				},
			}
			router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

			w := doRequest(router, "POST", "/api/v1/requests/5/verdicts", map[string]interface{}{
				"rating":   8,
				"feedback": "x",
			}, "auth0|alice")

			assert.Equal(t, http.StatusConflict, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCode, response["code"])
		})
	}
}

func TestSubmitVerdict_RequestNotFound(t *testing.T) {
	reqs := &mocks.MockRequestService{
		AddJudgeVerdictFunc: func(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error) {
			return nil, nil, apperrors.ErrRequestNotFound
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/999/verdicts", map[string]interface{}{
		"rating":   8,
		"feedback": "x",
	}, "auth0|alice")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitVerdict_InvalidRating(t *testing.T) {
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/5/verdicts", map[string]interface{}{
		"rating":   11,
		"feedback": "x",
	}, "auth0|alice")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitVerdict_BadRequestID(t *testing.T) {
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/abc/verdicts", map[string]interface{}{
		"rating":   8,
		"feedback": "x",
	}, "auth0|alice")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelRequest(t *testing.T) {
	reqs := &mocks.MockRequestService{
		CancelFunc: func(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error) {
			return &models.VerdictRequest{ID: requestID, UserID: userID, Status: models.RequestStatusCancelled}, nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/5/cancel", nil, "auth0|alice")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelRequest_NotOwner(t *testing.T) {
	reqs := &mocks.MockRequestService{
		CancelFunc: func(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error) {
			return nil, apperrors.ErrNotRequestOwner
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "POST", "/api/v1/requests/5/cancel", nil, "auth0|alice")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListOpenRequests(t *testing.T) {
	reqs := &mocks.MockRequestService{
		ListOpenForJudgeFunc: func(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error) {
			assert.Equal(t, 20, limit)
			return []models.VerdictRequest{
				{ID: 1, Status: models.RequestStatusOpen},
				{ID: 2, Status: models.RequestStatusInProgress},
			}, nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "GET", "/api/v1/requests", nil, "auth0|alice")

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Total int `json:"total"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, 2, response.Total)
}

func TestListOpenRequests_BadLimit(t *testing.T) {
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, &mocks.MockEarningsService{}))

	for _, limit := range []string{"0", "101", "abc"} {
		w := doRequest(router, "GET", "/api/v1/requests?limit="+limit, nil, "auth0|alice")
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit %q", limit)
	}
}

func TestGetEarningsSummary(t *testing.T) {
	earn := &mocks.MockEarningsService{
		SummaryFunc: func(ctx context.Context, judgeID uint) (*models.EarningsSummary, error) {
			return &models.EarningsSummary{
				TotalEarnedCents: 800,
				PendingCents:     150,
				AvailableCents:   150,
				PaidCents:        500,
			}, nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), &mocks.MockRequestService{}, earn))

	w := doRequest(router, "GET", "/api/v1/earnings/summary", nil, "auth0|alice")

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	// Cents are converted to whole units at the API boundary
	assert.Equal(t, 8.0, response["total_earned"])
	assert.Equal(t, 1.5, response["pending"])
	assert.Equal(t, 1.5, response["available_for_payout"])
	assert.Equal(t, 5.0, response["paid"])
}

func TestGetRequest(t *testing.T) {
	reqs := &mocks.MockRequestService{
		GetByIDFunc: func(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error) {
			return &models.VerdictRequest{ID: requestID, UserID: callerID, Status: models.RequestStatusOpen}, nil
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "GET", "/api/v1/requests/5", nil, "auth0|alice")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRequest_NotFound(t *testing.T) {
	reqs := &mocks.MockRequestService{
		GetByIDFunc: func(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error) {
			return nil, apperrors.ErrRequestNotFound
		},
	}
	router := setupRouter(newTestHandler(authedAccountService(), reqs, &mocks.MockEarningsService{}))

	w := doRequest(router, "GET", "/api/v1/requests/999", nil, "auth0|alice")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
