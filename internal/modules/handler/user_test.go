package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/scope"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetOrCreate(ctx context.Context, ident scope.Identity) (*model.UserProfile, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]model.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProfile), args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, userID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserService) UpdateRate(ctx context.Context, userID string, rate *float64) error {
	return m.Called(ctx, userID, rate).Error(0)
}

func newUserRouter(svc *MockUserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	serializer.SetLogger(zap.NewNop())

	admin := &model.UserProfile{ID: "boss", Email: "boss@example.com", Role: model.RoleAdmin}
	h := NewUserHandler(svc)
	r := gin.New()
	r.Use(testAuth(&scope.Identity{ID: admin.ID, Email: admin.Email}, admin))
	r.GET("/me", h.GetMe)
	r.GET("/users", h.GetUsers)
	r.PUT("/users/:user_id/role", h.UpdateRole)
	r.PUT("/users/:user_id/rate", h.UpdateRate)
	return r
}

func TestUserHandler_GetMe(t *testing.T) {
	r := newUserRouter(&MockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boss@example.com")
}

func TestUserHandler_UpdateRole(t *testing.T) {
	t.Run("valid role", func(t *testing.T) {
		svc := &MockUserService{}
		svc.On("UpdateRole", mock.Anything, "u1", model.RoleAdmin).Return(nil)
		r := newUserRouter(svc)

		req := httptest.NewRequest(http.MethodPut, "/users/u1/role", strings.NewReader(`{"role":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown role fails binding", func(t *testing.T) {
		r := newUserRouter(&MockUserService{})

		req := httptest.NewRequest(http.MethodPut, "/users/u1/role", strings.NewReader(`{"role":"owner"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_UpdateRate(t *testing.T) {
	t.Run("sets a rate", func(t *testing.T) {
		svc := &MockUserService{}
		svc.On("UpdateRate", mock.Anything, "u1", mock.MatchedBy(func(rate *float64) bool {
			return rate != nil && *rate == 55
		})).Return(nil)
		r := newUserRouter(svc)

		req := httptest.NewRequest(http.MethodPut, "/users/u1/rate", strings.NewReader(`{"hourly_rate":55}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("null clears the rate", func(t *testing.T) {
		svc := &MockUserService{}
		svc.On("UpdateRate", mock.Anything, "u1", (*float64)(nil)).Return(nil)
		r := newUserRouter(svc)

		req := httptest.NewRequest(http.MethodPut, "/users/u1/rate", strings.NewReader(`{"hourly_rate":null}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})
}
