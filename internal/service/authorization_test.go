package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

func testApplication() *domain.Application {
	return &domain.Application{
		ID:          uuid.New(),
		Name:        "Loja",
		Domain:      "loja.example.com",
		RedirectURL: "https://loja.example.com/auth/callback",
		OwnerID:     uuid.New(),
	}
}

func TestAuthorizationService_Issue(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		redirect   string
		setupMocks func(*MockAuthorizationCodeRepository)
		wantErr    error
		wantOrigin string
	}{
		{
			name:     "issues code for allowed redirect",
			redirect: "https://loja.example.com/cart?id=7",
			setupMocks: func(repo *MockAuthorizationCodeRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.AuthorizationCode) bool {
					return c.UserID == userID &&
						c.CreatedAt.Equal(now) &&
						c.ExpiresAt.Equal(now.Add(time.Hour)) &&
						len(c.CodeHash) == 64
				})).Return(nil)
			},
			wantOrigin: "https://loja.example.com/cart?id=7",
		},
		{
			name:     "empty redirect falls back to the registered one",
			redirect: "",
			setupMocks: func(repo *MockAuthorizationCodeRepository) {
				repo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			wantOrigin: "https://loja.example.com/auth/callback",
		},
		{
			name:       "foreign redirect is rejected",
			redirect:   "https://evil.example.net/",
			setupMocks: func(repo *MockAuthorizationCodeRepository) {},
			wantErr:    domain.ErrRedirectNotAllowed,
		},
		{
			name:     "storage failure",
			redirect: "https://loja.example.com/",
			setupMocks: func(repo *MockAuthorizationCodeRepository) {
				repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			wantErr: errors.New("store authorization code"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAuthorizationCodeRepository)
			tt.setupMocks(repo)

			svc := NewAuthorizationService(repo, nil, 0)
			svc.now = func() time.Time { return now }

			app := testApplication()
			issued, err := svc.Issue(context.Background(), userID, app, tt.redirect)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrRedirectNotAllowed) {
					assert.ErrorIs(t, err, domain.ErrRedirectNotAllowed)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, issued.Code)
			assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)

			u, err := url.Parse(issued.RedirectURL)
			require.NoError(t, err)
			assert.Equal(t, "loja.example.com", u.Host)
			assert.Equal(t, "/auth/callback", u.Path)
			assert.Equal(t, issued.Code, u.Query().Get("authorizationCode"))
			assert.Equal(t, tt.wantOrigin, u.Query().Get("redirectUrl"))

			// only the hash is persisted
			created := repo.Calls[0].Arguments.Get(1).(*domain.AuthorizationCode)
			assert.Equal(t, domain.HashToken(issued.Code), created.CodeHash)
			assert.NotEqual(t, issued.Code, created.CodeHash)

			repo.AssertExpectations(t)
		})
	}
}

func TestAuthorizationService_Issue_ConcurrentCodesCoexist(t *testing.T) {
	repo := new(MockAuthorizationCodeRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewAuthorizationService(repo, nil, time.Hour)
	app := testApplication()
	userID := uuid.New()

	first, err := svc.Issue(context.Background(), userID, app, "")
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), userID, app, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestAuthorizationService_Issue_RequiresUser(t *testing.T) {
	svc := NewAuthorizationService(new(MockAuthorizationCodeRepository), nil, time.Hour)
	_, err := svc.Issue(context.Background(), uuid.Nil, testApplication(), "")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}
