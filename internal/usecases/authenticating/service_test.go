package authenticating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	metamocks "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient/mocks"
	repomocks "github.com/vfg2006/meta-insights-proxy/infrastructure/repository/mocks"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"go.uber.org/mock/gomock"
)

const testSecret = "segredo-de-teste"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service *Service
	repo    *repomocks.MockUserRepository
	client  *metamocks.MockClient
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockUserRepository(ctrl)
	client := metamocks.NewMockClient(ctrl)

	service := NewService(repo, client, &config.Config{Auth: config.Auth{Secret: testSecret}})
	service.now = func() time.Time { return fixedNow }

	return fixture{service: service, repo: repo, client: client}
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims domain.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestService_ValidateToken(t *testing.T) {
	f := newFixture(t)

	valid := signToken(t, jwt.SigningMethodHS256, testSecret, domain.Claims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
	})
	expired := signToken(t, jwt.SigningMethodHS256, testSecret, domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(-time.Minute)),
		},
	})
	wrongSecret := signToken(t, jwt.SigningMethodHS256, "outro", domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	wrongMethod := signToken(t, jwt.SigningMethodHS512, testSecret, domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	noSubject := signToken(t, jwt.SigningMethodHS256, testSecret, domain.Claims{})

	claims, err := f.service.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "ana@example.com", claims.Email)

	tests := []struct {
		name     string
		token    string
		wantErr  error
		wantCode string
	}{
		{"ausente", "", ErrMissingCredential, apiErrors.ErrMissingCredential},
		{"expirado", expired, ErrExpiredToken, apiErrors.ErrExpiredToken},
		{"segredo errado", wrongSecret, ErrInvalidToken, apiErrors.ErrInvalidToken},
		{"algoritmo não aceito", wrongMethod, ErrInvalidToken, apiErrors.ErrInvalidToken},
		{"sem subject", noSubject, ErrInvalidToken, apiErrors.ErrInvalidToken},
		{"lixo", "abc.def.ghi", ErrInvalidToken, apiErrors.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.wantCode, authErr.Code)
			assert.True(t, IsCredentialsError(err))
		})
	}
}

func TestService_GetConnectedUser(t *testing.T) {
	future := fixedNow.Add(24 * time.Hour)
	past := fixedNow.Add(-time.Hour)

	tests := []struct {
		name    string
		user    *domain.User
		repoErr error
		wantErr error
	}{
		{"conectado", &domain.User{ID: "u", Metadata: domain.UserMetadata{MetaAccessToken: "tok", MetaTokenExpiresAt: &future}}, nil, nil},
		{"sem expiração conhecida", &domain.User{ID: "u", Metadata: domain.UserMetadata{MetaAccessToken: "tok"}}, nil, nil},
		{"usuário inexistente", nil, nil, ErrMetaNotConnected},
		{"sem token", &domain.User{ID: "u"}, nil, ErrMetaNotConnected},
		{"token expirado", &domain.User{ID: "u", Metadata: domain.UserMetadata{MetaAccessToken: "tok", MetaTokenExpiresAt: &past}}, nil, ErrMetaTokenExpired},
		{"falha no banco", nil, errors.New("timeout"), ErrDatabaseOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.EXPECT().GetUserByID(gomock.Any(), "u").Return(tt.user, tt.repoErr)

			user, err := f.service.GetConnectedUser(context.Background(), "u")
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "tok", user.Metadata.MetaAccessToken)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Authenticate_PersistsConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.EXPECT().GetMe(ctx, "short").Return(&metadomain.User{ID: "99", Name: "Ana"}, nil)
	f.client.EXPECT().ExchangeToken(ctx, "short").Return(&metadomain.TokenResponse{AccessToken: "long", ExpiresIn: 3600}, nil)

	var patch map[string]any
	f.repo.EXPECT().UpdateUserMetadata(ctx, "user-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, p map[string]any) error {
			patch = p
			return nil
		})

	resp, err := f.service.Authenticate(ctx, "user-1", domain.MetaAuthRequest{
		Action:      domain.MetaAuthActionAuthenticate,
		AccessToken: "short",
		AppUserID:   "app-7",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, fixedNow.Add(time.Hour), resp.ExpiresAt)
	assert.Equal(t, "99", resp.MetaUserID)

	assert.Equal(t, "long", patch["meta_access_token"])
	assert.Equal(t, "2025-03-01T13:00:00Z", patch["meta_token_expires_at"])
	assert.Equal(t, "99", patch["meta_user_id"])
	assert.Equal(t, "Ana", patch["meta_user_name"])
	assert.Equal(t, "app-7", patch["app_user_id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", patch["meta_connected_at"])
}

func TestService_Authenticate_UpstreamRejection(t *testing.T) {
	f := newFixture(t)

	f.client.EXPECT().GetMe(gomock.Any(), "bad").
		Return(nil, &metadomain.UpstreamError{Message: "Invalid OAuth access token.", Code: 190})

	_, err := f.service.Authenticate(context.Background(), "user-1", domain.MetaAuthRequest{AccessToken: "bad"})
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, apiErrors.ErrUpstream, authErr.Code)
	assert.Equal(t, "Invalid OAuth access token.", authErr.Message())
	assert.NotContains(t, err.Error(), "bad")
}

func TestService_Authenticate_MissingToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Authenticate(context.Background(), "user-1", domain.MetaAuthRequest{})

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, apiErrors.ErrMissingRequiredData, authErr.Code)
}

func TestService_RefreshToken_UsesStoredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.EXPECT().GetUserByID(ctx, "user-1").
		Return(&domain.User{ID: "user-1", Metadata: domain.UserMetadata{MetaAccessToken: "stored"}}, nil)
	f.client.EXPECT().ExchangeToken(ctx, "stored").Return(&metadomain.TokenResponse{AccessToken: "fresh"}, nil)
	f.repo.EXPECT().UpdateUserMetadata(ctx, "user-1", map[string]any{
		"meta_access_token":     "fresh",
		"meta_token_expires_at": fixedNow.Add(60 * 24 * time.Hour).Format(time.RFC3339),
	}).Return(nil)

	resp, err := f.service.RefreshToken(ctx, "user-1", "")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, fixedNow.Add(60*24*time.Hour), resp.ExpiresAt)
}

func TestService_RefreshToken_NothingToRefresh(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1"}, nil)

	_, err := f.service.RefreshToken(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, ErrMetaTokenNotProvided)
}

func TestService_RefreshExpiring_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().ListUsersWithExpiringMetaToken(gomock.Any(), fixedNow.Add(7*24*time.Hour)).Return([]*domain.User{
		{ID: "a", Metadata: domain.UserMetadata{MetaAccessToken: "tok-a"}},
		{ID: "b", Metadata: domain.UserMetadata{MetaAccessToken: "tok-b"}},
		{ID: "c", Metadata: domain.UserMetadata{MetaAccessToken: "tok-c"}},
	}, nil)

	f.client.EXPECT().ExchangeToken(gomock.Any(), "tok-a").Return(&metadomain.TokenResponse{AccessToken: "new-a"}, nil)
	f.client.EXPECT().ExchangeToken(gomock.Any(), "tok-b").Return(nil, &metadomain.UpstreamError{Message: "Session has expired", Code: 190})
	f.client.EXPECT().ExchangeToken(gomock.Any(), "tok-c").Return(&metadomain.TokenResponse{AccessToken: "new-c"}, nil)
	f.repo.EXPECT().UpdateUserMetadata(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	summary, err := f.service.RefreshExpiring(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, RefreshSummary{Refreshed: 2, Failed: 1}, summary)
}
