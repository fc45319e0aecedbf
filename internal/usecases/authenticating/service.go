package authenticating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	metadomain "github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/repository"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

//go:generate mockgen -source=service.go -destination=mocks/authenticator_mock.go -package=mocks
type Authenticator interface {
	ValidateToken(tokenString string) (*domain.Claims, error)
	GetConnectedUser(ctx context.Context, userID string) (*domain.User, error)
	Authenticate(ctx context.Context, userID string, req domain.MetaAuthRequest) (*domain.MetaAuthResponse, error)
	RefreshToken(ctx context.Context, userID, accessToken string) (*domain.MetaAuthResponse, error)
	RefreshExpiring(ctx context.Context, threshold time.Duration) (RefreshSummary, error)
}

// RefreshSummary resume uma execução da renovação agendada de tokens
type RefreshSummary struct {
	Refreshed int
	Failed    int
}

type Service struct {
	userRepo repository.UserRepository
	client   metaclient.Client
	cfg      *config.Config
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, client metaclient.Client, cfg *config.Config) *Service {
	return &Service{
		userRepo: userRepo,
		client:   client,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ValidateToken valida o bearer token HS256 emitido pelo provedor de identidade
func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	if tokenString == "" {
		return nil, NewAuthError(ErrMissingCredential, apiErrors.ErrMissingCredential, "")
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, credentialError(ErrExpiredToken)
		}
		return nil, credentialError(err)
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, credentialError(ErrInvalidToken)
	}

	if claims.UserID() == "" {
		return nil, credentialError(errors.New("token sem subject"))
	}

	return claims, nil
}

// GetConnectedUser carrega o usuário e garante que existe um token do Meta válido
func (s *Service) GetConnectedUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, NewUserAuthError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, userID, err.Error())
	}

	if user == nil || user.Metadata.MetaAccessToken == "" {
		return nil, NewUserAuthError(ErrMetaNotConnected, apiErrors.ErrMetaNotConnected, userID, "")
	}

	if !user.HasMetaConnection(s.now()) {
		return nil, NewUserAuthError(ErrMetaTokenExpired, apiErrors.ErrMetaTokenExpired, userID, "")
	}

	return user, nil
}

// Authenticate verifica o token no Meta, troca por um de longa duração e persiste a conexão
func (s *Service) Authenticate(ctx context.Context, userID string, req domain.MetaAuthRequest) (*domain.MetaAuthResponse, error) {
	if req.AccessToken == "" {
		return nil, NewUserAuthError(ErrInvalidRequest, apiErrors.ErrMissingRequiredData, userID, "access_token é obrigatório")
	}

	logger := log.ForContext(ctx)

	me, err := s.client.GetMe(ctx, req.AccessToken)
	if err != nil {
		logger.WithError(err).Warn("auth: token do Meta rejeitado na verificação")
		return nil, verificationError(userID, err)
	}

	exchanged, err := s.client.ExchangeToken(ctx, req.AccessToken)
	if err != nil {
		logger.WithError(err).Warn("auth: falha ao trocar token por um de longa duração")
		return nil, verificationError(userID, err)
	}

	now := s.now().UTC()
	expiresAt := metaclient.TokenExpiration(now, exchanged.ExpiresIn)

	patch := map[string]any{
		"meta_access_token":     exchanged.AccessToken,
		"meta_token_expires_at": expiresAt.Format(time.RFC3339),
		"meta_user_id":          me.ID,
		"meta_user_name":        me.Name,
		"meta_connected_at":     now.Format(time.RFC3339),
	}
	if req.AppUserID != "" {
		patch["app_user_id"] = req.AppUserID
	}

	if err := s.userRepo.UpdateUserMetadata(ctx, userID, patch); err != nil {
		logger.WithError(err).Error("auth: erro ao persistir conexão com o Meta")
		return nil, NewUserAuthError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, userID, err.Error())
	}

	logger.WithField("meta_user_id", me.ID).Info("auth: conta do Meta conectada")

	return &domain.MetaAuthResponse{
		Success:      true,
		ExpiresAt:    expiresAt,
		MetaUserID:   me.ID,
		MetaUserName: me.Name,
	}, nil
}

// RefreshToken renova o token informado ou, se vazio, o token já armazenado para o usuário
func (s *Service) RefreshToken(ctx context.Context, userID, accessToken string) (*domain.MetaAuthResponse, error) {
	if accessToken == "" {
		user, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			return nil, NewUserAuthError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, userID, err.Error())
		}
		if user == nil {
			return nil, NewUserAuthError(ErrUserNotFound, apiErrors.ErrUserNotFound, userID, "")
		}
		accessToken = user.Metadata.MetaAccessToken
	}

	if accessToken == "" {
		return nil, NewUserAuthError(ErrMetaTokenNotProvided, apiErrors.ErrMetaTokenNotProvided, userID, "")
	}

	exchanged, err := s.client.ExchangeToken(ctx, accessToken)
	if err != nil {
		log.ForContext(ctx).WithError(err).Warn("auth: falha ao renovar token do Meta")
		return nil, verificationError(userID, err)
	}

	expiresAt := metaclient.TokenExpiration(s.now().UTC(), exchanged.ExpiresIn)

	patch := map[string]any{
		"meta_access_token":     exchanged.AccessToken,
		"meta_token_expires_at": expiresAt.Format(time.RFC3339),
	}
	if err := s.userRepo.UpdateUserMetadata(ctx, userID, patch); err != nil {
		return nil, NewUserAuthError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, userID, err.Error())
	}

	return &domain.MetaAuthResponse{
		Success:   true,
		ExpiresAt: expiresAt,
	}, nil
}

// RefreshExpiring renova os tokens que expiram dentro de threshold; falhas individuais não interrompem o lote
func (s *Service) RefreshExpiring(ctx context.Context, threshold time.Duration) (RefreshSummary, error) {
	var summary RefreshSummary

	users, err := s.userRepo.ListUsersWithExpiringMetaToken(ctx, s.now().Add(threshold))
	if err != nil {
		return summary, fmt.Errorf("erro ao listar tokens a expirar: %w", err)
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		userCtx := log.WithCaller(ctx, user.ID)
		if _, err := s.RefreshToken(userCtx, user.ID, user.Metadata.MetaAccessToken); err != nil {
			log.ForContext(userCtx).WithError(err).Warn("auth: token não renovado")
			summary.Failed++
			continue
		}
		summary.Refreshed++
	}

	return summary, nil
}

// verificationError repassa a mensagem do Meta sem alteração
func verificationError(userID string, err error) *AuthError {
	var upstreamErr *metadomain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return NewUserAuthError(ErrMetaVerification, apiErrors.ErrUpstream, userID, upstreamErr.Message)
	}

	return NewUserAuthError(ErrMetaVerification, apiErrors.ErrUpstream, userID, "")
}
