package authenticating

import (
	"errors"
	"fmt"

	"github.com/vfg2006/meta-insights-proxy/pkg/apiErrors"
)

var (
	// Erros do bearer token
	ErrMissingCredential = errors.New("credencial de autenticação ausente")
	ErrInvalidToken      = errors.New("token inválido")
	ErrExpiredToken      = errors.New("token expirado")

	// Erros da conexão com o Meta
	ErrUserNotFound         = errors.New("usuário não encontrado")
	ErrMetaNotConnected     = errors.New("conta do Meta não conectada")
	ErrMetaTokenExpired     = errors.New("token do Meta expirado, reconecte a conta")
	ErrMetaTokenNotProvided = errors.New("nenhum token do Meta disponível para renovar")
	ErrMetaVerification     = errors.New("não foi possível verificar o token com o Meta")

	ErrInvalidRequest    = errors.New("requisição inválida")
	ErrDatabaseOperation = errors.New("erro ao realizar operação no banco de dados")
)

// AuthError é um erro com contexto adicional para autenticação
type AuthError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	UserID  string // ID do usuário envolvido (quando aplicável)
	Details string // Detalhes adicionais
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message é o texto devolvido ao cliente; Details fica apenas nos logs
func (e *AuthError) Message() string {
	if errors.Is(e.Err, ErrMetaVerification) && e.Details != "" {
		return e.Details
	}
	return e.Err.Error()
}

// IsCredentialsError verifica se o erro está relacionado ao bearer token
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken)
}

// IsConnectionError verifica se falta uma conexão utilizável com o Meta
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrMetaNotConnected) ||
		errors.Is(err, ErrMetaTokenExpired)
}

// NewAuthError cria um novo erro de autenticação
func NewAuthError(baseErr error, code string, details string) *AuthError {
	return &AuthError{
		Err:     baseErr,
		Code:    code,
		Details: details,
	}
}

// NewUserAuthError cria um novo erro de autenticação com contexto de usuário
func NewUserAuthError(baseErr error, code string, userID string, details string) *AuthError {
	return &AuthError{
		Err:     baseErr,
		Code:    code,
		UserID:  userID,
		Details: details,
	}
}

func credentialError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return NewAuthError(ErrExpiredToken, apiErrors.ErrExpiredToken, "")
	default:
		return NewAuthError(ErrInvalidToken, apiErrors.ErrInvalidToken, err.Error())
	}
}
