package apiErrors

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Erros de autenticação
	ErrMissingCredential    = "AUTH_001" // Bearer token ausente
	ErrInvalidToken         = "AUTH_002" // Token inválido
	ErrExpiredToken         = "AUTH_003" // Token expirado
	ErrMetaNotConnected     = "AUTH_004" // Usuário sem conexão com o Meta
	ErrMetaTokenExpired     = "AUTH_005" // Token do Meta expirado ou revogado
	ErrUserNotFound         = "AUTH_006" // Usuário não encontrado no store
	ErrMetaTokenNotProvided = "AUTH_007" // Nenhum token do Meta para renovar

	// Erros de validação
	ErrInvalidRequest      = "VAL_001" // Requisição inválida
	ErrMissingRequiredData = "VAL_002" // Dados obrigatórios ausentes
	ErrInvalidFormat       = "VAL_003" // Formato de dados inválido
	ErrRouteNotFound       = "VAL_004" // Rota inexistente
	ErrMethodNotAllowed    = "VAL_005" // Método não suportado pela rota

	ErrRateLimitExceeded = "RATE_001"

	// Erro devolvido pela Graph API, mensagem repassada sem alteração
	ErrUpstream = "META_001"

	// Erros do servidor
	ErrInternalServer    = "SRV_001" // Erro interno do servidor
	ErrDatabaseOperation = "SRV_002" // Erro de operação de banco de dados
)

var httpStatusMap = map[string]int{
	ErrMissingCredential:    http.StatusUnauthorized,
	ErrInvalidToken:         http.StatusUnauthorized,
	ErrExpiredToken:         http.StatusUnauthorized,
	ErrMetaNotConnected:     http.StatusUnauthorized,
	ErrMetaTokenExpired:     http.StatusUnauthorized,
	ErrUserNotFound:         http.StatusUnauthorized,
	ErrMetaTokenNotProvided: http.StatusBadRequest,
	ErrInvalidRequest:       http.StatusBadRequest,
	ErrMissingRequiredData:  http.StatusBadRequest,
	ErrInvalidFormat:        http.StatusBadRequest,
	ErrRouteNotFound:        http.StatusNotFound,
	ErrMethodNotAllowed:     http.StatusMethodNotAllowed,
	ErrRateLimitExceeded:    http.StatusTooManyRequests,
	ErrUpstream:             http.StatusBadRequest,
	ErrInternalServer:       http.StatusInternalServerError,
	ErrDatabaseOperation:    http.StatusInternalServerError,
}

// APIError é o corpo plano devolvido em qualquer falha
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusFor devolve o status HTTP associado ao código; códigos desconhecidos viram 500
func StatusFor(code string) int {
	if status, ok := httpStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError escreve o erro padronizado para a resposta HTTP
func WriteError(w http.ResponseWriter, code string, message string) {
	if message == "" {
		message = http.StatusText(StatusFor(code))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	json.NewEncoder(w).Encode(APIError{
		Error: message,
		Code:  code,
	})
}
