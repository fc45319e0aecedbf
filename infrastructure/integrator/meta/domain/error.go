package metadomain

import (
	"fmt"
	"net/http"
)

// ErrorResponse representa a estrutura de erro da API do Meta
type ErrorResponse struct {
	Error *ErrorDetails `json:"error"`
}

// ErrorDetails contém os detalhes de erro da API do Meta
type ErrorDetails struct {
	Message      string      `json:"message"`
	Type         string      `json:"type"`
	Code         int         `json:"code"`
	ErrorSubcode int         `json:"error_subcode,omitempty"`
	UserTitle    string      `json:"error_user_title,omitempty"`
	UserMessage  string      `json:"error_user_msg,omitempty"`
	FBTraceID    string      `json:"fbtrace_id"`
	ErrorData    interface{} `json:"error_data,omitempty"`
}

// UpstreamError é a falha única devolvida pelo Graph client: erro de transporte,
// status HTTP inesperado ou objeto "error" no corpo (inclusive com status 200)
type UpstreamError struct {
	Message    string
	Code       int
	Subcode    int
	Type       string
	FBTraceID  string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("meta: %s (code %d)", e.Message, e.Code)
	}
	return "meta: " + e.Message
}

// IsTokenExpired verifica se o erro é de token expirado/invalidado
func (e *UpstreamError) IsTokenExpired() bool {
	// O código 190 representa "token expirado" nas respostas da API do Meta
	// Possíveis subcódigos relacionados a problemas de token: 460, 463, 467
	return e.Code == 190 ||
		(e.Type == "OAuthException" && (e.Subcode == 460 || e.Subcode == 463 || e.Subcode == 467))
}

// IsRateLimited indica throttling do lado do Meta (códigos 4, 17, 32, 613 e 80000-80014)
func (e *UpstreamError) IsRateLimited() bool {
	switch {
	case e.Code == 4, e.Code == 17, e.Code == 32, e.Code == 613:
		return true
	case e.Code >= 80000 && e.Code <= 80014:
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests
}

// NewUpstreamError converte o objeto de erro do Meta no tipo interno
func NewUpstreamError(details *ErrorDetails, statusCode int) *UpstreamError {
	message := details.Message
	if details.UserMessage != "" {
		message = details.UserMessage
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return &UpstreamError{
		Message:    message,
		Code:       details.Code,
		Subcode:    details.ErrorSubcode,
		Type:       details.Type,
		FBTraceID:  details.FBTraceID,
		StatusCode: statusCode,
	}
}
