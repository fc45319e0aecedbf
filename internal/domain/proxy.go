package domain

import (
	"encoding/json"
	"time"
)

// ResponseEnvelope embrulha o payload do Meta; paging é repassado sem alteração
type ResponseEnvelope struct {
	Data   any             `json:"data"`
	Paging json.RawMessage `json:"paging,omitempty"`
}

const (
	MetaAuthActionAuthenticate = "authenticate"
	MetaAuthActionRefreshToken = "refresh_token"
)

// MetaAuthRequest é o corpo aceito por POST /v1/meta/auth
type MetaAuthRequest struct {
	Action      string `json:"action"`
	AccessToken string `json:"access_token"`
	AppUserID   string `json:"app_user_id,omitempty"`
}

type MetaAuthResponse struct {
	Success      bool      `json:"success"`
	ExpiresAt    time.Time `json:"expires_at"`
	MetaUserID   string    `json:"meta_user_id,omitempty"`
	MetaUserName string    `json:"meta_user_name,omitempty"`
}
