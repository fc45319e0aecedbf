package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User é o registro do chamador no store de contas; o ID vem do provedor de identidade
type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Metadata  UserMetadata `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// UserMetadata guarda a conexão com o Meta. Persistido como jsonb, nunca devolvido pela API.
type UserMetadata struct {
	MetaAccessToken    string     `json:"meta_access_token,omitempty"`
	MetaTokenExpiresAt *time.Time `json:"meta_token_expires_at,omitempty"`
	MetaUserID         string     `json:"meta_user_id,omitempty"`
	MetaUserName       string     `json:"meta_user_name,omitempty"`
	AppUserID          string     `json:"app_user_id,omitempty"`
	MetaConnectedAt    *time.Time `json:"meta_connected_at,omitempty"`
}

// HasMetaConnection indica se existe um token do Meta utilizável para o usuário
func (u *User) HasMetaConnection(now time.Time) bool {
	if u == nil || u.Metadata.MetaAccessToken == "" {
		return false
	}

	if u.Metadata.MetaTokenExpiresAt != nil && !u.Metadata.MetaTokenExpiresAt.After(now) {
		return false
	}

	return true
}

// Claims do bearer token emitido pelo provedor de identidade; o sub é o ID do usuário
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}
