package metadomain

const (
	AdAccountFields = "id,account_id,name,account_status,currency,timezone_name,amount_spent,business"
	BusinessFields  = "id,name,verification_status"
)

// User é a resposta de GET /me, usada para verificar um token
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TokenResponse representa a resposta da API do Meta ao trocar um token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
