package models

// TokenRequest exchanges client credentials for an access token.
type TokenRequest struct {
	UserID       string `json:"userId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   Timestamp `json:"expiresAt"`
}
