package models

// JWTClaims are the claims the verifier extracts from a validated bearer
// token. Sub identifies the account at the identity provider and is the
// lookup key for get-or-create user provisioning; Email and Name are synced
// onto the local User record on every authenticated request.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
}
