package models

// JWTClaims represents the claims extracted from a verified bearer token
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
}

// User builds the learner record for these claims. ID and timestamps are left for the repository.
func (c *JWTClaims) User() *User {
	u := &User{Subject: c.Sub, Email: c.Email}
	if c.Name != "" {
		name := c.Name
		u.Name = &name
	}
	return u
}
