package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Maker issues and verifies access tokens bound to a login session.
type Maker interface {
	CreateToken(username string, sessionID uuid.UUID, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string) (*Payload, error)
}

// NewMaker returns the Maker for tokenType ("paseto" or "jwt").
func NewMaker(tokenType, secretKey string) (Maker, error) {
	switch tokenType {
	case "paseto":
		return NewPasetoMaker(secretKey)
	case "jwt":
		return NewJWTMaker(secretKey)
	default:
		return nil, fmt.Errorf("unsupported token type %q", tokenType)
	}
}
