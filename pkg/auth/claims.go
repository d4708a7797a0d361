package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
)

// AccessTokenPayload carries the identity fields stamped into a token.
// Tokens are issued by the external auth collaborator; this service only
// validates them and trusts the user id they carry.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// AccessTokenClaims is the JWT claim set shared with the auth collaborator.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"uid"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
