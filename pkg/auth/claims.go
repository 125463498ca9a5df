package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	PharmacistID uuid.UUID
	PharmacyID   string
	Role         enums.MemberRole
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to dashboard users.
type AccessTokenClaims struct {
	PharmacistID uuid.UUID        `json:"pharmacist_id"`
	PharmacyID   string           `json:"pharmacy_id,omitempty"`
	Role         enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
