package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
)

const invalidCredentialsMessage = "Email ou mot de passe incorrect"

// User is the authenticated pharmacy staff member.
type User struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	FullName     string           `json:"fullName"`
	Role         enums.MemberRole `json:"role"`
	PharmacyID   string           `json:"pharmacyId,omitempty"`
	PharmacyName string           `json:"pharmacyName,omitempty"`
}

// State is the persisted auth-storage shape.
type State struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	User        User      `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
