package auth

import (
	"time"

	pkgAuth "github.com/pharmalink/pharmalink-backend/pkg/auth"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
)

// Issuer mints dashboard access tokens.
type Issuer struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewIssuer(cfg config.JWTConfig, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{cfg: cfg, now: now}
}

// Issue returns a signed token for u and its expiry.
func (i *Issuer) Issue(u User) (string, time.Time, error) {
	now := i.now()
	token, err := pkgAuth.MintAccessToken(i.cfg, now, pkgAuth.AccessTokenPayload{
		PharmacistID: u.ID,
		PharmacyID:   u.PharmacyID,
		Role:         u.Role,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(pkgAuth.TTL(i.cfg)), nil
}

// Verify parses a bearer token.
func (i *Issuer) Verify(token string) (*pkgAuth.AccessTokenClaims, error) {
	return pkgAuth.ParseAccessToken(i.cfg, token)
}
