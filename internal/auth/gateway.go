package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/backend"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/security"
	"gopkg.in/yaml.v3"
)

// Gateway checks credentials against whatever owns the staff accounts.
type Gateway interface {
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}

// HTTPGateway delegates login to the remote backend.
type HTTPGateway struct {
	client    *backend.Client
	loginPath string
}

func NewHTTPGateway(client *backend.Client, loginPath string) *HTTPGateway {
	if strings.TrimSpace(loginPath) == "" {
		loginPath = "auth/login/"
	}
	return &HTTPGateway{client: client, loginPath: loginPath}
}

type remoteUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	PharmacyID   string `json:"pharmacy_id"`
	PharmacyName string `json:"pharmacy_name"`
}

func (h *HTTPGateway) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User remoteUser `json:"user"`
	}
	err := h.client.Do(ctx, http.MethodPost, h.loginPath, map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) || pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	role, err := enums.ParseMemberRole(resp.User.Role)
	if err != nil {
		role = enums.MemberRolePharmacist
	}
	return &User{
		ID:           stableID(resp.User.ID),
		Email:        resp.User.Email,
		FullName:     resp.User.FullName,
		Role:         role,
		PharmacyID:   resp.User.PharmacyID,
		PharmacyName: resp.User.PharmacyName,
	}, nil
}

// stableID keeps uuid ids as they are and derives a deterministic uuid from
// any other identifier the backend uses.
func stableID(raw string) uuid.UUID {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("pharmalink:user:"+raw))
}

// Account is one entry of the local accounts file. Password is accepted for
// development seeds and hashed at load time.
type Account struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	FullName     string `yaml:"full_name"`
	Role         string `yaml:"role"`
	PharmacyID   string `yaml:"pharmacy_id"`
	PharmacyName string `yaml:"pharmacy_name"`
	PasswordHash string `yaml:"password_hash"`
	Password     string `yaml:"password"`
}

type account struct {
	user User
	hash string
}

// AccountsGateway authenticates against an in-process account list.
type AccountsGateway struct {
	byEmail map[string]account
}

// LoadAccountsFile reads a YAML accounts list.
func LoadAccountsFile(path string, pwCfg config.PasswordConfig) (*AccountsGateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	var doc struct {
		Accounts []Account `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode accounts file: %w", err)
	}
	return NewAccountsGateway(doc.Accounts, pwCfg)
}

// NewAccountsGateway indexes accounts by lowercase email.
func NewAccountsGateway(accounts []Account, pwCfg config.PasswordConfig) (*AccountsGateway, error) {
	g := &AccountsGateway{byEmail: make(map[string]account, len(accounts))}
	for i, a := range accounts {
		email := normalizeEmail(a.Email)
		if email == "" {
			return nil, fmt.Errorf("account #%d has no email", i)
		}
		if _, dup := g.byEmail[email]; dup {
			return nil, fmt.Errorf("duplicate account %q", email)
		}
		role, err := enums.ParseMemberRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", email, err)
		}
		hash := a.PasswordHash
		if hash == "" {
			if hash, err = security.HashPassword(a.Password, pwCfg); err != nil {
				return nil, fmt.Errorf("account %q: %w", email, err)
			}
		}
		g.byEmail[email] = account{
			hash: hash,
			user: User{
				ID:           stableID(a.ID),
				Email:        email,
				FullName:     a.FullName,
				Role:         role,
				PharmacyID:   a.PharmacyID,
				PharmacyName: a.PharmacyName,
			},
		}
	}
	return g, nil
}

func (g *AccountsGateway) Authenticate(_ context.Context, email, password string) (*User, error) {
	acc, ok := g.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, invalidCredentials()
	}
	match, err := security.VerifyPassword(password, acc.hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "")
	}
	if !match {
		return nil, invalidCredentials()
	}
	u := acc.user
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
