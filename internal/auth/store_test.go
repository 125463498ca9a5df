package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/backend"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "pharmalink", ExpirationMinutes: 60}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func testAccounts(t *testing.T) *AccountsGateway {
	t.Helper()
	g, err := NewAccountsGateway([]Account{{
		ID:           "5b1c2f7e-3d4a-4a8e-9f61-0c2b7d9e1a10",
		Email:        "Awa.Diop@pharmalink.sn",
		FullName:     "Awa Diop",
		Role:         "pharmacist",
		PharmacyID:   "ph-plateau",
		PharmacyName: "Pharmacie du Plateau",
		Password:     "plateau-dev",
	}}, testPasswordConfig)
	require.NoError(t, err)
	return g
}

type stubGateway struct {
	user *User
	err  error
}

func (s stubGateway) Authenticate(context.Context, string, string) (*User, error) {
	return s.user, s.err
}

func TestLoginIssuesTokenAndPersists(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	issuer := NewIssuer(testJWT, func() time.Time { return now })
	backendStore := persist.NewMemoryBackend()
	slice := persist.NewSlice[State](backendStore, "sess-1", persist.AuthSlice)

	store := New(ctx, testAccounts(t), issuer, slice, quietLogger())
	res, err := store.Login(ctx, "awa.diop@pharmalink.sn", "plateau-dev")
	require.NoError(t, err)

	assert.Equal(t, "Awa Diop", res.User.FullName)
	assert.Equal(t, now.Add(time.Hour), res.ExpiresAt)
	assert.True(t, store.IsAuthenticated())

	claims, err := issuer.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ph-plateau", claims.PharmacyID)
	assert.Equal(t, res.User.ID, claims.PharmacistID)

	rehydrated := New(ctx, stubGateway{}, issuer, slice, quietLogger())
	user, ok := rehydrated.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse("5b1c2f7e-3d4a-4a8e-9f61-0c2b7d9e1a10"), user.ID)
	assert.Equal(t, enums.MemberRolePharmacist, user.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, testAccounts(t), NewIssuer(testJWT, nil), persist.Nop[State]{}, quietLogger())

	_, err := store.Login(ctx, "awa.diop@pharmalink.sn", "wrong")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, "Email ou mot de passe incorrect", typed.PublicMessage())
	assert.False(t, store.IsAuthenticated())

	_, err = store.Login(ctx, "inconnu@pharmalink.sn", "plateau-dev")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = store.Login(ctx, "  ", "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	user := &User{ID: uuid.New(), Email: "x@y.sn", Role: enums.MemberRoleAdmin}
	store := New(ctx, stubGateway{user: user}, NewIssuer(testJWT, nil), persist.Nop[State]{}, quietLogger())

	_, err := store.Login(ctx, "x@y.sn", "pw")
	require.NoError(t, err)
	store.Logout(ctx)
	store.Logout(ctx)

	assert.False(t, store.IsAuthenticated())
	_, ok := store.CurrentUser()
	assert.False(t, ok)
	assert.Equal(t, State{}, store.Snapshot())
}

func TestGatewayErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	boom := pkgerrors.New(pkgerrors.CodeNetwork, "")
	store := New(ctx, stubGateway{err: boom}, NewIssuer(testJWT, nil), persist.Nop[State]{}, quietLogger())

	_, err := store.Login(ctx, "x@y.sn", "pw")
	assert.True(t, errors.Is(err, boom))
}

func TestInconsistentSnapshotIsDiscarded(t *testing.T) {
	ctx := context.Background()
	backendStore := persist.NewMemoryBackend()
	require.NoError(t, backendStore.Write(ctx, "s", persist.AuthSlice, []byte(`{"user":null,"isAuthenticated":true}`)))

	store := New(ctx, stubGateway{}, NewIssuer(testJWT, nil), persist.NewSlice[State](backendStore, "s", persist.AuthSlice), quietLogger())
	assert.False(t, store.IsAuthenticated())
}

func TestHTTPGatewayMapsRemoteLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"email":"awa@pharmalink.sn","password":"ok"}` {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"user":{"id":"42","email":"awa@pharmalink.sn","full_name":"Awa","role":"manager","pharmacy_id":"7"}}`)
	}))
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL)
	require.NoError(t, err)
	gw := NewHTTPGateway(client, "/auth/login/")

	user, err := gw.Authenticate(context.Background(), "awa@pharmalink.sn", "ok")
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleManager, user.Role)
	assert.Equal(t, stableID("42"), user.ID)
	assert.Equal(t, "7", user.PharmacyID)

	_, err = gw.Authenticate(context.Background(), "awa@pharmalink.sn", "nope")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Email ou mot de passe incorrect", typed.PublicMessage())
}

func TestAccountsGatewayRejectsBadSeeds(t *testing.T) {
	_, err := NewAccountsGateway([]Account{{Email: "a@b.sn", Role: "owner", Password: "x"}}, testPasswordConfig)
	assert.Error(t, err)

	_, err = NewAccountsGateway([]Account{
		{Email: "a@b.sn", Role: "admin", Password: "x"},
		{Email: "A@B.sn", Role: "admin", Password: "y"},
	}, testPasswordConfig)
	assert.Error(t, err)
}
