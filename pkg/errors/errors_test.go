package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "Erreur de validation des données", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "Authentification requise"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "Ressource introuvable"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "Transition d'état non autorisée", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "Erreur interne du serveur", retryable: true},
		{code: CodeNetwork, status: http.StatusBadGateway, publicMsg: "Impossible de contacter le serveur. Vérifiez votre connexion.", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestCodeForStatus(t *testing.T) {
	cases := map[int]Code{
		http.StatusBadRequest:          CodeValidation,
		http.StatusNotFound:            CodeNotFound,
		http.StatusInternalServerError: CodeInternal,
		http.StatusBadGateway:          CodeInternal,
		http.StatusTooManyRequests:     CodeRateLimit,
		http.StatusTeapot:              CodeDependency,
	}
	for status, want := range cases {
		if got := CodeForStatus(status); got != want {
			t.Fatalf("status %d expected %s got %s", status, want, got)
		}
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestPublicMessageFallsBackToCode(t *testing.T) {
	if got := New(CodeNotFound, "").PublicMessage(); got != "Ressource introuvable" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if got := New(CodeNotFound, "Commande introuvable").PublicMessage(); got != "Commande introuvable" {
		t.Fatalf("expected own message, got %q", got)
	}
}

func TestHasCodeFollowsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStateConflict, "nope"))
	if !HasCode(err, CodeStateConflict) {
		t.Fatal("expected state conflict to be found through the chain")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
	if HasCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatal("untyped errors carry no code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("create order: %w", Wrap(CodeDependency, stdErrors.New("connection refused"), "insert"))
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestUniqueViolationAcrossDrivers(t *testing.T) {
	pgx := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"})
	if constraint, ok := UniqueViolation(pgx); !ok || constraint != "orders_order_number_key" {
		t.Fatalf("pgx unique violation not detected: %q %v", constraint, ok)
	}

	lib := &pq.Error{Code: "23505", Constraint: "orders_pkey"}
	if constraint, ok := UniqueViolation(lib); !ok || constraint != "orders_pkey" {
		t.Fatalf("lib/pq unique violation not detected: %q %v", constraint, ok)
	}

	if _, ok := UniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Fatal("foreign key violation reported as unique")
	}
	if dump := Dump(pgx); dump.PGCode != "23505" {
		t.Fatalf("dump lost pg code: %+v", dump)
	}
}
