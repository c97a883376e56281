package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error
}

func TestWriteErrorForbiddenEchoesAccessLevel(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeForbidden, "Your access has been limited").
		WithDetails(map[string]any{"accessLevel": "limited"})

	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Message != "Your access has been limited" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["accessLevel"] != "limited" {
		t.Fatalf("expected accessLevel details, got %#v", apiErr.Details)
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	WriteError(context.Background(), logg, rec, errors.New("pq: relation users does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", apiErr.Message)
	}
	if !bytes.Contains(buf.Bytes(), []byte("request.error")) {
		t.Fatalf("expected error log, got %s", buf.String())
	}
}

func TestWriteErrorStateConflictIs400(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeStateConflict, "Order is not pending approval"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCreated(rec, map[string]int{"id": 42})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var env types.Envelope[map[string]int]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data["id"] != 42 {
		t.Fatalf("unexpected payload %#v", env.Data)
	}
}

func TestWriteErrorSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.LimitExceeded("slow down", 5, time.Hour))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3600" {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
	}
	if apiErr := decodeError(t, rec); apiErr.Message != "slow down" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}
