package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/persistence/memory"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	repo := memory.NewRepository()
	if err := domain.Initialize(context.Background(), repo, domain.SeedCatalog()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	handler := NewHandler(domain.NewService(repo))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Detail
}

func TestListActivities(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodGet, "/activities")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]ActivityView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 9 {
		t.Fatalf("expected 9 activities got %d", len(resp))
	}

	chess, ok := resp["Chess Club"]
	if !ok {
		t.Fatalf("Chess Club missing from listing")
	}
	if chess.MaxParticipants == nil || *chess.MaxParticipants != 12 {
		t.Fatalf("unexpected max_participants %v", chess.MaxParticipants)
	}
	if len(chess.Participants) != 2 {
		t.Fatalf("expected 2 seeded participants got %d", len(chess.Participants))
	}
	if chess.Schedule != "Fridays, 3:30 PM - 5:00 PM" {
		t.Fatalf("unexpected schedule %q", chess.Schedule)
	}
}

func TestSignupSuccess(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodPost, "/activities/Chess%20Club/signup?email=x@y.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Signed up x@y.edu for Chess Club" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	list := doRequest(mux, http.MethodGet, "/activities")
	var activities map[string]ActivityView
	if err := json.Unmarshal(list.Body.Bytes(), &activities); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if got := len(activities["Chess Club"].Participants); got != 3 {
		t.Fatalf("expected 3 participants after signup got %d", got)
	}
}

func TestSignupUnknownActivity(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodPost, "/activities/Knitting%20Circle/signup?email=x@y.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupDuplicate(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodPost, "/activities/Chess%20Club/signup?email=michael@mergington.edu")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Student is already signed up" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupActivityFull(t *testing.T) {
	mux := newTestMux(t)

	// Math Club caps at 10 with 2 seeded; fill the remaining 8 slots.
	emails := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, prefix := range emails {
		rr := doRequest(mux, http.MethodPost, "/activities/Math%20Club/signup?email="+prefix+"@mergington.edu")
		if rr.Code != http.StatusOK {
			t.Fatalf("fill signup failed with %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := doRequest(mux, http.MethodPost, "/activities/Math%20Club/signup?email=late@mergington.edu")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Activity is full" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestUnregisterRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	if rr := doRequest(mux, http.MethodPost, "/activities/Chess%20Club/signup?email=x@y.edu"); rr.Code != http.StatusOK {
		t.Fatalf("signup failed with %d", rr.Code)
	}

	rr := doRequest(mux, http.MethodDelete, "/activities/Chess%20Club/unregister?email=x@y.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Unregistered x@y.edu from Chess Club" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	rr = doRequest(mux, http.MethodDelete, "/activities/Chess%20Club/unregister?email=x@y.edu")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Student is not signed up for this activity" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestUnregisterUnknownActivity(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodDelete, "/activities/Knitting%20Circle/unregister?email=x@y.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupRequiresEmail(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodPost, "/activities/Chess%20Club/signup")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "email is required" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	if rr := doRequest(mux, http.MethodPost, "/activities"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
	if rr := doRequest(mux, http.MethodGet, "/activities/Chess%20Club/signup?email=x@y.edu"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)

	rr := doRequest(mux, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}
