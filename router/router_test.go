// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-rank/middleware"
	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/presets"
	"github.com/danielhkuo/quickly-rank/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "quickly-rank API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestPresetsEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, presets.Set{"movies": {"Alien"}, "lunch": {"Tacos"}})

	req := httptest.NewRequest("GET", "/presets", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp map[string][]string
	testutil.AssertJSON(t, w, &resp)
	if names := resp["presets"]; len(names) != 2 || names[0] != "lunch" {
		t.Errorf("Unexpected presets: %v", names)
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, nil)

	// 400, 401 and 404 from a handler are all fine here, 405 means no route
	testCases := []struct {
		method string
		path   string
	}{
		// Health and root
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/presets"},

		// Poll management routes
		{"POST", "/polls"},
		{"GET", "/polls/test-id/admin"},
		{"POST", "/polls/test-id/options"},
		{"POST", "/polls/test-id/publish"},
		{"POST", "/polls/test-id/close"},

		// Voting routes
		{"POST", "/polls/test-slug/claim-username"},
		{"POST", "/polls/test-slug/ballots"},
		{"GET", "/polls/test-slug/my-ballot"},

		// Draft routes
		{"GET", "/polls/test-slug/draft"},
		{"POST", "/polls/test-slug/draft/select"},
		{"POST", "/polls/test-slug/draft/deselect"},
		{"POST", "/polls/test-slug/draft/reorder"},
		{"POST", "/polls/test-slug/draft/submit"},

		// Results routes
		{"GET", "/polls/test-slug"},
		{"GET", "/polls/test-slug/results"},
		{"GET", "/polls/test-slug/ballot-count"},
		{"GET", "/polls/test-slug/preview"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, nil)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"DELETE admin view", "DELETE", "/polls/test-id/admin", http.StatusMethodNotAllowed},
		{"PUT to options endpoint", "PUT", "/polls/test-id/options", http.StatusMethodNotAllowed},
		{"GET draft select", "GET", "/polls/test-slug/draft/select", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/nope/nope/nope", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	pollID, adminKey, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusDraft)

	mux := NewRouter(db, cfg, nil)

	req := httptest.NewRequest("GET", "/polls/"+pollID+"/admin", nil)
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid admin key, got %d. Body: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("Expected logged routes to set X-Request-ID")
	}
}

// TestDraftThroughRouter ranks two options through the mux and checks that
// the stored ballot matches the draft
func TestDraftThroughRouter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg, nil)

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B")
	token := testutil.CreateTestVoter(t, db, pollID, "voter")
	voter := map[string]string{"X-Voter-Token": token}

	steps := []struct {
		path string
		body any
	}{
		{"/draft/select", models.DraftSelectRequest{Row: 0, OptionID: ids[1]}},
		{"/draft/select", models.DraftSelectRequest{Row: 1, OptionID: ids[0]}},
		{"/draft/submit", nil},
	}
	for _, step := range steps {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest("POST", "/polls/"+slug+step.path, step.body, voter))
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/polls/"+slug+"/my-ballot", nil, voter))
	testutil.AssertStatus(t, w, http.StatusOK)

	var ballot models.MyBallotResponse
	testutil.AssertJSON(t, w, &ballot)
	if len(ballot.Ranking) != 2 || ballot.Ranking[0].ID != ids[1] || ballot.Ranking[1].ID != ids[0] {
		t.Errorf("Stored ranking does not match draft: %+v", ballot.Ranking)
	}
}
