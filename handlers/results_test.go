// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/testutil"
)

func TestGetPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(db, cfg)

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	testutil.AddTestOptions(t, db, pollID, "Pizza", "Sushi")

	tests := []struct {
		name           string
		slug           string
		expectedStatus int
	}{
		{"existing poll", slug, http.StatusOK},
		{"unknown slug", "does-not-exist", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls/"+tt.slug, nil)
			req.SetPathValue("slug", tt.slug)
			w := httptest.NewRecorder()

			handler.GetPoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if w.Code == http.StatusOK {
				var resp models.PollWithOptions
				testutil.AssertJSON(t, w, &resp)

				if resp.Poll.ID != pollID {
					t.Errorf("Expected poll %s, got %s", pollID, resp.Poll.ID)
				}
				if resp.Poll.Status != models.StatusOpen {
					t.Errorf("Expected status open, got %s", resp.Poll.Status)
				}
				if len(resp.Options) != 2 || resp.Options[0].Label != "Pizza" {
					t.Errorf("Unexpected options: %+v", resp.Options)
				}
			}
		})
	}
}

func TestGetPollWithoutOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(db, cfg)

	_, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)

	req := httptest.NewRequest("GET", "/polls/"+slug, nil)
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	handler.GetPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PollWithOptions
	testutil.AssertJSON(t, w, &resp)
	if resp.Options == nil || len(resp.Options) != 0 {
		t.Errorf("Expected empty options array, got %v", resp.Options)
	}
}

func TestGetResults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	pollHandler := NewPollHandler(db, cfg, nil, NewDraftStore())
	handler := NewResultsHandler(db, cfg)

	pollID, adminKey, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "Pizza", "Sushi", "Tacos")

	for i, ranking := range [][]string{
		{ids[2], ids[0]},
		{ids[2], ids[1], ids[0]},
		{ids[0], ids[2]},
	} {
		token := testutil.CreateTestVoter(t, db, pollID, []string{"alice", "bob", "carol"}[i])
		testutil.SubmitTestBallot(t, db, pollID, token, ranking)
	}

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/close", nil, map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	pollHandler.ClosePoll(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = httptest.NewRequest("GET", "/polls/"+slug+"/results", nil)
	req.SetPathValue("slug", slug)
	w = httptest.NewRecorder()
	handler.GetResults(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp struct {
		Poll        models.Poll             `json:"poll"`
		Rankings    []models.OptionStanding `json:"rankings"`
		BallotCount int                     `json:"ballot_count"`
		Snapshot    models.ResultSnapshot   `json:"snapshot"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}

	if resp.Poll.Status != models.StatusClosed {
		t.Errorf("Expected closed poll, got %s", resp.Poll.Status)
	}
	if resp.BallotCount != 3 {
		t.Errorf("Expected 3 ballots, got %d", resp.BallotCount)
	}

	// Tacos: 3+3+2 = 8, Pizza: 2+1+3 = 6, Sushi: 2
	if len(resp.Rankings) != 3 {
		t.Fatalf("Expected 3 rankings, got %d", len(resp.Rankings))
	}
	if resp.Rankings[0].Label != "Tacos" || resp.Rankings[0].Points != 8 || resp.Rankings[0].FirstChoices != 2 {
		t.Errorf("Unexpected winner: %+v", resp.Rankings[0])
	}
	if resp.Rankings[1].Label != "Pizza" || resp.Rankings[1].Points != 6 {
		t.Errorf("Unexpected runner-up: %+v", resp.Rankings[1])
	}
	if resp.Rankings[2].Label != "Sushi" || resp.Rankings[2].Appearances != 1 || resp.Rankings[2].MeanRank != 2 {
		t.Errorf("Unexpected last place: %+v", resp.Rankings[2])
	}
	if resp.Snapshot.PollID != pollID || len(resp.Snapshot.InputsHash) != 64 {
		t.Errorf("Unexpected snapshot: %+v", resp.Snapshot)
	}
}

func TestGetResults_Sealed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(db, cfg)

	_, _, openSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)

	tests := []struct {
		name           string
		slug           string
		expectedStatus int
	}{
		{"open poll", openSlug, http.StatusForbidden},
		{"unknown poll", "missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls/"+tt.slug+"/results", nil)
			req.SetPathValue("slug", tt.slug)
			w := httptest.NewRecorder()
			handler.GetResults(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestGetBallotCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(db, cfg)

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B")

	count := func() int {
		t.Helper()
		req := httptest.NewRequest("GET", "/polls/"+slug+"/ballot-count", nil)
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		handler.GetBallotCount(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]int
		testutil.AssertJSON(t, w, &resp)
		return resp["ballot_count"]
	}

	if got := count(); got != 0 {
		t.Errorf("Expected 0 ballots, got %d", got)
	}

	for _, name := range []string{"alice", "bob"} {
		token := testutil.CreateTestVoter(t, db, pollID, name)
		testutil.SubmitTestBallot(t, db, pollID, token, ids)
	}

	if got := count(); got != 2 {
		t.Errorf("Expected 2 ballots, got %d", got)
	}
}

func TestGetPreview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(db, cfg)

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B", "C")
	token := testutil.CreateTestVoter(t, db, pollID, "alice")
	testutil.SubmitTestBallot(t, db, pollID, token, ids[:1])

	req := httptest.NewRequest("GET", "/polls/"+slug+"/preview", nil)
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	handler.GetPreview(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PollPreviewResponse
	testutil.AssertJSON(t, w, &resp)

	want := models.PollPreviewResponse{Title: "Test Poll", Status: models.StatusOpen, OptionCount: 3, BallotCount: 1}
	if resp != want {
		t.Errorf("GetPreview() = %+v, want %+v", resp, want)
	}
}
