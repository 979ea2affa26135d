// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/testutil"
)

func TestClaimUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, NewDraftStore())

	_, _, openSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	_, _, closedSlug := testutil.CreateTestPoll(t, db, cfg, models.StatusClosed)

	tests := []struct {
		name           string
		slug           string
		username       string
		expectedStatus int
	}{
		{"valid claim", openSlug, "alice", http.StatusCreated},
		{"duplicate username", openSlug, "alice", http.StatusConflict},
		{"another voter", openSlug, "bob", http.StatusCreated},
		{"too short", openSlug, "a", http.StatusBadRequest},
		{"too long", openSlug, strings.Repeat("x", 51), http.StatusBadRequest},
		{"empty", openSlug, "", http.StatusBadRequest},
		{"closed poll", closedSlug, "carol", http.StatusConflict},
		{"unknown poll", "nope", "dave", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls/"+tt.slug+"/claim-username",
				models.ClaimUsernameRequest{Username: tt.username}, nil)
			req.SetPathValue("slug", tt.slug)
			w := httptest.NewRecorder()

			handler.ClaimUsername(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if w.Code == http.StatusCreated {
				var resp models.ClaimUsernameResponse
				testutil.AssertJSON(t, w, &resp)
				if len(resp.VoterToken) != 32 {
					t.Errorf("Expected 32 char voter token, got %q", resp.VoterToken)
				}
			}
		})
	}
}

func TestSubmitBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, NewDraftStore())

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B", "C")
	token := testutil.CreateTestVoter(t, db, pollID, "alice")

	otherID, _, _ := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	otherOption := testutil.AddTestOption(t, db, otherID, "X", 0)

	tests := []struct {
		name           string
		token          string
		ranking        []string
		expectedStatus int
		expectedMsg    string
	}{
		{"missing token", "", []string{ids[0]}, http.StatusUnauthorized, ""},
		{"unknown token", "not-a-voter", []string{ids[0]}, http.StatusUnauthorized, ""},
		{"empty ranking", token, nil, http.StatusBadRequest, ""},
		{"duplicate option", token, []string{ids[0], ids[0]}, http.StatusBadRequest, ""},
		{"option from another poll", token, []string{otherOption}, http.StatusBadRequest, ""},
		{"partial ranking", token, []string{ids[2], ids[0]}, http.StatusCreated, "Ballot submitted successfully"},
		{"resubmit", token, []string{ids[1], ids[0], ids[2]}, http.StatusCreated, "Ballot updated successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.token != "" {
				headers["X-Voter-Token"] = tt.token
			}
			req := testutil.MakeRequest("POST", "/polls/"+slug+"/ballots",
				models.SubmitBallotRequest{Ranking: tt.ranking}, headers)
			req.SetPathValue("slug", slug)
			w := httptest.NewRecorder()

			handler.SubmitBallot(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedMsg != "" {
				var resp models.SubmitBallotResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Message != tt.expectedMsg {
					t.Errorf("Expected message %q, got %q", tt.expectedMsg, resp.Message)
				}
			}
		})
	}

	ballot, err := loadVoterBallot(db, pollID, token)
	if err != nil {
		t.Fatalf("Failed to load ballot: %v", err)
	}
	if strings.Join(ballot.Ranking, ",") != strings.Join([]string{ids[1], ids[0], ids[2]}, ",") {
		t.Errorf("Stored ranking %v does not match last submission", ballot.Ranking)
	}

	count, _ := countBallots(db, pollID)
	if count != 1 {
		t.Errorf("Expected a single ballot after resubmission, got %d", count)
	}
}

func TestSubmitBallot_ClosedPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, NewDraftStore())

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusClosed)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B")
	token := testutil.CreateTestVoter(t, db, pollID, "alice")

	req := testutil.MakeRequest("POST", "/polls/"+slug+"/ballots",
		models.SubmitBallotRequest{Ranking: ids}, map[string]string{"X-Voter-Token": token})
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	handler.SubmitBallot(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSubmitBallot_ResetsDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	drafts := NewDraftStore()
	handler := NewVotingHandler(db, cfg, drafts)

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B")
	token := testutil.CreateTestVoter(t, db, pollID, "alice")

	drafts.put(pollID, token, &draft{})
	if drafts.Len() != 1 {
		t.Fatal("expected draft to be stored")
	}

	req := testutil.MakeRequest("POST", "/polls/"+slug+"/ballots",
		models.SubmitBallotRequest{Ranking: ids}, map[string]string{"X-Voter-Token": token})
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	handler.SubmitBallot(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
	if drafts.Len() != 0 {
		t.Error("Expected the voter's draft to be dropped after a direct submission")
	}
}

func TestGetMyBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(db, cfg, NewDraftStore())

	pollID, _, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen)
	ids := testutil.AddTestOptions(t, db, pollID, "A", "B", "C")
	voted := testutil.CreateTestVoter(t, db, pollID, "alice")
	notVoted := testutil.CreateTestVoter(t, db, pollID, "bob")
	ballotID := testutil.SubmitTestBallot(t, db, pollID, voted, []string{ids[2], ids[0]})

	t.Run("has ballot", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+slug+"/my-ballot", nil, map[string]string{"X-Voter-Token": voted})
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.MyBallotResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.BallotID != ballotID {
			t.Errorf("Expected ballot %s, got %s", ballotID, resp.BallotID)
		}
		if len(resp.Ranking) != 2 || resp.Ranking[0].Label != "C" || resp.Ranking[1].Label != "A" {
			t.Errorf("Unexpected ranking: %+v", resp.Ranking)
		}
	})

	t.Run("no ballot", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+slug+"/my-ballot", nil, map[string]string{"X-Voter-Token": notVoted})
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("missing token", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+slug+"/my-ballot", nil, nil)
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
