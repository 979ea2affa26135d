// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-rank/auth"
	"github.com/danielhkuo/quickly-rank/cliparse"
	"github.com/danielhkuo/quickly-rank/db"
	"github.com/danielhkuo/quickly-rank/models"
)

// SetupTestDB opens a private in-memory sqlite database with the full schema.
// Every call gets its own database, so tests can run in parallel.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:" + uuid.NewString() + "?mode=memory&_pragma=foreign_keys(1)"
	conn, err := db.Open(db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         cliparse.DefaultPort,
		DatabaseType: db.TypeSQLite,
		DatabaseURL:  "file::memory:",
		AdminKeySalt: "test-admin-salt",
		PollSlugSalt: "test-slug-salt",
		BaseURL:      "https://rank.test",
	}
}

// CreateTestPoll creates a poll in the database and returns its ID and admin key
// status should be "draft", "open", or "closed"
func CreateTestPoll(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (pollID, adminKey, shareSlug string) {
	t.Helper()

	keys := auth.NewKeyring(cfg.AdminKeySalt, cfg.PollSlugSalt)
	pollID, err := auth.NewID(16)
	if err != nil {
		t.Fatalf("Failed to generate poll id: %v", err)
	}
	adminKey = keys.AdminKey(pollID)

	var slug *string
	if status == models.StatusOpen || status == models.StatusClosed {
		s := keys.ShareSlug(pollID)
		slug = &s
		shareSlug = s
	}

	var closedAt *time.Time
	if status == models.StatusClosed {
		now := time.Now().UTC()
		closedAt = &now
	}

	_, err = conn.Exec(`
		INSERT INTO poll (id, title, description, creator_name, method, status, share_slug, closed_at, created_at)
		VALUES ($1, 'Test Poll', 'A test poll', 'TestUser', $2, $3, $4, $5, $6)
	`, pollID, models.MethodBorda, status, slug, closedAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID, adminKey, shareSlug
}

// AddTestOption adds an option to a poll at the given position and returns
// the option ID
func AddTestOption(t *testing.T, conn *sql.DB, pollID, label string, position int) string {
	t.Helper()

	optionID, err := auth.NewID(12)
	if err != nil {
		t.Fatalf("Failed to generate option id: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO option (id, poll_id, label, position)
		VALUES ($1, $2, $3, $4)
	`, optionID, pollID, label, position)
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return optionID
}

// AddTestOptions adds labels in order and returns their IDs
func AddTestOptions(t *testing.T, conn *sql.DB, pollID string, labels ...string) []string {
	t.Helper()

	ids := make([]string, len(labels))
	for i, label := range labels {
		ids[i] = AddTestOption(t, conn, pollID, label, i)
	}
	return ids
}

// CreateTestVoter claims a username for a poll and returns the voter token
func CreateTestVoter(t *testing.T, conn *sql.DB, pollID, username string) string {
	t.Helper()

	voterToken, err := auth.NewVoterToken()
	if err != nil {
		t.Fatalf("Failed to generate voter token: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO username_claim (poll_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, pollID, username, voterToken, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterToken
}

// SubmitTestBallot stores a ranked ballot for a voter, first choice first
func SubmitTestBallot(t *testing.T, conn *sql.DB, pollID, voterToken string, ranking []string) string {
	t.Helper()

	ballotID, err := auth.NewID(16)
	if err != nil {
		t.Fatalf("Failed to generate ballot id: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO ballot (id, poll_id, voter_token, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, ballotID, pollID, voterToken, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	for i, optionID := range ranking {
		_, err := conn.Exec(`
			INSERT INTO ranking (ballot_id, option_id, position)
			VALUES ($1, $2, $3)
		`, ballotID, optionID, i+1)
		if err != nil {
			t.Fatalf("Failed to create test ranking: %v", err)
		}
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
