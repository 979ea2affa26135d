// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-rank/auth"
	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/tally"
)

var (
	errEmptyRanking     = errors.New("ranking cannot be empty")
	errDuplicateRanking = errors.New("ranking lists an option twice")
	errUnknownRanking   = errors.New("ranking lists an unknown option")
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const pollColumns = `id, title, description, creator_name, method, status,
	share_slug, closes_at, closed_at, final_snapshot_id, created_at`

func scanPoll(row *sql.Row) (models.Poll, error) {
	var poll models.Poll
	var description sql.NullString
	err := row.Scan(
		&poll.ID, &poll.Title, &description, &poll.CreatorName,
		&poll.Method, &poll.Status, &poll.ShareSlug, &poll.ClosesAt,
		&poll.ClosedAt, &poll.FinalSnapshotID, &poll.CreatedAt,
	)
	poll.Description = description.String
	return poll, err
}

func pollByID(q querier, pollID string) (models.Poll, error) {
	return scanPoll(q.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE id = $1`, pollID))
}

func pollBySlug(q querier, shareSlug string) (models.Poll, error) {
	return scanPoll(q.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE share_slug = $1`, shareSlug))
}

// loadOptions returns the poll's options in display order
func loadOptions(q querier, pollID string) ([]models.Option, error) {
	rows, err := q.Query(`
		SELECT id, poll_id, label, position
		FROM option
		WHERE poll_id = $1
		ORDER BY position, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Label, &opt.Position); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// voterExists reports whether voterToken claimed a username on the poll
func voterExists(q querier, pollID, voterToken string) (bool, error) {
	var exists bool
	err := q.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM username_claim
			WHERE poll_id = $1 AND voter_token = $2
		)
	`, pollID, voterToken).Scan(&exists)
	return exists, err
}

// validateRanking checks a ballot ranking against the poll's options
func validateRanking(ranking []string, options []models.Option) error {
	if len(ranking) == 0 {
		return errEmptyRanking
	}

	known := make(map[string]bool, len(options))
	for _, opt := range options {
		known[opt.ID] = true
	}

	seen := make(map[string]bool, len(ranking))
	for _, id := range ranking {
		if !known[id] {
			return fmt.Errorf("%w: %s", errUnknownRanking, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", errDuplicateRanking, id)
		}
		seen[id] = true
	}
	return nil
}

// ballotMeta is what gets recorded next to a ranking
type ballotMeta struct {
	IPHash    string
	UserAgent string
}

// upsertBallot stores ranking as the voter's ballot, replacing any earlier
// one. Must run inside a transaction.
func upsertBallot(tx *sql.Tx, pollID, voterToken string, ranking []string, meta ballotMeta) (ballotID string, isUpdate bool, err error) {
	now := time.Now().UTC()

	err = tx.QueryRow(`
		SELECT id FROM ballot WHERE poll_id = $1 AND voter_token = $2
	`, pollID, voterToken).Scan(&ballotID)

	switch {
	case err == nil:
		isUpdate = true
		_, err = tx.Exec(`
			UPDATE ballot
			SET submitted_at = $1, ip_hash = $2, user_agent = $3
			WHERE id = $4
		`, now, meta.IPHash, meta.UserAgent, ballotID)
		if err != nil {
			return "", false, fmt.Errorf("update ballot: %w", err)
		}

		if _, err = tx.Exec(`DELETE FROM ranking WHERE ballot_id = $1`, ballotID); err != nil {
			return "", false, fmt.Errorf("delete old ranking: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		ballotID, err = auth.NewID(16)
		if err != nil {
			return "", false, fmt.Errorf("generate ballot id: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO ballot (id, poll_id, voter_token, submitted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ballotID, pollID, voterToken, now, meta.IPHash, meta.UserAgent)
		if err != nil {
			return "", false, fmt.Errorf("insert ballot: %w", err)
		}
	default:
		return "", false, fmt.Errorf("query ballot: %w", err)
	}

	for i, optionID := range ranking {
		_, err = tx.Exec(`
			INSERT INTO ranking (ballot_id, option_id, position)
			VALUES ($1, $2, $3)
		`, ballotID, optionID, i+1)
		if err != nil {
			return "", false, fmt.Errorf("insert ranking: %w", err)
		}
	}

	return ballotID, isUpdate, nil
}

// withdrawBallot deletes the voter's ballot and reports whether one existed
func withdrawBallot(tx *sql.Tx, pollID, voterToken string) (bool, error) {
	var ballotID string
	err := tx.QueryRow(`
		SELECT id FROM ballot WHERE poll_id = $1 AND voter_token = $2
	`, pollID, voterToken).Scan(&ballotID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ballot: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM ranking WHERE ballot_id = $1`, ballotID); err != nil {
		return false, fmt.Errorf("delete ranking: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM ballot WHERE id = $1`, ballotID); err != nil {
		return false, fmt.Errorf("delete ballot: %w", err)
	}
	return true, nil
}

// voterBallot is a stored ballot with its ranking, first choice first
type voterBallot struct {
	ID          string
	SubmittedAt time.Time
	Ranking     []string
}

// loadVoterBallot returns sql.ErrNoRows when the voter has not voted
func loadVoterBallot(q querier, pollID, voterToken string) (voterBallot, error) {
	var b voterBallot
	err := q.QueryRow(`
		SELECT id, submitted_at FROM ballot WHERE poll_id = $1 AND voter_token = $2
	`, pollID, voterToken).Scan(&b.ID, &b.SubmittedAt)
	if err != nil {
		return voterBallot{}, err
	}

	rows, err := q.Query(`
		SELECT option_id FROM ranking WHERE ballot_id = $1 ORDER BY position
	`, b.ID)
	if err != nil {
		return voterBallot{}, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var optionID string
		if err := rows.Scan(&optionID); err != nil {
			return voterBallot{}, fmt.Errorf("scan ranking: %w", err)
		}
		b.Ranking = append(b.Ranking, optionID)
	}
	return b, rows.Err()
}

// loadBallots returns every ballot of the poll ready for tallying
func loadBallots(q querier, pollID string) ([]tally.Ballot, error) {
	rows, err := q.Query(`
		SELECT b.id, r.option_id
		FROM ballot b
		JOIN ranking r ON r.ballot_id = b.id
		WHERE b.poll_id = $1
		ORDER BY b.id, r.position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query ballots: %w", err)
	}
	defer rows.Close()

	var ballots []tally.Ballot
	for rows.Next() {
		var ballotID, optionID string
		if err := rows.Scan(&ballotID, &optionID); err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		if n := len(ballots); n == 0 || ballots[n-1].ID != ballotID {
			ballots = append(ballots, tally.Ballot{ID: ballotID})
		}
		last := &ballots[len(ballots)-1]
		last.Ranking = append(last.Ranking, optionID)
	}
	return ballots, rows.Err()
}

func countBallots(q querier, pollID string) (int, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM ballot WHERE poll_id = $1`, pollID).Scan(&count)
	return count, err
}
