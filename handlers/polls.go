// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-rank/auth"
	"github.com/danielhkuo/quickly-rank/cliparse"
	"github.com/danielhkuo/quickly-rank/export"
	"github.com/danielhkuo/quickly-rank/middleware"
	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/presets"
	"github.com/danielhkuo/quickly-rank/tally"
)

// maxOptions bounds the candidate pool of a single poll
const maxOptions = 64

type PollHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	keys     auth.Keyring
	presets  presets.Set
	exporter export.Writer
	drafts   *DraftStore
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config, set presets.Set, drafts *DraftStore) *PollHandler {
	return &PollHandler{
		db:       db,
		cfg:      cfg,
		keys:     auth.NewKeyring(cfg.AdminKeySalt, cfg.PollSlugSalt),
		presets:  set,
		exporter: export.Writer{Dir: cfg.ExportDir},
		drafts:   drafts,
	}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CreatorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	}

	labels := req.Options
	if req.Preset != "" {
		presetLabels, ok := h.presets.Lookup(req.Preset)
		if !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, "unknown preset: "+req.Preset)
			return
		}
		labels = append(presetLabels, labels...)
	}
	if msg := checkLabels(labels); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	pollID, err := auth.NewID(16)
	if err != nil {
		slog.Error("failed to generate poll ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, title, description, creator_name, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pollID, req.Title, req.Description, req.CreatorName, models.MethodBorda, models.StatusDraft, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	options := make([]models.Option, 0, len(labels))
	for i, label := range labels {
		opt, err := insertOption(tx, pollID, label, i)
		if err != nil {
			slog.Error("failed to insert option", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		options = append(options, opt)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created",
		"request_id", middleware.RequestID(r.Context()),
		"poll_id", pollID,
		"creator", req.CreatorName,
		"preset", req.Preset,
		"options", len(options),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:   pollID,
		AdminKey: h.keys.AdminKey(pollID),
		Options:  options,
	})
}

// checkLabels returns a client-facing message for an invalid label list
func checkLabels(labels []string) string {
	if len(labels) > maxOptions {
		return "too many options"
	}
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return "option labels cannot be empty"
		}
		if seen[label] {
			return "duplicate option label: " + label
		}
		seen[label] = true
	}
	return ""
}

func insertOption(tx *sql.Tx, pollID, label string, position int) (models.Option, error) {
	optionID, err := auth.NewID(12)
	if err != nil {
		return models.Option{}, err
	}
	_, err = tx.Exec(`
		INSERT INTO option (id, poll_id, label, position)
		VALUES ($1, $2, $3, $4)
	`, optionID, pollID, label, position)
	if err != nil {
		return models.Option{}, err
	}
	return models.Option{ID: optionID, PollID: pollID, Label: label, Position: position}, nil
}

// checkAdmin validates the X-Admin-Key header and writes the error response
func (h *PollHandler) checkAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return "", false
	}

	if err := h.keys.CheckAdminKey(pollID, r.Header.Get("X-Admin-Key")); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return pollID, true
}

// AddOption handles POST /polls/:id/options
func (h *PollHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.checkAdmin(w, r)
	if !ok {
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.Label) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "label is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Check poll exists and is in draft status
	var status string
	err = tx.QueryRow("SELECT status FROM poll WHERE id = $1", pollID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add options to non-draft poll")
		return
	}

	existing, err := loadOptions(tx, pollID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(existing) >= maxOptions {
		middleware.ErrorResponse(w, http.StatusBadRequest, "too many options")
		return
	}

	position := 0
	for _, opt := range existing {
		if opt.Label == req.Label {
			middleware.ErrorResponse(w, http.StatusConflict, "duplicate option label: "+req.Label)
			return
		}
		position = max(position, opt.Position+1)
	}

	opt, err := insertOption(tx, pollID, req.Label, position)
	if err != nil {
		slog.Error("failed to insert option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	slog.Info("option added", "poll_id", pollID, "option_id", opt.ID, "position", position)

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{
		OptionID: opt.ID,
	})
}

// PublishPoll handles POST /polls/:id/publish
func (h *PollHandler) PublishPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.checkAdmin(w, r)
	if !ok {
		return
	}

	// Check poll exists and is in draft status
	var status string
	var optionCount int
	err := h.db.QueryRow(`
		SELECT p.status, COUNT(o.id)
		FROM poll p
		LEFT JOIN option o ON p.id = o.poll_id
		WHERE p.id = $1
		GROUP BY p.status
	`, pollID).Scan(&status, &optionCount)

	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not in draft status")
		return
	}

	if optionCount < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Poll must have at least 2 options")
		return
	}

	shareSlug := h.keys.ShareSlug(pollID)

	_, err = h.db.Exec(`
		UPDATE poll
		SET status = $1, share_slug = $2
		WHERE id = $3
	`, models.StatusOpen, shareSlug, pollID)

	if err != nil {
		slog.Error("failed to publish poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish poll")
		return
	}

	slog.Info("poll published", "poll_id", pollID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.PublishPollResponse{
		ShareSlug: shareSlug,
		ShareURL:  strings.TrimRight(h.cfg.BaseURL, "/") + "/polls/" + shareSlug,
	})
}

// GetPollAdmin handles GET /polls/:id/admin
// Returns poll details for admin access using poll ID and admin key
func (h *PollHandler) GetPollAdmin(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.checkAdmin(w, r)
	if !ok {
		return
	}

	poll, err := pollByID(h.db, pollID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	options, err := loadOptions(h.db, poll.ID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithOptions{
		Poll:    poll,
		Options: options,
	})
}

// snapshotPayload is the stored form of a result snapshot
type snapshotPayload struct {
	Rankings    []models.OptionStanding `json:"rankings"`
	BallotCount int                     `json:"ballot_count"`
	InputsHash  string                  `json:"inputs_hash"`
}

// ClosePoll handles POST /polls/:id/close
// Tallies every stored ballot and freezes the result as the final snapshot
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.checkAdmin(w, r)
	if !ok {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow("SELECT status FROM poll WHERE id = $1", pollID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open")
		return
	}

	options, err := loadOptions(tx, pollID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	ballots, err := loadBallots(tx, pollID)
	if err != nil {
		slog.Error("failed to query ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	closedAt := time.Now().UTC()
	snapshot := models.ResultSnapshot{
		ID:          uuid.NewString(),
		PollID:      pollID,
		Method:      models.MethodBorda,
		ComputedAt:  closedAt,
		Rankings:    tallyStandings(options, ballots),
		BallotCount: len(ballots),
		InputsHash:  tally.InputsHash(ballots),
	}

	payload, err := json.Marshal(snapshotPayload{
		Rankings:    snapshot.Rankings,
		BallotCount: snapshot.BallotCount,
		InputsHash:  snapshot.InputsHash,
	})
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.Exec(`
		UPDATE poll
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4
	`, models.StatusClosed, closedAt, snapshot.ID, pollID)

	if err != nil {
		slog.Error("failed to close poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, poll_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshot.ID, pollID, snapshot.Method, closedAt, string(payload))

	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close poll")
		return
	}

	// Closed polls take no more edits; stored ballots rebuild any read
	dropped := h.drafts.ForgetPoll(pollID)

	slog.Info("poll closed",
		"poll_id", pollID,
		"snapshot_id", snapshot.ID,
		"ballots", snapshot.BallotCount,
		"inputs_hash", snapshot.InputsHash,
		"drafts_dropped", dropped,
	)

	// The snapshot is already committed, so a failed export only gets logged
	if path, err := h.exporter.WriteSnapshot(snapshot); err != nil {
		slog.Warn("failed to export snapshot", "error", err, "poll_id", pollID)
	} else if path != "" {
		slog.Info("snapshot exported", "poll_id", pollID, "path", path)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClosePollResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

// tallyStandings runs the Borda count over the poll's options
func tallyStandings(options []models.Option, ballots []tally.Ballot) []models.OptionStanding {
	candidates := make([]tally.Option, len(options))
	for i, opt := range options {
		candidates[i] = tally.Option{ID: opt.ID, Label: opt.Label}
	}

	standings := tally.Borda(candidates, ballots)
	out := make([]models.OptionStanding, len(standings))
	for i, s := range standings {
		out[i] = models.OptionStanding{
			OptionID:     s.OptionID,
			Label:        s.Label,
			Points:       s.Points,
			FirstChoices: s.FirstChoices,
			Appearances:  s.Appearances,
			MeanRank:     s.MeanRank,
			Rank:         s.Rank,
		}
	}
	return out
}
