// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-rank/auth"
	"github.com/danielhkuo/quickly-rank/cliparse"
	"github.com/danielhkuo/quickly-rank/middleware"
	"github.com/danielhkuo/quickly-rank/models"
	"github.com/danielhkuo/quickly-rank/ranking"
)

// placeholderRankLabel marks the trailing "add the next rank" row
const placeholderRankLabel = "+"

var (
	errSubmitted   = errors.New("ballot is submitted")
	errDraftReset  = errors.New("draft was reset")
	errPollNotOpen = errors.New("poll is not open")
)

type draftKey struct {
	pollID     string
	voterToken string
}

// draft is one voter's ranking in progress. mu serializes every operation on
// ctrl, which is not safe for concurrent use.
type draft struct {
	mu       sync.Mutex
	ctrl     *ranking.Controller
	ballotID string
	// forgotten is set under mu once the store has dropped the draft. A
	// request that loaded it earlier must not apply edits to it.
	forgotten bool
}

// DraftStore keeps ballot drafts in memory, one per voter per poll. Drafts
// are rebuilt from the stored ballot after a restart.
//
// Forget and ForgetPoll mark the dropped drafts under their own lock, so an
// edit that raced with a whole-ballot submission or a close gets 409 instead
// of landing on a draft nobody will read again.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[draftKey]*draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[draftKey]*draft)}
}

func (s *DraftStore) get(pollID, voterToken string) *draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[draftKey{pollID, voterToken}]
}

// put stores d unless another request got there first, and returns the
// draft that won.
func (s *DraftStore) put(pollID, voterToken string, d *draft) *draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey{pollID, voterToken}
	if existing, ok := s.drafts[key]; ok {
		return existing
	}
	s.drafts[key] = d
	return d
}

// Forget drops the voter's draft so the next access rebuilds it
func (s *DraftStore) Forget(pollID, voterToken string) {
	key := draftKey{pollID, voterToken}

	s.mu.Lock()
	d, ok := s.drafts[key]
	delete(s.drafts, key)
	s.mu.Unlock()

	if ok {
		markForgotten(d)
	}
}

// ForgetPoll drops every draft of the poll and returns how many were held
func (s *DraftStore) ForgetPoll(pollID string) int {
	var dropped []*draft

	s.mu.Lock()
	for key, d := range s.drafts {
		if key.pollID == pollID {
			dropped = append(dropped, d)
			delete(s.drafts, key)
		}
	}
	s.mu.Unlock()

	// Drafts are locked after the store lock is released; a draft lock may be
	// held across a database transaction.
	for _, d := range dropped {
		markForgotten(d)
	}
	return len(dropped)
}

func markForgotten(d *draft) {
	d.mu.Lock()
	d.forgotten = true
	d.mu.Unlock()
}

// Len returns the number of live drafts
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

type DraftHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	keys   auth.Keyring
	drafts *DraftStore
}

func NewDraftHandler(db *sql.DB, cfg cliparse.Config, drafts *DraftStore) *DraftHandler {
	return &DraftHandler{
		db:     db,
		cfg:    cfg,
		keys:   auth.NewKeyring(cfg.AdminKeySalt, cfg.PollSlugSalt),
		drafts: drafts,
	}
}

// draftTarget identifies the draft a request operates on
type draftTarget struct {
	pollID     string
	voterToken string
	draft      *draft
}

// load resolves the poll and voter, then returns the voter's draft, building
// it on first access. Mutating requests need an open poll.
func (h *DraftHandler) load(w http.ResponseWriter, r *http.Request, mutating bool) (draftTarget, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return draftTarget{}, false
	}

	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return draftTarget{}, false
	}

	var pollID, status string
	err := h.db.QueryRow(`
		SELECT id, status FROM poll WHERE share_slug = $1
	`, shareSlug).Scan(&pollID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return draftTarget{}, false
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return draftTarget{}, false
	}

	exists, err := voterExists(h.db, pollID, voterToken)
	if err != nil {
		slog.Error("failed to verify voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return draftTarget{}, false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this poll")
		return draftTarget{}, false
	}

	if mutating && status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open for voting")
		return draftTarget{}, false
	}

	d := h.drafts.get(pollID, voterToken)
	if d == nil {
		d, err = h.buildDraft(pollID, voterToken)
		if err != nil {
			slog.Error("failed to build draft", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load draft")
			return draftTarget{}, false
		}
		d = h.drafts.put(pollID, voterToken, d)
	}

	return draftTarget{pollID: pollID, voterToken: voterToken, draft: d}, true
}

// buildDraft creates a controller over the poll's options and replays the
// voter's stored ballot into it, if any.
func (h *DraftHandler) buildDraft(pollID, voterToken string) (*draft, error) {
	options, err := loadOptions(h.db, pollID)
	if err != nil {
		return nil, err
	}

	candidates := make([]ranking.Candidate, len(options))
	for i, opt := range options {
		candidates[i] = ranking.Candidate{ID: ranking.OptionID(opt.ID), Label: opt.Label}
	}
	ctrl, err := ranking.New(candidates)
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}

	d := &draft{ctrl: ctrl}

	ballot, err := loadVoterBallot(h.db, pollID, voterToken)
	if errors.Is(err, sql.ErrNoRows) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}

	for _, id := range ballot.Ranking {
		if err := ctrl.Select(ctrl.Len()-1, ranking.Placeholder, ranking.OptionID(id)); err != nil {
			return nil, fmt.Errorf("replay ballot %s: %w", ballot.ID, err)
		}
	}
	ctrl.Submit()
	d.ballotID = ballot.ID

	return d, nil
}

// GetDraft handles GET /polls/:slug/draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	target, ok := h.load(w, r, false)
	if !ok {
		return
	}
	if writeCurrentView(w, target) {
		return
	}

	// Dropped between load and lock; the next load rebuilds it
	target, ok = h.load(w, r, false)
	if !ok {
		return
	}
	if !writeCurrentView(w, target) {
		writeDraftError(w, errDraftReset)
	}
}

// writeCurrentView writes the draft unless it has been forgotten
func writeCurrentView(w http.ResponseWriter, target draftTarget) bool {
	d := target.draft
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.forgotten {
		return false
	}
	middleware.JSONResponse(w, http.StatusOK, draftView(target, false))
	return true
}

// Select handles POST /polls/:slug/draft/select
func (h *DraftHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req models.DraftSelectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.mutate(w, r, "select", func(ctrl *ranking.Controller) (bool, error) {
		err := ctrl.Select(req.Row, ranking.OptionID(req.Previous), ranking.OptionID(req.OptionID))
		return err == nil, err
	})
}

// Deselect handles POST /polls/:slug/draft/deselect
func (h *DraftHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	var req models.DraftDeselectRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.mutate(w, r, "deselect", func(ctrl *ranking.Controller) (bool, error) {
		return ctrl.Deselect(req.Row)
	})
}

// Reorder handles POST /polls/:slug/draft/reorder
// A null destination is a cancelled drag and leaves the draft unchanged
func (h *DraftHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.DraftReorderRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	destination := ranking.NoDestination
	if req.Destination != nil {
		destination = *req.Destination
		if destination < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "destination out of range")
			return
		}
	}

	h.mutate(w, r, "reorder", func(ctrl *ranking.Controller) (bool, error) {
		return ctrl.Reorder(req.Source, destination)
	})
}

// mutate runs op against the voter's draft and writes the resulting view
func (h *DraftHandler) mutate(w http.ResponseWriter, r *http.Request, name string, op func(*ranking.Controller) (bool, error)) {
	target, ok := h.load(w, r, true)
	if !ok {
		return
	}
	h.apply(w, target, name, op)
}

func (h *DraftHandler) apply(w http.ResponseWriter, target draftTarget, name string, op func(*ranking.Controller) (bool, error)) {
	d := target.draft
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.forgotten {
		writeDraftError(w, errDraftReset)
		return
	}
	if d.ctrl.Submitted() {
		writeDraftError(w, errSubmitted)
		return
	}

	changed, err := op(d.ctrl)
	if err != nil {
		slog.Debug("draft operation rejected", "op", name, "poll_id", target.pollID, "error", err)
		writeDraftError(w, err)
		return
	}

	slog.Debug("draft updated", "op", name, "poll_id", target.pollID, "changed", changed, "rows", d.ctrl.Len())

	middleware.JSONResponse(w, http.StatusOK, draftView(target, changed))
}

// Submit handles POST /polls/:slug/draft/submit
// Toggles the submitted flag. Submitting stores the ranking as the voter's
// ballot; submitting again withdraws it and reopens the draft for editing.
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	target, ok := h.load(w, r, true)
	if !ok {
		return
	}
	h.toggleSubmit(w, r, target)
}

func (h *DraftHandler) toggleSubmit(w http.ResponseWriter, r *http.Request, target draftTarget) {
	d := target.draft
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.forgotten {
		writeDraftError(w, errDraftReset)
		return
	}
	if !d.ctrl.Submitted() && len(d.ctrl.Ranking()) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "rank at least one option before submitting")
		return
	}

	submitted, final := d.ctrl.Submit()

	if err := h.persist(r, target, submitted, final); err != nil {
		d.ctrl.Submit() // undo the toggle
		if errors.Is(err, errPollNotOpen) {
			writeDraftError(w, err)
			return
		}
		slog.Error("failed to persist draft submission", "error", err, "poll_id", target.pollID, "submitted", submitted)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	slog.Info("draft submission toggled",
		"poll_id", target.pollID,
		"submitted", submitted,
		"ballot_id", d.ballotID,
		"ranked", len(final),
	)

	middleware.JSONResponse(w, http.StatusOK, draftView(target, true))
}

// persist stores or withdraws the voter's ballot. Caller holds d.mu.
func (h *DraftHandler) persist(r *http.Request, target draftTarget, submitted bool, final []ranking.Option) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// The poll may have closed since load checked it
	var status string
	if err := tx.QueryRow("SELECT status FROM poll WHERE id = $1", target.pollID).Scan(&status); err != nil {
		return fmt.Errorf("poll status: %w", err)
	}
	if status != models.StatusOpen {
		return errPollNotOpen
	}

	d := target.draft
	var ballotID string
	if submitted {
		ids := make([]string, len(final))
		for i, opt := range final {
			ids[i] = string(opt.ID)
		}
		meta := ballotMeta{
			IPHash:    h.keys.HashIP(middleware.GetClientIP(r)),
			UserAgent: r.UserAgent(),
		}
		ballotID, _, err = upsertBallot(tx, target.pollID, target.voterToken, ids, meta)
		if err != nil {
			return err
		}
	} else if _, err := withdrawBallot(tx, target.pollID, target.voterToken); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	d.ballotID = ballotID
	return nil
}

// writeDraftError maps controller errors to HTTP statuses
func writeDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ranking.ErrStale):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, ranking.ErrOptionTaken):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, errSubmitted):
		middleware.ErrorResponse(w, http.StatusConflict, "Ballot is submitted; unsubmit it to make changes")
	case errors.Is(err, errDraftReset):
		middleware.ErrorResponse(w, http.StatusConflict, "Draft was reset; reload it")
	case errors.Is(err, errPollNotOpen):
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open for voting")
	case errors.Is(err, ranking.ErrIndexOutOfRange), errors.Is(err, ranking.ErrUnknownOption):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unexpected draft error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Draft error")
	}
}

// draftView renders the draft for the client. Caller holds the draft lock.
func draftView(target draftTarget, changed bool) models.DraftResponse {
	d := target.draft
	rows := d.ctrl.Rows()

	positions := make(map[ranking.OptionID]int)
	for i, opt := range d.ctrl.Options() {
		positions[opt.ID] = i
	}

	view := models.DraftResponse{
		PollID:    target.pollID,
		Rows:      make([]models.DraftRow, len(rows)),
		Submitted: d.ctrl.Submitted(),
		Ranking:   toModelOptions(d.ctrl.Ranking(), positions),
		BallotID:  d.ballotID,
		Changed:   changed,
	}

	for i, row := range rows {
		choices, _ := d.ctrl.Choices(i) // i is always in range
		dr := models.DraftRow{
			ID:          row.ID,
			SeedID:      string(row.Seed),
			Placeholder: row.IsPlaceholder(),
			Movable:     row.Movable,
			Choices:     toModelOptions(choices, positions),
		}
		if row.IsPlaceholder() {
			dr.RankLabel = placeholderRankLabel
		} else {
			dr.Rank = i + 1
			dr.RankLabel = humanize.Ordinal(i + 1)
			dr.OptionID = string(row.Value)
			if opt, ok := d.ctrl.Lookup(row.Value); ok {
				dr.Label = opt.Label
			}
		}
		view.Rows[i] = dr
	}

	return view
}

func toModelOptions(opts []ranking.Option, positions map[ranking.OptionID]int) []models.Option {
	out := make([]models.Option, len(opts))
	for i, opt := range opts {
		out[i] = models.Option{ID: string(opt.ID), Label: opt.Label, Position: positions[opt.ID]}
	}
	return out
}
