package models

import "time"

// Poll status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Voting method constants
const (
	MethodBorda = "borda"
)

// Request types

type CreatePollRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatorName string   `json:"creator_name"`
	Preset      string   `json:"preset,omitempty"`
	Options     []string `json:"options,omitempty"`
}

type AddOptionRequest struct {
	Label string `json:"label"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Ranking lists option ids, first choice first
type SubmitBallotRequest struct {
	Ranking []string `json:"ranking"`
}

// Draft requests. Row indices refer to the rows of the last draft the
// client rendered.

type DraftSelectRequest struct {
	Row      int    `json:"row"`
	Previous string `json:"previous"` // "" when the row showed the placeholder
	OptionID string `json:"option_id"`
}

type DraftDeselectRequest struct {
	Row int `json:"row"`
}

// Destination is nil when the drag was dropped outside the list
type DraftReorderRequest struct {
	Source      int  `json:"source"`
	Destination *int `json:"destination"`
}

// Response types

type CreatePollResponse struct {
	PollID   string   `json:"poll_id"`
	AdminKey string   `json:"admin_key"`
	Options  []Option `json:"options,omitempty"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type PublishPollResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	BallotID    string    `json:"ballot_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Ranking     []Option  `json:"ranking"`
}

type ClosePollResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type PollPreviewResponse struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	OptionCount int    `json:"option_count"`
	BallotCount int    `json:"ballot_count"`
}

// DraftRow is one rendered ranking slot
type DraftRow struct {
	ID          string   `json:"id"`
	Rank        int      `json:"rank,omitempty"`      // 0 for the placeholder
	RankLabel   string   `json:"rank_label"`          // "1st", "2nd", ... or "+"
	OptionID    string   `json:"option_id,omitempty"` // "" for the placeholder
	Label       string   `json:"label,omitempty"`
	SeedID      string   `json:"seed_id,omitempty"`
	Placeholder bool     `json:"placeholder"`
	Movable     bool     `json:"movable"`
	Choices     []Option `json:"choices"`
}

type DraftResponse struct {
	PollID    string     `json:"poll_id"`
	Rows      []DraftRow `json:"rows"`
	Submitted bool       `json:"submitted"`
	Ranking   []Option   `json:"ranking"`
	BallotID  string     `json:"ballot_id,omitempty"`
	Changed   bool       `json:"changed"`
}

// Domain types

type Poll struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosesAt        *time.Time `json:"closes_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Option struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id,omitempty"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type PollWithOptions struct {
	Poll    Poll     `json:"poll"`
	Options []Option `json:"options"`
}

// Borda result types

type OptionStanding struct {
	OptionID     string  `json:"option_id"`
	Label        string  `json:"label"`
	Points       int     `json:"points"`
	FirstChoices int     `json:"first_choices"`
	Appearances  int     `json:"appearances"`
	MeanRank     float64 `json:"mean_rank"`
	Rank         int     `json:"rank"` // 1-indexed ranking
}

type ResultSnapshot struct {
	ID          string           `json:"id"`
	PollID      string           `json:"poll_id"`
	Method      string           `json:"method"`
	ComputedAt  time.Time        `json:"computed_at"`
	Rankings    []OptionStanding `json:"rankings"`
	BallotCount int              `json:"ballot_count"`
	InputsHash  string           `json:"inputs_hash"` // Hash of all ballot IDs for verification
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
