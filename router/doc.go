// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Rank API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, presetSet)

# Endpoints

Health and discovery:

	GET /health
	GET /presets

Poll management (admin, requires X-Admin-Key):

	POST /polls              - Create poll (optionally from a preset)
	GET  /polls/{id}/admin   - Get poll details
	POST /polls/{id}/options - Add option
	POST /polls/{id}/publish - Open for voting
	POST /polls/{id}/close   - Seal results

Voting (public, uses share slug and X-Voter-Token):

	POST /polls/{slug}/claim-username - Claim voter identity
	POST /polls/{slug}/ballots        - Submit/update a whole ballot
	GET  /polls/{slug}/my-ballot      - Read back the stored ballot

Ranking draft (row by row editing):

	GET  /polls/{slug}/draft          - Current rows and choices
	POST /polls/{slug}/draft/select   - Put an option on a row
	POST /polls/{slug}/draft/deselect - Clear a row
	POST /polls/{slug}/draft/reorder  - Move a row
	POST /polls/{slug}/draft/submit   - Toggle submitted

Results (public):

	GET /polls/{slug}              - Poll info and options
	GET /polls/{slug}/results      - Final results (closed only)
	GET /polls/{slug}/ballot-count - Vote count
	GET /polls/{slug}/preview      - Compact preview data

# Handler Initialization

The poll, voting and draft handlers share one DraftStore so a whole-ballot
submission resets the voter's draft and a close drops the poll's drafts:

	drafts := handlers.NewDraftStore()
	pollHandler := handlers.NewPollHandler(db, cfg, presetSet, drafts)
	votingHandler := handlers.NewVotingHandler(db, cfg, drafts)
	draftHandler := handlers.NewDraftHandler(db, cfg, drafts)
*/
package router
