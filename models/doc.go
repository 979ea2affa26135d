// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreatePollRequest: title, description, creator_name, optional preset/options
  - AddOptionRequest: label
  - ClaimUsernameRequest: username
  - SubmitBallotRequest: ranking (option ids, first choice first)
  - DraftSelectRequest: row, previous, option_id
  - DraftDeselectRequest: row
  - DraftReorderRequest: source, destination (null = cancelled drag)

# Response Types

  - CreatePollResponse: poll_id, admin_key, seeded options
  - PublishPollResponse: share_slug, share_url
  - ClaimUsernameResponse: voter_token
  - SubmitBallotResponse, MyBallotResponse
  - DraftResponse: rendered rows, submitted flag, current ranking
  - ClosePollResponse: closed_at, snapshot
  - PollPreviewResponse
  - ErrorResponse: error, message

# Domain Types

  - Poll, Option (ordered by Position), PollWithOptions
  - OptionStanding: Borda statistics for one option
  - ResultSnapshot: immutable result record

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Voting method:

	MethodBorda = "borda"
*/
package models
