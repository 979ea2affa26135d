// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Rank API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - PollHandler: Poll lifecycle (create, publish, close)
  - VotingHandler: Username claims and whole-ballot submission
  - DraftHandler: Row by row ranking drafts backed by the ranking package
  - ResultsHandler: Poll info and results retrieval

# Poll Lifecycle

Polls progress through three states: draft → open → closed

	POST /polls              → CreatePoll (returns admin_key)
	POST /polls/{id}/options → AddOption (draft only)
	POST /polls/{id}/publish → PublishPoll (generates share_slug)
	POST /polls/{id}/close   → ClosePoll (Borda tally, snapshot, export)

Admin operations require the X-Admin-Key header.

# Voting Flow

Voters claim a username and then either post a full ranking to
/ballots or build it on the server through the draft endpoints. A
submitted draft is stored as a ballot; toggling submit again withdraws
it and unlocks the rows.

Voter operations require the X-Voter-Token header.

# Drafts

DraftStore keeps one ranking.Controller per poll and voter in memory.
A missing draft is rebuilt from the voter's stored ballot, so a restart
only loses unsubmitted edits. Closing a poll drops its drafts. Every event names the row and the option
it expects there; a mismatch is reported as 409.

# Results

Closing a poll tallies all ballots with a Borda count (rank r out of n
options scores n-r+1) and stores the standings with a hash of the inputs.
*/
package handlers
