// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Rank API server.

Quickly Rank is a group polling service where each voter builds a ranked
ballot one row at a time. The ranking draft lives on the server, results are
tallied with a Borda count when the poll closes.

# Starting the Server

Against a local sqlite file:

	ADMIN_KEY_SALT=... POLL_SLUG_SALT=... go run . -d quickly-rank.db

Or against PostgreSQL:

	go run . -t postgres -d "postgres://..." --admin-salt ... --slug-salt ...

# Configuration

Flags override environment variables, which override a .env file
(--env-file picks another one).

Required settings:

  - DATABASE_URL (-d): connection string or sqlite path
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - POLL_SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (--base-url): prefix for share URLs
  - PRESETS_FILE (--presets): JSONC file of named option lists
  - EXPORT_DIR (--export-dir): where closed-poll results are written

Logs are text on a terminal and JSON otherwise.

# Architecture

  - ranking: the ranked-ballot state machine (options pool, rows, placeholder)
  - tally: Borda count over stored ballots
  - handlers: HTTP request handlers (polls, voting, drafts, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request ids and logging, JSON helpers
  - models: Request/response types
  - auth: Admin keys, share slugs, voter tokens
  - db: Driver selection and schema creation
  - presets: Named option lists for new polls
  - export: Atomic result snapshot files
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
