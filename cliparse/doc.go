// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - BaseURL: prefix for share links (default: https://quickly-rank.com)
  - PresetsFile: JSONC file of named candidate lists (optional)
  - ExportDir: where closed-poll results are written (optional)

# CLI Flags

	-p, --port           Server port
	-d, --database-url   Database URL
	-t, --database-type  sqlite or postgres
	--base-url           Share link base URL
	--presets            Candidate preset file
	--export-dir         Result export directory
	--env-file           Env file to load (default .env if present)
	--admin-salt         Admin key salt
	--slug-salt          Poll slug salt

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	BASE_URL       → --base-url
	PRESETS_FILE   → --presets
	EXPORT_DIR     → --export-dir
	ADMIN_KEY_SALT → --admin-salt
	POLL_SLUG_SALT → --slug-salt

Variables may also come from an env file. Values already present in the
environment are not overwritten by the file, and CLI flags take precedence
over both.
*/
package cliparse
