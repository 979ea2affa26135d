// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

DatabaseType is "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite). SQLite
connections are limited to one open connection.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on both drivers.

# Tables

  - poll: Poll metadata and lifecycle state
  - option: Candidates per poll, ordered by position
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per poll
  - ranking: Ranked entries of a ballot (position 1 = first choice)
  - result_snapshot: Immutable Borda results

# Relationships

	poll 1──* option
	poll 1──* username_claim
	poll 1──* ballot
	ballot 1──* ranking
	poll 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.

# Errors

IsUniqueViolation recognizes unique-constraint failures from either driver,
for example a username that is already claimed.
*/
package db
