// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package export writes closed-poll result snapshots to disk as
// <dir>/<poll_id>.json. Files are replaced atomically so readers never see a
// partial snapshot. A Writer with an empty Dir does nothing.
package export
