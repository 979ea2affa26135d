// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides poll credentials and random identifiers.

# Keyring

A Keyring holds the admin and slug salts from configuration:

	keys := auth.NewKeyring(cfg.AdminKeySalt, cfg.PollSlugSalt)

	adminKey := keys.AdminKey(pollID)
	err := keys.CheckAdminKey(pollID, adminKey)
	slug := keys.ShareSlug(pollID)
	ipHash := keys.HashIP(clientIP)

All of these are HMAC-SHA256 derivations, so the same poll ID always yields the
same admin key and slug and neither is stored in the database.

# Random Values

	id, err := auth.NewID(16)        // 32 hex characters
	token, err := auth.NewVoterToken()

Voter tokens identify a voter within one poll. They are handed out by
claim-username and required on every ballot and draft request.
*/
package auth
