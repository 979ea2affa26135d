// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes ranked-ballot results.

	standings := tally.Borda(options, ballots)
	hash := tally.InputsHash(ballots)

Borda is a modified Borda count that accepts partial rankings. Ties break on
first-choice count, then mean rank, then label and option id, so the order is
fully deterministic.
*/
package tally
