// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sort"
	"strings"
)

// Option is a candidate being tallied.
type Option struct {
	ID    string
	Label string
}

// Ballot is one voter's ranking, best first. It may be partial.
type Ballot struct {
	ID      string
	Ranking []string
}

// Standing is the aggregate for a single option
type Standing struct {
	OptionID     string
	Label        string
	Points       int
	FirstChoices int
	Appearances  int
	MeanRank     float64 // 0 when never ranked
	Rank         int     // 1-indexed
}

// Borda tallies ballots with a modified Borda count: over n options, the
// option at position r (1-indexed) earns n-r+1 points and unranked options
// earn nothing. Unknown and repeated option ids on a ballot are skipped.
func Borda(options []Option, ballots []Ballot) []Standing {
	n := len(options)
	byID := make(map[string]*Standing, n)
	rankSums := make(map[string]int, n)

	standings := make([]Standing, n)
	for i, opt := range options {
		standings[i] = Standing{OptionID: opt.ID, Label: opt.Label}
		byID[opt.ID] = &standings[i]
	}

	for _, ballot := range ballots {
		seen := make(map[string]bool, len(ballot.Ranking))
		position := 0
		for _, id := range ballot.Ranking {
			s, ok := byID[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			position++

			s.Points += n - position + 1
			s.Appearances++
			rankSums[id] += position
			if position == 1 {
				s.FirstChoices++
			}
		}
	}

	for i := range standings {
		s := &standings[i]
		if s.Appearances > 0 {
			s.MeanRank = float64(rankSums[s.OptionID]) / float64(s.Appearances)
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]

		// 1. More points
		if a.Points != b.Points {
			return a.Points > b.Points
		}

		// 2. More first choices
		if a.FirstChoices != b.FirstChoices {
			return a.FirstChoices > b.FirstChoices
		}

		// 3. Better (lower) mean rank
		if a.MeanRank != b.MeanRank {
			return a.MeanRank < b.MeanRank
		}

		// 4. Label, then id, for a stable order
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.OptionID < b.OptionID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings
}

// InputsHash fingerprints the set of ballots a snapshot was computed from.
func InputsHash(ballots []Ballot) string {
	if len(ballots) == 0 {
		return "no-ballots"
	}

	ids := make([]string, len(ballots))
	for i, b := range ballots {
		ids[i] = b.ID
	}
	slices.Sort(ids)

	sum := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	return hex.EncodeToString(sum[:])
}
