// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ranking implements the ranked-ballot draft: an option pool plus an
ordered list of rows that always ends in at most one "choose next" row.

# Building a Draft

	c, err := ranking.New([]ranking.Candidate{
		{ID: "pizza", Label: "Pizza"},
		{ID: "sushi", Label: "Sushi"},
	})

Candidates without an ID are named option-0, option-1, ... in input order.
The list starts with one placeholder row seeded from the first option.

# Operations

	c.Select(row, previous, option) // assign or revert a row
	c.Deselect(row)                 // explicit remove affordance
	c.Reorder(source, destination)  // completed drag gesture
	c.Submit()                      // toggle submitted, returns the ranking

previous is the value the caller rendered for the row. If it no longer matches,
Select returns ErrStale and leaves the draft untouched.

Reverting a row to Placeholder through Select and calling Deselect collapse the
same way: only the vacated rank is removed, later ranks shift up, and a single
placeholder sits at the tail. Ranks below the vacated one are never cascaded
away.

# Invariants

  - at most one placeholder row, and it is always last
  - len(rows) <= len(options)
  - an option is Selected iff exactly one row holds it
  - a row is Movable iff it holds an option and there are more than two rows

Row ids come from a per-controller counter and are never reused, so they are
safe to key rendered elements on.

Out-of-range indices return ErrIndexOutOfRange. Reorder with NoDestination,
Reorder of the placeholder and Deselect of the placeholder are no-ops.
*/
package ranking
