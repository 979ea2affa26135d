// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package presets loads named candidate lists that seed new polls.

The presets file is JSON with comments and trailing commas allowed:

	{
		// lunch spots near the office
		"presets": {
			"lunch": ["Tacos", "Ramen", "Salad bar",],
		},
	}

Usage:

	set, err := presets.Load(cfg.PresetsFile)
	labels, ok := set.Lookup("lunch")

An empty path yields an empty Set. Labels keep file order, which becomes
the option order of the poll.
*/
package presets
