// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import "sort"

// Diversity re-ranking constants.
const (
	diversityWeight        = 0.2
	diversityCategoryBoost = 0.1
	diversityAuthorBoost   = 0.05
)

// Diversify rewards the first appearance of each category and author in a
// score-sorted list, then re-sorts. It is a greedy single-pass heuristic:
// the first encounter gets the boost, not a global diversity optimum.
// The input slice is modified in place and returned.
//
// The caller must pass the list already sorted by descending score; ties
// keep their original order (stable sort).
func Diversify(candidates []ScoredCandidate) []ScoredCandidate {
	seenCategories := make(map[string]struct{})
	seenAuthors := make(map[string]struct{})

	for i := range candidates {
		c := &candidates[i]
		boost := 0.0

		if _, seen := seenCategories[c.Category]; !seen {
			boost += diversityCategoryBoost
			seenCategories[c.Category] = struct{}{}
		}
		if _, seen := seenAuthors[c.AuthorID]; !seen {
			boost += diversityAuthorBoost
			seenAuthors[c.AuthorID] = struct{}{}
		}

		addend := boost * diversityWeight
		c.RawScore += addend
		if c.Breakdown != nil {
			c.Breakdown["diversity"] = addend
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RawScore > candidates[j].RawScore
	})
	return candidates
}

// SortByScore orders candidates by descending score, stable on ties.
func SortByScore(candidates []ScoredCandidate) []ScoredCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RawScore > candidates[j].RawScore
	})
	return candidates
}
