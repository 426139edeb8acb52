// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

// Term lists for the lexicon analyzers. Deliberately small and heuristic:
// each analyzer is a deterministic local scoring function, and a
// network-backed classifier can replace any single analyzer without
// touching the decision rules.
var (
	toxicityTerms = []string{
		"idiot", "stupid", "moron", "pathetic", "worthless",
		"shut up", "loser", "trash human", "disgusting person",
	}

	hateSpeechTerms = []string{
		"go back to your country", "your kind", "subhuman",
		"vermin", "not real people", "deserve to be wiped",
		"inferior race", "ethnic filth",
	}

	harassmentTerms = []string{
		"i know where you live", "watch your back", "you will regret",
		"everyone look at this person", "dox", "expose your address",
		"keep an eye on you",
	}

	spamTerms = []string{
		"click here", "limited offer", "act now", "guaranteed income",
		"double your money", "free money", "winner winner",
		"dm me to invest", "crypto giveaway", "work from home riches",
	}

	violenceTerms = []string{
		"kill", "shoot", "stab", "burn down", "beat you",
		"attack them", "bring weapons", "make them bleed",
	}

	// Immediate-action phrases describe a concrete, directed threat.
	violenceImmediateTerms = []string{
		"i will kill", "going to kill", "kill you tonight",
		"bring a gun to", "bomb the",
	}

	misinformationTerms = []string{
		"doctors don't want you to know", "cure in 24 hours",
		"vaccines cause", "miracle cure", "the election was stolen",
		"secret government program", "banned remedy",
	}

	culturalTerms = []string{
		"your tribe", "those people from", "backwards culture",
		"primitive customs", "they all steal", "typical of them",
	}

	// suspiciousMediaPatterns are media reference substrings that route
	// the attachment to human review.
	suspiciousMediaPatterns = []string{
		"gore", "nsfw", "explicit", "weapon", "unverified",
	}
)
