package terms

// Defaults returns the built-in term lists used when no lists are configured.
func Defaults() Lists {
	return Lists{
		"profanity": {
			"damn", "hell", "shit", "fuck", "bitch", "ass", "bastard", "crap",
			"piss", "dick", "cock", "pussy", "slut", "whore",
		},
		"violence": {
			"kill", "murder", "blood", "gore", "torture", "stab", "shoot", "shot",
			"weapon", "gun", "knife", "death", "corpse", "mutilate",
		},
		"sexual": {
			"sex", "sexual", "nude", "naked", "breast", "penis", "vagina",
			"rape", "molest", "intercourse", "erotic", "orgasm",
		},
		"hate": {
			"racist", "sexist", "slur", "discrimination", "bigot", "hatred",
		},
		"drugs": {
			"drug", "cocaine", "heroin", "marijuana", "meth", "addiction",
		},
	}
}
