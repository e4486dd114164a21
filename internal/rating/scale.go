package rating

// Criteria describes what each content category looks like at a given level.
type Criteria struct {
	Profanity     string `json:"profanity"`
	Nudity        string `json:"nudity"`
	Violence      string `json:"violence"`
	SexualContent string `json:"sexualContent"`
}

// Level is one step of the 0-5 content rating scale.
type Level struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Criteria    Criteria `json:"criteria"`
}

const (
	Min = 0
	Max = 5
)

// Scale is the comprehensive content based rating scale, indexed by level.
var Scale = [Max + 1]Level{
	{
		Name:        "All Ages",
		Description: "No profanity, no nudity, no violence",
		Criteria: Criteria{
			Profanity:     "None",
			Nudity:        "None",
			Violence:      "None",
			SexualContent: "None",
		},
	},
	{
		Name:        "Juvenile Advisory",
		Description: "Mild references, no explicit acts",
		Criteria: Criteria{
			Profanity:     "Minimal mild language",
			Nudity:        "None",
			Violence:      "Cartoon/fantasy violence only",
			SexualContent: "Mild romantic references",
		},
	},
	{
		Name:        "Youth Advisory",
		Description: "Moderate violence, explicit ideologies",
		Criteria: Criteria{
			Profanity:     "Moderate language, some strong words",
			Nudity:        "Implied/artistic only",
			Violence:      "Moderate realistic violence",
			SexualContent: "Romantic situations, non-explicit",
		},
	},
	{
		Name:        "Youth Restricted",
		Description: "Explicit references, moderate nudity",
		Criteria: Criteria{
			Profanity:     "Frequent strong language",
			Nudity:        "Partial nudity, non-sexual context",
			Violence:      "Intense violence, some gore",
			SexualContent: "Sexual references and situations",
		},
	},
	{
		Name:        "Adults Only",
		Description: "Graphic acts, strong profanity, gore",
		Criteria: Criteria{
			Profanity:     "Pervasive strong language",
			Nudity:        "Full nudity in sexual context",
			Violence:      "Graphic violence and gore",
			SexualContent: "Explicit sexual content",
		},
	},
	{
		Name:        "Deviant Content",
		Description: "Aberrant, sexual assault, extreme violence",
		Criteria: Criteria{
			Profanity:     "Extreme offensive language",
			Nudity:        "Explicit sexual imagery",
			Violence:      "Extreme/sadistic violence",
			SexualContent: "Sexual violence, aberrant content, minors",
		},
	},
}

// Valid reports whether level is on the scale.
func Valid(level int) bool {
	return level >= Min && level <= Max
}

// Name returns the display name for a level, or "Unknown" when off the scale.
func Name(level int) string {
	if !Valid(level) {
		return "Unknown"
	}
	return Scale[level].Name
}
