package stats

const (
	// XPPerCompletion is the experience granted for each completion.
	XPPerCompletion = 10
	// XPPerLevel is the experience span of a single level.
	XPPerLevel = 100
)

// LevelProgress is the user's gamification state, derived entirely from
// the total completion count across all habits.
type LevelProgress struct {
	Level       int `json:"level"`
	Experience  int `json:"experience"`
	LevelXP     int `json:"level_xp"`
	NextLevelXP int `json:"next_level_xp"`
}

// Progress converts a total completion count into level and experience.
func Progress(totalCompletions int) LevelProgress {
	xp := totalCompletions * XPPerCompletion
	return LevelProgress{
		Level:       xp/XPPerLevel + 1,
		Experience:  xp,
		LevelXP:     xp % XPPerLevel,
		NextLevelXP: XPPerLevel,
	}
}

// Achievement is an unlockable badge with a stat threshold.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Requirement int    `json:"requirement"`
	Rarity      string `json:"rarity"`
	Unlocked    bool   `json:"unlocked"`
}

const (
	achievementKindCompletions = "completions"
	achievementKindStreak      = "streak"
)

// Achievements evaluates the badge set against the user's best streak and
// total completion count.
func Achievements(bestStreak, totalCompletions int) []Achievement {
	defs := []Achievement{
		{
			ID:          "first-steps",
			Name:        "First Steps",
			Description: "Complete your first habit",
			Kind:        achievementKindCompletions,
			Requirement: 1,
			Rarity:      "common",
		},
		{
			ID:          "streak-master",
			Name:        "Streak Master",
			Description: "Maintain a 7-day streak",
			Kind:        achievementKindStreak,
			Requirement: 7,
			Rarity:      "uncommon",
		},
		{
			ID:          "habit-hero",
			Name:        "Habit Hero",
			Description: "Complete 100 habits total",
			Kind:        achievementKindCompletions,
			Requirement: 100,
			Rarity:      "rare",
		},
		{
			ID:          "consistency-king",
			Name:        "Consistency King",
			Description: "Maintain a 30-day streak",
			Kind:        achievementKindStreak,
			Requirement: 30,
			Rarity:      "legendary",
		},
	}

	for i := range defs {
		switch defs[i].Kind {
		case achievementKindStreak:
			defs[i].Unlocked = bestStreak >= defs[i].Requirement
		default:
			defs[i].Unlocked = totalCompletions >= defs[i].Requirement
		}
	}
	return defs
}
