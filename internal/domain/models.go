package domain

// Question models a multiple choice question with exactly one correct option.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Clone returns a copy that does not share the options slice.
func (q Question) Clone() Question {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return Question{Prompt: q.Prompt, Options: options, CorrectAnswer: q.CorrectAnswer}
}

// Difficulty is the tier of a game; it selects the points awarded per correct answer.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

// Valid reports whether d is one of the three supported tiers.
func (d Difficulty) Valid() bool {
	return d >= DifficultyEasy && d <= DifficultyHard
}

// Points returns the fixed points per correct answer, or 0 for an invalid tier.
func (d Difficulty) Points() int {
	if !d.Valid() {
		return 0
	}
	return int(d) * 10
}

// Label is the human readable tier name shown on game cards.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Легко"
	case DifficultyMedium:
		return "Средне"
	default:
		return "Сложно"
	}
}

// Subjects tracked in every profile.
const (
	SubjectMath      = "Математика"
	SubjectRussian   = "Русский язык"
	SubjectEnglish   = "Английский"
	SubjectGeography = "География"
	SubjectLogic     = "Логика"
	SubjectHistory   = "История"
)

// Subjects lists the subject categories in display order.
var Subjects = []string{SubjectMath, SubjectRussian, SubjectEnglish, SubjectGeography, SubjectLogic, SubjectHistory}

// Game is a catalog entry that can be launched as a session.
type Game struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
}

// Profile is the persisted per-user progression record.
type Profile struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Level           int                `json:"level"`
	Points          int                `json:"points"`
	Progress        float64            `json:"progress"`
	GamesPlayed     int                `json:"gamesPlayed"`
	TotalTime       int                `json:"totalTime"`
	Achievements    []string           `json:"achievements"`
	SubjectProgress map[string]float64 `json:"subjectProgress"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	if p.Achievements != nil {
		out.Achievements = make([]string, len(p.Achievements))
		copy(out.Achievements, p.Achievements)
	}
	if p.SubjectProgress != nil {
		out.SubjectProgress = make(map[string]float64, len(p.SubjectProgress))
		for subject, progress := range p.SubjectProgress {
			out.SubjectProgress[subject] = progress
		}
	}
	return out
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p Profile) HasAchievement(id string) bool {
	for _, unlocked := range p.Achievements {
		if unlocked == id {
			return true
		}
	}
	return false
}

// Achievement is a catalog achievement with its unlock state for one profile.
type Achievement struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
	Unlocked bool   `json:"unlocked"`
}

// LeaderboardEntry is a ranked, snapshot-friendly view of a profile.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}
