package profile

import "smart-break-quiz/internal/domain"

// achievementDef is a catalog achievement and its unlock rule.
type achievementDef struct {
	ID       string
	Title    string
	Icon     string
	Unlocked func(p domain.Profile) bool
}

var achievements = []achievementDef{
	{ID: "1", Title: "Первые шаги", Icon: "👣", Unlocked: func(p domain.Profile) bool { return p.GamesPlayed >= 1 }},
	{ID: "2", Title: "Знаток математики", Icon: "🎓", Unlocked: func(p domain.Profile) bool { return p.SubjectProgress[domain.SubjectMath] >= 100 }},
	{ID: "3", Title: "Полиглот", Icon: "🗣️", Unlocked: func(p domain.Profile) bool { return p.SubjectProgress[domain.SubjectEnglish] >= 100 }},
	{ID: "4", Title: "Логик", Icon: "🧠", Unlocked: func(p domain.Profile) bool { return p.SubjectProgress[domain.SubjectLogic] >= 100 }},
	{ID: "5", Title: "Мастер", Icon: "👑", Unlocked: func(p domain.Profile) bool { return p.Level >= 5 }},
	{ID: "6", Title: "Чемпион", Icon: "🏆", Unlocked: func(p domain.Profile) bool { return p.Points >= 5000 }},
}

// CheckAchievements returns the ids the profile qualifies for and has not unlocked yet.
func CheckAchievements(p domain.Profile) []string {
	var earned []string
	for _, def := range achievements {
		if !p.HasAchievement(def.ID) && def.Unlocked(p) {
			earned = append(earned, def.ID)
		}
	}
	return earned
}

// Achievements lists the catalog with the unlock state of p.
func Achievements(p domain.Profile) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(achievements))
	for _, def := range achievements {
		out = append(out, domain.Achievement{
			ID:       def.ID,
			Title:    def.Title,
			Icon:     def.Icon,
			Unlocked: p.HasAchievement(def.ID),
		})
	}
	return out
}
