package profile

import (
	"math"

	"smart-break-quiz/internal/domain"
)

const (
	// PointsPerLevel is the size of one level band.
	PointsPerLevel = 500
	// MinutesPerSession is credited to TotalTime for every finished session.
	MinutesPerSession  = 5
	maxSubjectProgress = 100
)

// Outcome describes what a finished session changed beyond the raw numbers.
type Outcome struct {
	Profile         domain.Profile `json:"profile"`
	Score           int            `json:"score"`
	PreviousLevel   int            `json:"previousLevel"`
	LevelUp         bool           `json:"levelUp"`
	NewAchievements []string       `json:"newAchievements"`
}

// LevelFor returns the level for a points total: floor(points/500)+1.
func LevelFor(points int) int {
	return points/PointsPerLevel + 1
}

// Apply folds a session score into the profile. The input profile is not modified.
func Apply(p domain.Profile, score int, category string) Outcome {
	if score < 0 {
		score = 0
	}
	updated := p.Clone()
	previousLevel := p.Level
	if previousLevel < 1 {
		previousLevel = LevelFor(p.Points)
	}

	updated.Points = p.Points + score
	updated.Level = LevelFor(updated.Points)

	// The band width is taken from the level held before this session.
	band := previousLevel * PointsPerLevel
	updated.Progress = float64(updated.Points%band) / float64(band) * 100

	if updated.SubjectProgress == nil {
		updated.SubjectProgress = make(map[string]float64)
	}
	updated.SubjectProgress[category] = math.Min(maxSubjectProgress, updated.SubjectProgress[category]+float64(score)/10)

	updated.GamesPlayed++
	updated.TotalTime += MinutesPerSession

	unlocked := CheckAchievements(updated)
	updated.Achievements = append(updated.Achievements, unlocked...)

	return Outcome{
		Profile:         updated,
		Score:           score,
		PreviousLevel:   previousLevel,
		LevelUp:         updated.Level > previousLevel,
		NewAchievements: unlocked,
	}
}
