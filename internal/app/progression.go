package app

import (
	"math"
	"time"

	"learnquest-service/internal/domain"
)

type rewardBase struct {
	xp    float64
	coins float64
}

var baseRewards = map[domain.GameType]rewardBase{
	domain.GameQuiz:       {xp: 20, coins: 10},
	domain.GameSimulation: {xp: 30, coins: 15},
	domain.GamePuzzle:     {xp: 25, coins: 12},
	domain.GameMemory:     {xp: 15, coins: 8},
	domain.GameTimed:      {xp: 35, coins: 18},
}

var difficultyMultipliers = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   1.0,
	domain.DifficultyMedium: 1.5,
	domain.DifficultyHard:   2.0,
}

const timeBonusMultiplier = 1.2

// CalculateLevel maps cumulative XP to a level: floor(sqrt(xp/100)) + 1.
func CalculateLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// XPForNextLevel is the cumulative XP at which the level after `level` starts.
func XPForNextLevel(level int) int {
	return level * level * 100
}

// XPProgressFor places xp inside its level band. The level is derived from xp.
func XPProgressFor(xp int) domain.XPProgress {
	if xp < 0 {
		xp = 0
	}
	level := CalculateLevel(xp)
	floor := XPForNextLevel(level - 1)
	return domain.XPProgress{
		Level:   level,
		Current: xp - floor,
		Needed:  XPForNextLevel(level) - floor,
	}
}

// AwardPoints computes the XP and coins for a finished game.
// Unknown game types use the quiz base, unknown difficulties count as easy,
// and the score is clamped to [0, 100].
func AwardPoints(gameType domain.GameType, score int, difficulty domain.Difficulty, timeBonus bool) domain.Reward {
	base, ok := baseRewards[gameType]
	if !ok {
		base = baseRewards[domain.GameQuiz]
	}
	difficultyMult, ok := difficultyMultipliers[difficulty]
	if !ok {
		difficultyMult = 1.0
	}
	scoreMult := 0.5 + float64(clampScore(score))/100
	bonusMult := 1.0
	if timeBonus {
		bonusMult = timeBonusMultiplier
	}

	return domain.Reward{
		XP:    int(math.Round(base.xp * difficultyMult * scoreMult * bonusMult)),
		Coins: int(math.Round(base.coins * difficultyMult * scoreMult * bonusMult)),
	}
}

// AwardFor is AwardPoints over a GameResult.
func AwardFor(result domain.GameResult) domain.Reward {
	return AwardPoints(result.GameType, result.Score, result.Difficulty, result.TimeBonus)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CheckBadgeEligibility returns the badges in current that are not yet earned and
// whose rule now holds, stamped as earned at now. current is left untouched.
func CheckBadgeEligibility(current []domain.Badge, progress domain.UserProgress, result domain.GameResult, now time.Time) []domain.Badge {
	var earned []domain.Badge
	for _, badge := range current {
		if badge.Earned {
			continue
		}
		rule, ok := badgeRules[badge.ID]
		if !ok || !rule(progress, result) {
			continue
		}
		stamp := now
		badge.Earned = true
		badge.EarnedAt = &stamp
		earned = append(earned, badge)
	}
	return earned
}

// UpdateAchievementProgress recomputes progress for every achievement in current.
// Progress is clamped to MaxProgress. Unlocking is sticky: an achievement that was
// unlocked stays unlocked even if the snapshot now projects lower progress.
func UpdateAchievementProgress(current []domain.Achievement, progress domain.UserProgress) []domain.Achievement {
	out := make([]domain.Achievement, len(current))
	for i, achievement := range current {
		value := achievement.Progress
		if rule, ok := achievementRules[achievement.ID]; ok {
			value = rule(progress)
		}
		if value > achievement.MaxProgress {
			value = achievement.MaxProgress
		}
		if value < 0 {
			value = 0
		}
		achievement.Progress = value
		achievement.Unlocked = achievement.Unlocked || value >= achievement.MaxProgress
		out[i] = achievement
	}
	return out
}
