package app_test

import (
	"testing"
	"time"

	"learnquest-service/internal/app"
	"learnquest-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{xp: -50, level: 1},
		{xp: 0, level: 1},
		{xp: 99, level: 1},
		{xp: 100, level: 2},
		{xp: 399, level: 2},
		{xp: 400, level: 3},
		{xp: 900, level: 4},
		{xp: 10000, level: 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, app.CalculateLevel(tc.xp), "xp=%d", tc.xp)
	}

	prev := app.CalculateLevel(0)
	for xp := 1; xp <= 5000; xp += 7 {
		level := app.CalculateLevel(xp)
		require.GreaterOrEqual(t, level, prev, "level dropped at xp=%d", xp)
		prev = level
	}
}

func TestXPForNextLevelAndProgress(t *testing.T) {
	assert.Equal(t, 100, app.XPForNextLevel(1))
	assert.Equal(t, 900, app.XPForNextLevel(3))

	assert.Equal(t, domain.XPProgress{Level: 2, Current: 50, Needed: 300}, app.XPProgressFor(150))
	assert.Equal(t, domain.XPProgress{Level: 1, Current: 0, Needed: 100}, app.XPProgressFor(0))
	assert.Equal(t, domain.XPProgress{Level: 3, Current: 0, Needed: 500}, app.XPProgressFor(400))
}

func TestAwardPoints(t *testing.T) {
	cases := []struct {
		name       string
		gameType   domain.GameType
		score      int
		difficulty domain.Difficulty
		timeBonus  bool
		want       domain.Reward
	}{
		{name: "perfect easy quiz", gameType: domain.GameQuiz, score: 100, difficulty: domain.DifficultyEasy, want: domain.Reward{XP: 30, Coins: 15}},
		{name: "hard timed with bonus", gameType: domain.GameTimed, score: 80, difficulty: domain.DifficultyHard, timeBonus: true, want: domain.Reward{XP: 109, Coins: 56}},
		{name: "zero score still pays half", gameType: domain.GameQuiz, score: 0, difficulty: domain.DifficultyEasy, want: domain.Reward{XP: 10, Coins: 5}},
		{name: "unknown type falls back to quiz", gameType: "karaoke", score: 100, difficulty: domain.DifficultyEasy, want: domain.Reward{XP: 30, Coins: 15}},
		{name: "unknown difficulty counts as easy", gameType: domain.GameQuiz, score: 100, difficulty: "legendary", want: domain.Reward{XP: 30, Coins: 15}},
		{name: "score above 100 is clamped", gameType: domain.GameQuiz, score: 250, difficulty: domain.DifficultyEasy, want: domain.Reward{XP: 30, Coins: 15}},
		{name: "negative score is clamped", gameType: domain.GameMemory, score: -40, difficulty: domain.DifficultyMedium, want: domain.Reward{XP: 11, Coins: 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, app.AwardPoints(tc.gameType, tc.score, tc.difficulty, tc.timeBonus))
		})
	}
}

func TestCheckBadgeEligibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	progress := domain.UserProgress{
		Streak: 7,
		Subjects: map[string]domain.SubjectProgress{
			app.SubjectMathematics: {GamesCompleted: 5},
		},
	}
	result := domain.GameResult{GameType: domain.GameQuiz, Score: 100}

	badges := app.BadgeCatalog()
	earned := app.CheckBadgeEligibility(badges, progress, result, now)

	ids := make([]string, 0, len(earned))
	for _, badge := range earned {
		ids = append(ids, badge.ID)
		assert.True(t, badge.Earned)
		require.NotNil(t, badge.EarnedAt)
		assert.True(t, badge.EarnedAt.Equal(now))
	}
	assert.ElementsMatch(t, []string{"first_game", "math_master", "week_warrior", "perfect_score"}, ids)
	for _, badge := range badges {
		assert.False(t, badge.Earned, "input slice must not be modified")
	}

	for i := range badges {
		for _, e := range earned {
			if badges[i].ID == e.ID {
				badges[i] = e
			}
		}
	}
	again := app.CheckBadgeEligibility(badges, progress, result, now.Add(time.Hour))
	assert.Empty(t, again, "earned badges must not be re-emitted")
}

func TestCheckBadgeEligibilityThresholds(t *testing.T) {
	now := time.Now()
	progress := domain.UserProgress{
		Streak: 6,
		Subjects: map[string]domain.SubjectProgress{
			app.SubjectMathematics: {GamesCompleted: 4},
			app.SubjectScience:     {GamesCompleted: 10},
		},
	}
	earned := app.CheckBadgeEligibility(app.BadgeCatalog(), progress, domain.GameResult{Score: 99}, now)

	ids := map[string]bool{}
	for _, badge := range earned {
		ids[badge.ID] = true
	}
	assert.Equal(t, map[string]bool{"first_game": true, "science_explorer": true}, ids)
}

func TestUpdateAchievementProgress(t *testing.T) {
	progress := domain.UserProgress{
		Streak: 9,
		Subjects: map[string]domain.SubjectProgress{
			app.SubjectMathematics: {Level: 12, GamesCompleted: 8},
			app.SubjectScience:     {Level: 3, GamesCompleted: 4},
		},
	}
	updated := app.UpdateAchievementProgress(app.AchievementCatalog(), progress)

	byID := map[string]domain.Achievement{}
	for _, a := range updated {
		byID[a.ID] = a
	}
	assert.Equal(t, 10, byID["games_completed_10"].Progress)
	assert.True(t, byID["games_completed_10"].Unlocked)
	assert.Equal(t, 12, byID["games_completed_50"].Progress)
	assert.False(t, byID["games_completed_50"].Unlocked)
	assert.Equal(t, 7, byID["streak_7"].Progress)
	assert.True(t, byID["streak_7"].Unlocked)
	assert.Equal(t, 9, byID["streak_30"].Progress)
	assert.Equal(t, 10, byID["subject_master_math"].Progress)
	assert.True(t, byID["subject_master_math"].Unlocked)
	assert.Equal(t, 3, byID["subject_master_science"].Progress)
	assert.Equal(t, 0, byID["leaderboard_top10"].Progress)
	assert.False(t, byID["leaderboard_top10"].Unlocked)
}

func TestUpdateAchievementProgressUnlockIsSticky(t *testing.T) {
	unlocked := app.UpdateAchievementProgress(app.AchievementCatalog(), domain.UserProgress{Streak: 7})

	// The streak resets; progress follows it but the unlock stays.
	reset := app.UpdateAchievementProgress(unlocked, domain.UserProgress{Streak: 1})
	for _, a := range reset {
		if a.ID == "streak_7" {
			assert.Equal(t, 1, a.Progress)
			assert.True(t, a.Unlocked)
		}
	}
}
