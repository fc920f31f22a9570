package app

import "learnquest-service/internal/domain"

// Subject keys used by the badge and achievement rules.
const (
	SubjectMathematics = "mathematics"
	SubjectScience     = "science"
)

var badgeCatalog = []domain.Badge{
	{ID: "first_game", Name: "First Steps", Description: "Complete your first game", Icon: "🎯", Color: "text-green-600", Requirement: "Complete 1 game"},
	{ID: "math_master", Name: "Math Master", Description: "Score 90% or higher in 5 math games", Icon: "🧮", Color: "text-blue-600", Requirement: "5 math games with 90%+ score"},
	{ID: "science_explorer", Name: "Science Explorer", Description: "Complete 10 science experiments", Icon: "🔬", Color: "text-purple-600", Requirement: "Complete 10 science games"},
	{ID: "tech_wizard", Name: "Tech Wizard", Description: "Master all technology challenges", Icon: "💻", Color: "text-indigo-600", Requirement: "Complete all tech games"},
	{ID: "engineering_genius", Name: "Engineering Genius", Description: "Build 5 successful engineering projects", Icon: "⚙️", Color: "text-orange-600", Requirement: "Complete 5 engineering simulations"},
	{ID: "week_warrior", Name: "Week Warrior", Description: "Maintain a 7-day learning streak", Icon: "⚡", Color: "text-yellow-600", Requirement: "7-day streak"},
	{ID: "month_champion", Name: "Month Champion", Description: "Learn every day for a month", Icon: "🏆", Color: "text-gold-600", Requirement: "30-day streak"},
	{ID: "helping_hand", Name: "Helping Hand", Description: "Help 3 classmates with questions", Icon: "🤝", Color: "text-pink-600", Requirement: "Help 3 students"},
	{ID: "perfect_score", Name: "Perfect Score", Description: "Get 100% on any game", Icon: "⭐", Color: "text-yellow-500", Requirement: "Score 100% on a game"},
	{ID: "speed_demon", Name: "Speed Demon", Description: "Complete a timed challenge in record time", Icon: "🚀", Color: "text-red-600", Requirement: "Top 10% completion time"},
}

var achievementCatalog = []domain.Achievement{
	{ID: "games_completed_10", Title: "Game Explorer", Description: "Complete 10 games across all subjects", Points: 100, Icon: "🎮", Category: domain.CategoryLearning, MaxProgress: 10},
	{ID: "games_completed_50", Title: "Game Master", Description: "Complete 50 games across all subjects", Points: 500, Icon: "🏅", Category: domain.CategoryLearning, MaxProgress: 50},
	{ID: "streak_7", Title: "Consistent Learner", Description: "Maintain a 7-day learning streak", Points: 200, Icon: "📅", Category: domain.CategoryStreak, MaxProgress: 7},
	{ID: "streak_30", Title: "Dedication Master", Description: "Maintain a 30-day learning streak", Points: 1000, Icon: "🔥", Category: domain.CategoryStreak, MaxProgress: 30},
	{ID: "subject_master_math", Title: "Mathematics Mastery", Description: "Reach level 10 in Mathematics", Points: 300, Icon: "📊", Category: domain.CategoryMastery, MaxProgress: 10},
	{ID: "subject_master_science", Title: "Science Mastery", Description: "Reach level 10 in Science", Points: 300, Icon: "🔬", Category: domain.CategoryMastery, MaxProgress: 10},
	{ID: "leaderboard_top10", Title: "Rising Star", Description: "Reach top 10 in class leaderboard", Points: 250, Icon: "⭐", Category: domain.CategorySocial, MaxProgress: 1},
	{ID: "leaderboard_top3", Title: "Elite Performer", Description: "Reach top 3 in class leaderboard", Points: 500, Icon: "🏆", Category: domain.CategorySocial, MaxProgress: 1},
}

// badgeRules holds the implemented eligibility predicates. Badges missing from this
// table (tech_wizard, engineering_genius, helping_hand, speed_demon) cannot be earned yet.
var badgeRules = map[string]func(domain.UserProgress, domain.GameResult) bool{
	"first_game": func(p domain.UserProgress, _ domain.GameResult) bool {
		for _, subject := range p.Subjects {
			if subject.GamesCompleted >= 1 {
				return true
			}
		}
		return false
	},
	"math_master": func(p domain.UserProgress, _ domain.GameResult) bool {
		return p.Subject(SubjectMathematics).GamesCompleted >= 5
	},
	"science_explorer": func(p domain.UserProgress, _ domain.GameResult) bool {
		return p.Subject(SubjectScience).GamesCompleted >= 10
	},
	"week_warrior": func(p domain.UserProgress, _ domain.GameResult) bool {
		return p.Streak >= 7
	},
	"month_champion": func(p domain.UserProgress, _ domain.GameResult) bool {
		return p.Streak >= 30
	},
	"perfect_score": func(_ domain.UserProgress, r domain.GameResult) bool {
		return r.Score == 100
	},
}

// achievementRules project a snapshot onto achievement progress. The leaderboard
// achievements have no rule and keep whatever progress they already had.
var achievementRules = map[string]func(domain.UserProgress) int{
	"games_completed_10":     domain.UserProgress.GamesCompleted,
	"games_completed_50":     domain.UserProgress.GamesCompleted,
	"streak_7":               func(p domain.UserProgress) int { return p.Streak },
	"streak_30":              func(p domain.UserProgress) int { return p.Streak },
	"subject_master_math":    func(p domain.UserProgress) int { return p.Subject(SubjectMathematics).Level },
	"subject_master_science": func(p domain.UserProgress) int { return p.Subject(SubjectScience).Level },
}

// BadgeCatalog returns a fresh copy of the badge catalog, all unearned.
func BadgeCatalog() []domain.Badge {
	out := make([]domain.Badge, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}

// AchievementCatalog returns a fresh copy of the achievement catalog, all locked at zero progress.
func AchievementCatalog() []domain.Achievement {
	out := make([]domain.Achievement, len(achievementCatalog))
	copy(out, achievementCatalog)
	return out
}
