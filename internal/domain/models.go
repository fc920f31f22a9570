package domain

import (
	"strings"
	"time"
)

// Difficulty grades a game and scales its reward.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium or hard (case-insensitive).
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// GameType selects the base reward for a completed game.
type GameType string

const (
	GameQuiz       GameType = "quiz"
	GameSimulation GameType = "simulation"
	GamePuzzle     GameType = "puzzle"
	GameMemory     GameType = "memory"
	GameTimed      GameType = "timed"
)

// ParseGameType accepts the known game types (case-insensitive).
func ParseGameType(raw string) (GameType, error) {
	switch g := GameType(strings.ToLower(strings.TrimSpace(raw))); g {
	case GameQuiz, GameSimulation, GamePuzzle, GameMemory, GameTimed:
		return g, nil
	default:
		return "", ErrInvalidGameType
	}
}

// AchievementCategory groups achievements for display.
type AchievementCategory string

const (
	CategoryLearning AchievementCategory = "learning"
	CategoryStreak   AchievementCategory = "streak"
	CategorySocial   AchievementCategory = "social"
	CategoryMastery  AchievementCategory = "mastery"
)

// Badge is a one-time marker from a fixed catalog.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	Requirement string     `json:"requirement"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earnedDate,omitempty"`
}

// Achievement is a progress-tracked goal with a point value.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Points      int                 `json:"points"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Unlocked    bool                `json:"unlocked"`
	Progress    int                 `json:"progress"`
	MaxProgress int                 `json:"maxProgress"`
}

// SubjectProgress holds per-subject stats inside a UserProgress snapshot.
type SubjectProgress struct {
	Level          int     `json:"level"`
	XP             int     `json:"xp"`
	GamesCompleted int     `json:"gamesCompleted"`
	AverageScore   float64 `json:"averageScore"`
	TimeSpent      int     `json:"timeSpent"`
}

// UserProgress is a snapshot assembled by callers. The engine reads it but never stores it.
type UserProgress struct {
	Level    int                        `json:"level"`
	TotalXP  int                        `json:"totalXP"`
	Coins    int                        `json:"coins"`
	Streak   int                        `json:"streak"`
	Subjects map[string]SubjectProgress `json:"subjectProgress"`
}

// GamesCompleted sums completed games across every subject.
func (p UserProgress) GamesCompleted() int {
	total := 0
	for _, subject := range p.Subjects {
		total += subject.GamesCompleted
	}
	return total
}

// Subject returns the stats for name, zero-valued when absent.
func (p UserProgress) Subject(name string) SubjectProgress {
	return p.Subjects[name]
}

// GameResult is the outcome of a single finished game.
type GameResult struct {
	GameType   GameType   `json:"gameType"`
	Score      int        `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
	TimeBonus  bool       `json:"timeBonus"`
}

// Reward is the XP and coins granted for a game.
type Reward struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// XPProgress locates an XP total inside its level band.
type XPProgress struct {
	Level   int `json:"level"`
	Current int `json:"current"`
	Needed  int `json:"needed"`
}

// GameOutcome is everything the engine derives from one recorded game.
type GameOutcome struct {
	Reward       Reward        `json:"reward"`
	Progress     XPProgress    `json:"progress"`
	NewBadges    []Badge       `json:"newBadges"`
	Achievements []Achievement `json:"achievements"`
	Unlocked     []string      `json:"unlocked"`
}

// OfflineQuestion is one multiple-choice question inside a cached game.
type OfflineQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// OfflineGame is a locally cached copy of a game's question set.
type OfflineGame struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Subject    string            `json:"subject"`
	Difficulty Difficulty        `json:"difficulty"`
	Questions  []OfflineQuestion `json:"questions"`
	CachedAt   time.Time         `json:"cachedAt"`
}

// OfflineProgress records a game completed while offline.
type OfflineProgress struct {
	GameID      string    `json:"gameId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
	Synced      bool      `json:"synced"`
}

// SyncBatch is the payload handed to an uploader.
type SyncBatch struct {
	ID        string            `json:"id"`
	Records   []OfflineProgress `json:"records"`
	CreatedAt time.Time         `json:"createdAt"`
}

// StorageUsage is an estimate in megabytes.
type StorageUsage struct {
	Used      float64 `json:"used"`
	Available float64 `json:"available"`
}

// OfflineStatus summarizes the offline cache for indicators.
type OfflineStatus struct {
	Online      bool         `json:"online"`
	Unsynced    int          `json:"unsynced"`
	CachedGames int          `json:"cachedGames"`
	Storage     StorageUsage `json:"storage"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
