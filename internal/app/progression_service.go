package app

import (
	"context"
	"sync"
	"time"

	"learnquest-service/internal/domain"
)

const (
	badgesCollectionPrefix       = "learnquest_badges:"
	achievementsCollectionPrefix = "learnquest_achievements:"
)

// ProgressionService persists each user's badge and achievement state on top of the
// pure progression rules.
type ProgressionService struct {
	store CollectionStore
	now   func() time.Time
	mu    sync.Mutex
}

func NewProgressionService(store CollectionStore) *ProgressionService {
	return NewProgressionServiceWithClock(store, time.Now)
}

// NewProgressionServiceWithClock allows deterministic earned timestamps in tests.
func NewProgressionServiceWithClock(store CollectionStore, now func() time.Time) *ProgressionService {
	return &ProgressionService{store: store, now: now}
}

// Badges returns the full catalog with the user's earned flags applied.
func (s *ProgressionService) Badges(ctx context.Context, userID string) ([]domain.Badge, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	return s.loadBadges(ctx, userID)
}

// Achievements returns the full catalog with the user's stored progress applied.
func (s *ProgressionService) Achievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	return s.loadAchievements(ctx, userID)
}

// RecordGame awards points for result and re-evaluates badges and achievements
// against progress, which should already include the finished game.
func (s *ProgressionService) RecordGame(ctx context.Context, userID string, progress domain.UserProgress, result domain.GameResult) (domain.GameOutcome, error) {
	if userID == "" {
		return domain.GameOutcome{}, domain.ErrMissingUser
	}

	reward := AwardFor(result)

	s.mu.Lock()
	defer s.mu.Unlock()

	badges, err := s.loadBadges(ctx, userID)
	if err != nil {
		return domain.GameOutcome{}, err
	}
	newBadges := CheckBadgeEligibility(badges, progress, result, s.now())

	previous, err := s.loadAchievements(ctx, userID)
	if err != nil {
		return domain.GameOutcome{}, err
	}
	achievements := UpdateAchievementProgress(previous, progress)

	unlocked := []string{}
	for i := range achievements {
		if achievements[i].Unlocked && !previous[i].Unlocked {
			unlocked = append(unlocked, achievements[i].ID)
		}
	}

	if len(newBadges) > 0 {
		if err := saveCollection(ctx, s.store, badgesCollectionPrefix+userID, earnedBadges(badges, newBadges)); err != nil {
			return domain.GameOutcome{}, err
		}
	}
	if err := saveCollection(ctx, s.store, achievementsCollectionPrefix+userID, achievements); err != nil {
		return domain.GameOutcome{}, err
	}

	if newBadges == nil {
		newBadges = []domain.Badge{}
	}
	return domain.GameOutcome{
		Reward:       reward,
		Progress:     XPProgressFor(progress.TotalXP + reward.XP),
		NewBadges:    newBadges,
		Achievements: achievements,
		Unlocked:     unlocked,
	}, nil
}

func (s *ProgressionService) loadBadges(ctx context.Context, userID string) ([]domain.Badge, error) {
	stored, err := loadCollection[domain.Badge](ctx, s.store, badgesCollectionPrefix+userID)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]domain.Badge, len(stored))
	for _, badge := range stored {
		earned[badge.ID] = badge
	}

	badges := BadgeCatalog()
	for i := range badges {
		if prior, ok := earned[badges[i].ID]; ok && prior.Earned {
			badges[i].Earned = true
			badges[i].EarnedAt = prior.EarnedAt
		}
	}
	return badges, nil
}

func (s *ProgressionService) loadAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	stored, err := loadCollection[domain.Achievement](ctx, s.store, achievementsCollectionPrefix+userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Achievement, len(stored))
	for _, achievement := range stored {
		byID[achievement.ID] = achievement
	}

	achievements := AchievementCatalog()
	for i := range achievements {
		if prior, ok := byID[achievements[i].ID]; ok {
			achievements[i].Progress = prior.Progress
			achievements[i].Unlocked = prior.Unlocked
		}
	}
	return achievements, nil
}

// earnedBadges lists every earned badge after merging the newly earned ones.
func earnedBadges(current, fresh []domain.Badge) []domain.Badge {
	byID := make(map[string]domain.Badge, len(fresh))
	for _, badge := range fresh {
		byID[badge.ID] = badge
	}
	out := make([]domain.Badge, 0, len(current))
	for _, badge := range current {
		if updated, ok := byID[badge.ID]; ok {
			badge = updated
		}
		if badge.Earned {
			out = append(out, badge)
		}
	}
	return out
}
