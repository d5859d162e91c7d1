package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smart-break-quiz/internal/domain"
)

const (
	profileKeyPrefix = "school_profile_"
	leaderboardKey   = "school_leaderboard"
)

// ProfileRepository stores each profile as a JSON string and keeps a sorted
// set of user ids scored by points for ranked listing:
//
//	SET  school_profile_{userID} {json}
//	ZADD school_leaderboard {points} {userID}
type ProfileRepository struct {
	client *redis.Client
}

func NewProfileRepository(client *redis.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	raw, err := r.client.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return p, nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, p domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, profileKey(p.ID), raw, 0)
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(p.Points), Member: p.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ListProfiles returns every indexed profile, highest points first.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	ids, err := r.client.ZRevRange(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("rank profiles: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	out := make([]domain.Profile, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// indexed but the profile key is gone
			continue
		}
		var p domain.Profile
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", ids[i], err)
		}
		out = append(out, p)
	}
	return out, nil
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}
