package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"smart-break-quiz/internal/domain"
)

const profileKeyPrefix = "school_profile_"

// ProfileRepository keeps profiles as JSON values under school_profile_{userID}.
type ProfileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	raw, err := r.store.Get(ctx, profileKeyPrefix+userID)
	if errors.Is(err, ErrKeyNotFound) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return p, nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, p domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return r.store.Set(ctx, profileKeyPrefix+p.ID, string(raw))
}

func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	values, err := r.store.Values(ctx, profileKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Profile, 0, len(values))
	for _, raw := range values {
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// CurrentUserID returns the remembered local user id, if any.
func (r *ProfileRepository) CurrentUserID(ctx context.Context) (string, bool, error) {
	id, err := r.store.Get(ctx, UserIDKey)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// RememberUserID stores the local user id.
func (r *ProfileRepository) RememberUserID(ctx context.Context, userID string) error {
	return r.store.Set(ctx, UserIDKey, userID)
}
