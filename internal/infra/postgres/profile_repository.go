package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smart-break-quiz/internal/domain"
)

// ProfileRepository persists profiles in the users and subject_progress tables.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, level, points, progress, games_played, total_time, achievements
		FROM users
		WHERE id = $1`, userID).
		Scan(&p.ID, &p.Name, &p.Level, &p.Points, &p.Progress, &p.GamesPlayed, &p.TotalTime, &p.Achievements)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	subjects, err := r.subjectProgress(ctx, []string{userID})
	if err != nil {
		return domain.Profile{}, err
	}
	p.SubjectProgress = subjects[userID]
	if p.SubjectProgress == nil {
		p.SubjectProgress = map[string]float64{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	return p, nil
}

// SaveProfile upserts the user row and every subject row in one transaction.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p domain.Profile) error {
	achievements := p.Achievements
	if achievements == nil {
		achievements = []string{}
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, level, points, progress, games_played, total_time, achievements, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				level = EXCLUDED.level,
				points = EXCLUDED.points,
				progress = EXCLUDED.progress,
				games_played = EXCLUDED.games_played,
				total_time = EXCLUDED.total_time,
				achievements = EXCLUDED.achievements,
				updated_at = CURRENT_TIMESTAMP`,
			p.ID, p.Name, p.Level, p.Points, p.Progress, p.GamesPlayed, p.TotalTime, achievements)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		batch := &pgx.Batch{}
		for subject, progress := range p.SubjectProgress {
			batch.Queue(`
				INSERT INTO subject_progress (user_id, subject, progress)
				VALUES ($1, $2, $3)
				ON CONFLICT (user_id, subject) DO UPDATE SET progress = EXCLUDED.progress`,
				p.ID, subject, progress)
		}
		if batch.Len() == 0 {
			return nil
		}
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("upsert subject progress: %w", err)
			}
		}
		return results.Close()
	})
}

// ListProfiles returns every profile ordered by points, then level.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	const query = `
		SELECT id, name, level, points, progress, games_played, total_time, achievements
		FROM users
		ORDER BY points DESC, level DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	ids := []string{}
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Level, &p.Points, &p.Progress, &p.GamesPlayed, &p.TotalTime, &p.Achievements); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if p.Achievements == nil {
			p.Achievements = []string{}
		}
		profiles = append(profiles, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if len(ids) == 0 {
		return profiles, nil
	}

	subjects, err := r.subjectProgress(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].SubjectProgress = subjects[profiles[i].ID]
		if profiles[i].SubjectProgress == nil {
			profiles[i].SubjectProgress = map[string]float64{}
		}
	}
	return profiles, nil
}

func (r *ProfileRepository) subjectProgress(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, subject, progress
		FROM subject_progress
		WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load subject progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]float64, len(userIDs))
	for rows.Next() {
		var (
			userID, subject string
			progress        float64
		)
		if err := rows.Scan(&userID, &subject, &progress); err != nil {
			return nil, fmt.Errorf("scan subject progress: %w", err)
		}
		if out[userID] == nil {
			out[userID] = map[string]float64{}
		}
		out[userID][subject] = progress
	}
	return out, rows.Err()
}

func (r *ProfileRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
