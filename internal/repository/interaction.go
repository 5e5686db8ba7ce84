package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelterpaws/waggle/internal/model"
)

// InteractionRepository records wag/growl reactions.
type InteractionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository constructs a repository.
func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{pool: pool}
}

// Create upserts the user's reaction for a dog; a later wag replaces an
// earlier growl and vice versa.
func (r *InteractionRepository) Create(ctx context.Context, in *model.Interaction) error {
	in.DogKey = model.DogKey(in.ShelterID, in.DogID)
	in.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interactions (user_id, dog_key, shelter_id, dog_id, interaction_type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, dog_key)
		DO UPDATE SET interaction_type = EXCLUDED.interaction_type, created_at = EXCLUDED.created_at
	`, in.UserID, in.DogKey, in.ShelterID, in.DogID, in.InteractionType, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// ListByUser returns the user's interactions, most recent first.
func (r *InteractionRepository) ListByUser(ctx context.Context, userID string) ([]model.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, dog_key, shelter_id, dog_id, interaction_type, created_at
		FROM interactions WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		if err := rows.Scan(&in.UserID, &in.DogKey, &in.ShelterID, &in.DogID, &in.InteractionType, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return out, nil
}
