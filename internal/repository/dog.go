// Package repository wraps all SQL used by the API and the pipeline worker.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelterpaws/waggle/internal/model"
	"github.com/shelterpaws/waggle/internal/namecrypt"
)

// ErrNotFound is returned when a dog or image record does not exist.
var ErrNotFound = errors.New("record not found")

// unavailableName is served when a stored name token cannot be decrypted.
const unavailableName = "Name unavailable"

// DogRepository persists dog records. The dog name column is passed through
// the namecrypt codec on every read and write.
type DogRepository struct {
	pool  *pgxpool.Pool
	codec *namecrypt.Codec
}

// NewDogRepository constructs a repository.
func NewDogRepository(pool *pgxpool.Pool, codec *namecrypt.Codec) *DogRepository {
	return &DogRepository{pool: pool, codec: codec}
}

// Filter narrows List results.
type Filter struct {
	State     string
	Color     string
	MinWeight float64
	MaxWeight float64
}

const dogColumns = `shelter_id, dog_id, shelter, city, state, encrypted_dog_name, species, description,
	dog_birthday, dog_weight, dog_color, shelter_entry_date, images, created_at, updated_at`

// Create inserts a new dog record with an empty image list.
func (r *DogRepository) Create(ctx context.Context, dog *model.Dog) error {
	name, err := r.codec.Encrypt(dog.Name)
	if err != nil {
		return fmt.Errorf("encrypt dog name: %w", err)
	}
	now := time.Now().UTC()
	dog.CreatedAt = now
	dog.UpdatedAt = now
	if dog.Images == nil {
		dog.Images = []model.ImageRecord{}
	}
	images, err := json.Marshal(dog.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO dogs (`+dogColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, dog.ShelterID, dog.DogID, dog.Shelter, dog.City, dog.State, name, dog.Species, dog.Description,
		nullString(dog.Birthday), nullFloat(dog.Weight), nullString(dog.Color), nullString(dog.ShelterEntryDate),
		images, dog.CreatedAt, dog.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert dog: %w", err)
	}
	return nil
}

// Get returns a dog by its composite key.
func (r *DogRepository) Get(ctx context.Context, shelterID, dogID string) (*model.Dog, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+dogColumns+` FROM dogs WHERE shelter_id=$1 AND dog_id=$2
	`, shelterID, dogID)
	dog, err := r.scanDog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dog %s/%s: %w", shelterID, dogID, ErrNotFound)
		}
		return nil, fmt.Errorf("select dog: %w", err)
	}
	return dog, nil
}

// List returns dogs matching the filter in creation order.
func (r *DogRepository) List(ctx context.Context, f Filter) ([]model.Dog, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.State != "" {
		conds = append(conds, "state = "+arg(f.State))
	}
	if f.Color != "" {
		conds = append(conds, "LOWER(COALESCE(dog_color,'')) LIKE "+arg("%"+strings.ToLower(f.Color)+"%"))
	}
	if f.MinWeight > 0 {
		conds = append(conds, "dog_weight >= "+arg(f.MinWeight))
	}
	if f.MaxWeight > 0 {
		conds = append(conds, "dog_weight <= "+arg(f.MaxWeight))
	}
	query := "SELECT " + dogColumns + " FROM dogs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dogs: %w", err)
	}
	defer rows.Close()

	var dogs []model.Dog
	for rows.Next() {
		dog, err := r.scanDog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dog: %w", err)
		}
		dogs = append(dogs, *dog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dogs: %w", err)
	}
	return dogs, nil
}

// Update rewrites the mutable listing fields of an existing dog.
func (r *DogRepository) Update(ctx context.Context, dog *model.Dog) error {
	name, err := r.codec.Encrypt(dog.Name)
	if err != nil {
		return fmt.Errorf("encrypt dog name: %w", err)
	}
	dog.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE dogs
		SET shelter=$3, city=$4, state=$5, encrypted_dog_name=$6, species=$7, description=$8,
			dog_birthday=$9, dog_weight=$10, dog_color=$11, shelter_entry_date=$12, updated_at=$13
		WHERE shelter_id=$1 AND dog_id=$2
	`, dog.ShelterID, dog.DogID, dog.Shelter, dog.City, dog.State, name, dog.Species, dog.Description,
		nullString(dog.Birthday), nullFloat(dog.Weight), nullString(dog.Color), nullString(dog.ShelterEntryDate),
		dog.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update dog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dog %s/%s: %w", dog.ShelterID, dog.DogID, ErrNotFound)
	}
	return nil
}

// Delete removes a dog record and returns its image list so the caller can
// delete the underlying blobs.
func (r *DogRepository) Delete(ctx context.Context, shelterID, dogID string) ([]model.ImageRecord, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		DELETE FROM dogs WHERE shelter_id=$1 AND dog_id=$2 RETURNING images
	`, shelterID, dogID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dog %s/%s: %w", shelterID, dogID, ErrNotFound)
		}
		return nil, fmt.Errorf("delete dog: %w", err)
	}
	var images []model.ImageRecord
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	return images, nil
}

// AppendImage appends one image record to the dog's list as a single atomic
// statement, creating the list if absent. Two images completing concurrently
// for the same dog cannot lose updates because the append happens inside the
// database, not as a client-side read-modify-write.
func (r *DogRepository) AppendImage(ctx context.Context, shelterID, dogID string, rec model.ImageRecord) error {
	entry, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal image record: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE dogs
		SET images = COALESCE(images, '[]'::jsonb) || $3::jsonb,
			updated_at = $4
		WHERE shelter_id=$1 AND dog_id=$2
	`, shelterID, dogID, string(entry), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dog %s/%s: %w", shelterID, dogID, ErrNotFound)
	}
	return nil
}

// RemoveImage removes the entry identified by imageID from the dog's list and
// returns it. The removal itself is a single UPDATE filtering the JSONB array
// by image id, so it composes safely with concurrent appends.
func (r *DogRepository) RemoveImage(ctx context.Context, shelterID, dogID, imageID string) (*model.ImageRecord, error) {
	dog, err := r.Get(ctx, shelterID, dogID)
	if err != nil {
		return nil, err
	}
	var removed *model.ImageRecord
	for i := range dog.Images {
		if dog.Images[i].ImageID == imageID {
			removed = &dog.Images[i]
			break
		}
	}
	if removed == nil {
		return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE dogs
		SET images = (
			SELECT COALESCE(jsonb_agg(elem ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(COALESCE(images, '[]'::jsonb)) WITH ORDINALITY AS t(elem, ord)
			WHERE elem->>'image_id' <> $3
		),
		updated_at = $4
		WHERE shelter_id=$1 AND dog_id=$2
	`, shelterID, dogID, imageID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("remove image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("dog %s/%s: %w", shelterID, dogID, ErrNotFound)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DogRepository) scanDog(row rowScanner) (*model.Dog, error) {
	var (
		dog       model.Dog
		nameToken string
		birthday  sql.NullString
		weight    sql.NullFloat64
		color     sql.NullString
		entryDate sql.NullString
		rawImages []byte
	)
	if err := row.Scan(&dog.ShelterID, &dog.DogID, &dog.Shelter, &dog.City, &dog.State, &nameToken,
		&dog.Species, &dog.Description, &birthday, &weight, &color, &entryDate,
		&rawImages, &dog.CreatedAt, &dog.UpdatedAt); err != nil {
		return nil, err
	}
	name, err := r.codec.Decrypt(nameToken)
	if err != nil {
		name = unavailableName
	}
	dog.Name = name
	dog.Birthday = birthday.String
	dog.Weight = weight.Float64
	dog.Color = color.String
	dog.ShelterEntryDate = entryDate.String
	if err := json.Unmarshal(rawImages, &dog.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	if dog.Images == nil {
		dog.Images = []model.ImageRecord{}
	}
	return &dog, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}
