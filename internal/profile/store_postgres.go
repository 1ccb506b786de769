package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStore returns a postgres-backed store when databaseURL is set, or a nil
// store (pure in-memory operation) when it is empty.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initProfileSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initProfileSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		offerings JSONB NOT NULL DEFAULT '[]',
		about TEXT NOT NULL DEFAULT '',
		contact_method TEXT NOT NULL DEFAULT '',
		contact_value TEXT NOT NULL DEFAULT '',
		social_links TEXT NOT NULL DEFAULT '',
		rates TEXT NOT NULL DEFAULT '',
		disclaimer TEXT NOT NULL DEFAULT '',
		images JSONB NOT NULL DEFAULT '[]',
		videos JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init profile schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, p Profile) error {
	offerings, err := json.Marshal(p.Offerings)
	if err != nil {
		return fmt.Errorf("encode offerings: %w", err)
	}
	images, err := json.Marshal(sliceOrEmpty(p.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	videos, err := json.Marshal(sliceOrEmpty(p.Videos))
	if err != nil {
		return fmt.Errorf("encode videos: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (
			user_id, display_name, offerings, about, contact_method, contact_value,
			social_links, rates, disclaimer, images, videos, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			offerings = EXCLUDED.offerings,
			about = EXCLUDED.about,
			contact_method = EXCLUDED.contact_method,
			contact_value = EXCLUDED.contact_value,
			social_links = EXCLUDED.social_links,
			rates = EXCLUDED.rates,
			disclaimer = EXCLUDED.disclaimer,
			images = EXCLUDED.images,
			videos = EXCLUDED.videos,
			updated_at = now()`,
		p.UserID, p.DisplayName, offerings, p.About, string(p.Contact.Method),
		p.Contact.Value, p.SocialLinks, p.Rates, p.Disclaimer, images, videos,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, display_name, offerings, about, contact_method, contact_value,
			social_links, rates, disclaimer, images, videos
		FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var (
			p                          Profile
			method                     string
			offerings, images, videos []byte
		)
		if err := rows.Scan(&p.UserID, &p.DisplayName, &offerings, &p.About, &method,
			&p.Contact.Value, &p.SocialLinks, &p.Rates, &p.Disclaimer, &images, &videos); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Contact.Method = ContactMethod(method)
		if err := json.Unmarshal(offerings, &p.Offerings); err != nil {
			return nil, fmt.Errorf("decode offerings for %s: %w", p.UserID, err)
		}
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images for %s: %w", p.UserID, err)
		}
		if err := json.Unmarshal(videos, &p.Videos); err != nil {
			return nil, fmt.Errorf("decode videos for %s: %w", p.UserID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func sliceOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
