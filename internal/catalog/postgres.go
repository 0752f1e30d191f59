package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS parts (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	category      VARCHAR(50) NOT NULL,
	price         INTEGER NOT NULL,
	link          VARCHAR(512) UNIQUE,
	img_src       VARCHAR(512),
	manufacturer  TEXT,
	warranty_info TEXT,
	review_count  INTEGER,
	star_rating   REAL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS parts_category_idx ON parts (category)`,
	`CREATE TABLE IF NOT EXISTS part_spec (
	id      BIGSERIAL PRIMARY KEY,
	part_id BIGINT NOT NULL UNIQUE REFERENCES parts(id) ON DELETE CASCADE,
	specs   JSONB
)`,
	`CREATE TABLE IF NOT EXISTS community_reviews (
	id           BIGSERIAL PRIMARY KEY,
	part_id      BIGINT REFERENCES parts(id) ON DELETE CASCADE,
	source       TEXT NOT NULL,
	review_url   VARCHAR(512) NOT NULL UNIQUE,
	raw_text     TEXT,
	ai_summary   TEXT,
	review_score REAL
)`,
}

const partColumns = `p.id, p.name, p.category, p.price, COALESCE(p.link, ''), COALESCE(p.img_src, ''),
	COALESCE(p.manufacturer, ''), COALESCE(p.warranty_info, ''), COALESCE(p.review_count, 0),
	COALESCE(p.star_rating, 0), COALESCE(s.specs::text, '')`

// PostgresStore is the catalog backed by Postgres through the pgx
// database/sql driver.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, pings and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Query(ctx context.Context, q Query) (model.Page, error) {
	if err := q.validate(); err != nil {
		return model.Page{}, err
	}

	var b sqlBuilder
	where, err := b.where(q.Predicate)
	if err != nil {
		return model.Page{}, err
	}
	from := " FROM parts p LEFT JOIN part_spec s ON s.part_id = p.id WHERE " + where

	page := model.Page{Limit: q.Limit, Offset: q.Offset}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, b.args...).Scan(&page.Total); err != nil {
		return model.Page{}, fmt.Errorf("count parts: %w", err)
	}

	stmt := "SELECT " + partColumns + from + " ORDER BY " + orderBy(q.Sort)
	if q.Limit > 0 {
		stmt += " LIMIT " + b.arg(q.Limit)
	}
	if q.Offset > 0 {
		stmt += " OFFSET " + b.arg(q.Offset)
	}

	parts, err := s.queryParts(ctx, stmt, b.args...)
	if err != nil {
		return model.Page{}, err
	}
	page.Parts = parts
	return page, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []int64) ([]model.Part, error) {
	if len(ids) == 0 {
		return []model.Part{}, nil
	}
	var b sqlBuilder
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = b.arg(id)
	}
	stmt := "SELECT " + partColumns +
		" FROM parts p LEFT JOIN part_spec s ON s.part_id = p.id WHERE p.id IN (" + strings.Join(placeholders, ", ") + ")"
	parts, err := s.queryParts(ctx, stmt, b.args...)
	if err != nil {
		return nil, err
	}
	return orderByIDs(parts, ids), nil
}

func (s *PostgresStore) queryParts(ctx context.Context, stmt string, args ...any) ([]model.Part, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query parts: %w", err)
	}
	defer rows.Close()

	parts := []model.Part{}
	for rows.Next() {
		var (
			p     model.Part
			label string
		)
		if err := rows.Scan(&p.ID, &p.Name, &label, &p.Price, &p.Link, &p.ImgSrc,
			&p.Manufacturer, &p.WarrantyInfo, &p.ReviewCount, &p.StarRating, &p.Specs); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		c, ok := model.ParseCategory(label)
		if !ok {
			log.Warn().Int64("part_id", p.ID).Str("category", label).Msg("catalog: skipping part with unknown category")
			continue
		}
		p.Category = c
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// UpsertPart inserts or updates a part keyed by link together with its spec
// row and returns the part ID.
func (s *PostgresStore) UpsertPart(ctx context.Context, p model.Part) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO parts (name, category, price, link, img_src, manufacturer, warranty_info, review_count, star_rating)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
		ON CONFLICT (link) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			img_src = EXCLUDED.img_src,
			manufacturer = EXCLUDED.manufacturer,
			warranty_info = EXCLUDED.warranty_info,
			review_count = EXCLUDED.review_count,
			star_rating = EXCLUDED.star_rating,
			updated_at = now()
		RETURNING id`,
		p.Name, p.Category.Label(), p.Price, p.Link, p.ImgSrc, p.Manufacturer, p.WarrantyInfo, p.ReviewCount, p.StarRating,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert part %q: %w", p.Link, err)
	}

	if p.Specs != "" {
		if !json.Valid([]byte(p.Specs)) {
			return 0, fmt.Errorf("upsert part %q: specs is not valid JSON", p.Link)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO part_spec (part_id, specs) VALUES ($1, $2::jsonb)
			ON CONFLICT (part_id) DO UPDATE SET specs = EXCLUDED.specs`, id, p.Specs)
		if err != nil {
			return 0, fmt.Errorf("upsert spec for part %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return id, nil
}

// PendingReviews returns up to limit reviews with an ID above afterID that
// have no AI summary yet, in ID order.
func (s *PostgresStore) PendingReviews(ctx context.Context, afterID int64, limit int) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(part_id, 0), source, review_url, COALESCE(raw_text, ''), COALESCE(review_score, 0)
		FROM community_reviews
		WHERE ai_summary IS NULL AND id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.PartID, &r.Source, &r.ReviewURL, &r.RawText, &r.ReviewScore); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// SetReviewSummary stores the AI summary of one review.
func (s *PostgresStore) SetReviewSummary(ctx context.Context, reviewID int64, summary string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE community_reviews SET ai_summary = $1 WHERE id = $2`, summary, reviewID)
	if err != nil {
		return fmt.Errorf("update review %d: %w", reviewID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update review %d: %w", reviewID, sql.ErrNoRows)
	}
	return nil
}
