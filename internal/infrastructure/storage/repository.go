package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

// Driver names accepted in configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const itemBatchSize = 200

//go:embed schema.sql
var schema string

// Repository persists politicians, collected items and scores through database/sql.
// The same statements run on Postgres and SQLite; only placeholders differ.
type Repository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var (
	_ ports.PoliticianRepository = (*Repository)(nil)
	_ ports.ItemRepository       = (*Repository)(nil)
	_ ports.ScoreRepository      = (*Repository)(nil)
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection keeps in-memory databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// NewRepository wires a sql.DB for the given driver.
func NewRepository(db *sql.DB, driver string) *Repository {
	var format sq.PlaceholderFormat = sq.Dollar
	if driver == DriverSQLite {
		format = sq.Question
	}
	return &Repository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		now: time.Now,
	}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// UpsertPolitician inserts or updates a politician record.
func (r *Repository) UpsertPolitician(ctx context.Context, p domain.Politician) error {
	if err := domain.ValidatePolitician(p); err != nil {
		return err
	}

	query, args, err := r.sb.Insert("politicians").
		Columns("id", "name", "party", "region", "position", "updated_at").
		Values(p.ID, p.Name, p.Party, p.Region, p.Position, r.now().UTC()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			party = excluded.party,
			region = excluded.region,
			position = excluded.position,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build politician upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert politician: %w", err)
	}
	return nil
}

// GetPolitician loads one politician or reports domain.ErrPoliticianNotFound.
func (r *Repository) GetPolitician(ctx context.Context, id string) (domain.Politician, error) {
	query, args, err := r.sb.Select("id", "name", "party", "region", "position").
		From("politicians").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Politician{}, fmt.Errorf("build politician select: %w", err)
	}

	var p domain.Politician
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Party, &p.Region, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Politician{}, fmt.Errorf("%w: %s", domain.ErrPoliticianNotFound, id)
	}
	if err != nil {
		return domain.Politician{}, fmt.Errorf("select politician: %w", err)
	}
	return p, nil
}

// ListPoliticians returns every politician ordered by id.
func (r *Repository) ListPoliticians(ctx context.Context) ([]domain.Politician, error) {
	query, args, err := r.sb.Select("id", "name", "party", "region", "position").
		From("politicians").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build politician list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query politicians: %w", err)
	}
	defer rows.Close()

	var out []domain.Politician
	for rows.Next() {
		var p domain.Politician
		if err := rows.Scan(&p.ID, &p.Name, &p.Party, &p.Region, &p.Position); err != nil {
			return nil, fmt.Errorf("scan politician: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SaveItems stores collected items in batches; an item id seen before is skipped.
func (r *Repository) SaveItems(ctx context.Context, items []domain.CollectedItem) error {
	for start := 0; start < len(items); start += itemBatchSize {
		end := min(start+itemBatchSize, len(items))

		insert := r.sb.Insert("collected_items").Columns(
			"id", "politician_id", "category_num", "collector_source", "title", "content",
			"source_name", "url", "data_type", "rating", "reliability", "created_at",
		)
		for _, it := range items[start:end] {
			if it.ID == "" {
				return fmt.Errorf("save items: item %q has no id", it.Title)
			}
			insert = insert.Values(
				it.ID, it.PoliticianID, it.Category, it.CollectorSource, it.Title, it.Content,
				it.SourceName, it.URL, string(it.DataType), it.Rating, it.Reliability, it.CreatedAt.UTC(),
			)
		}

		query, args, err := insert.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
	}
	return nil
}

// ItemsFor returns every stored item of one politician and category, oldest first.
func (r *Repository) ItemsFor(ctx context.Context, politicianID string, category int) ([]domain.CollectedItem, error) {
	query, args, err := r.sb.Select(
		"id", "politician_id", "category_num", "collector_source", "title", "content",
		"source_name", "url", "data_type", "rating", "reliability", "created_at",
	).
		From("collected_items").
		Where(sq.Eq{"politician_id": politicianID, "category_num": category}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []domain.CollectedItem
	for rows.Next() {
		var (
			it       domain.CollectedItem
			dataType string
		)
		if err := rows.Scan(
			&it.ID, &it.PoliticianID, &it.Category, &it.CollectorSource, &it.Title, &it.Content,
			&it.SourceName, &it.URL, &dataType, &it.Rating, &it.Reliability, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.DataType = domain.DataType(dataType)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpsertCategoryScore writes the score row for (politician, category), replacing any previous one.
func (r *Repository) UpsertCategoryScore(ctx context.Context, s domain.CategoryScore) error {
	dist, err := json.Marshal(s.RatingDistribution)
	if err != nil {
		return fmt.Errorf("marshal rating distribution: %w", err)
	}

	query, args, err := r.sb.Insert("category_scores").
		Columns("politician_id", "category_num", "category_name", "score", "raw_mean", "rating_distribution",
			"item_count", "official_count", "public_count", "avg_reliability", "evaluated_at").
		Values(s.PoliticianID, s.CategoryNum, s.CategoryName, s.Score, s.RawMean, string(dist),
			s.ItemCount, s.OfficialCount, s.PublicCount, s.AvgReliability, s.EvaluatedAt.UTC()).
		Suffix(`ON CONFLICT (politician_id, category_num) DO UPDATE SET
			category_name = excluded.category_name,
			score = excluded.score,
			raw_mean = excluded.raw_mean,
			rating_distribution = excluded.rating_distribution,
			item_count = excluded.item_count,
			official_count = excluded.official_count,
			public_count = excluded.public_count,
			avg_reliability = excluded.avg_reliability,
			evaluated_at = excluded.evaluated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build category score upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert category score: %w", err)
	}
	return nil
}

// CategoryScoresFor lists stored category scores for a politician ordered by category.
func (r *Repository) CategoryScoresFor(ctx context.Context, politicianID string) ([]domain.CategoryScore, error) {
	query, args, err := r.sb.Select("politician_id", "category_num", "category_name", "score", "raw_mean",
		"rating_distribution", "item_count", "official_count", "public_count", "avg_reliability", "evaluated_at").
		From("category_scores").
		Where(sq.Eq{"politician_id": politicianID}).
		OrderBy("category_num").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category score select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category scores: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryScore
	for rows.Next() {
		var (
			s    domain.CategoryScore
			dist string
		)
		if err := rows.Scan(&s.PoliticianID, &s.CategoryNum, &s.CategoryName, &s.Score, &s.RawMean, &dist,
			&s.ItemCount, &s.OfficialCount, &s.PublicCount, &s.AvgReliability, &s.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scan category score: %w", err)
		}
		if err := json.Unmarshal([]byte(dist), &s.RatingDistribution); err != nil {
			return nil, fmt.Errorf("decode rating distribution: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpsertFinalScore writes the politician's final score row, replacing any previous run.
func (r *Repository) UpsertFinalScore(ctx context.Context, f domain.FinalScore) error {
	enc, err := encodeJSON(f.Requested, f.Failed, f.Missing, f.PerCategory, f.RatingDistribution)
	if err != nil {
		return err
	}

	query, args, err := r.sb.Insert("final_scores").
		Columns("politician_id", "run_id", "politician_name", "overall_score", "status", "complete",
			"succeeded", "requested", "failed", "missing", "per_category_scores", "rating_distribution",
			"total_items", "official_ratio", "public_ratio", "generated_at").
		Values(f.PoliticianID, f.RunID, f.PoliticianName, f.OverallScore, string(f.Status), f.Complete,
			f.Succeeded, enc[0], enc[1], enc[2], enc[3], enc[4],
			f.TotalItems, f.OfficialRatio, f.PublicRatio, f.GeneratedAt.UTC()).
		Suffix(`ON CONFLICT (politician_id) DO UPDATE SET
			run_id = excluded.run_id,
			politician_name = excluded.politician_name,
			overall_score = excluded.overall_score,
			status = excluded.status,
			complete = excluded.complete,
			succeeded = excluded.succeeded,
			requested = excluded.requested,
			failed = excluded.failed,
			missing = excluded.missing,
			per_category_scores = excluded.per_category_scores,
			rating_distribution = excluded.rating_distribution,
			total_items = excluded.total_items,
			official_ratio = excluded.official_ratio,
			public_ratio = excluded.public_ratio,
			generated_at = excluded.generated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build final score upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert final score: %w", err)
	}
	return nil
}

// GetFinalScore loads the latest final score of a politician or reports
// domain.ErrScoreNotFound.
func (r *Repository) GetFinalScore(ctx context.Context, politicianID string) (domain.FinalScore, error) {
	query, args, err := r.sb.Select("politician_id", "run_id", "politician_name", "overall_score", "status",
		"complete", "succeeded", "requested", "failed", "missing", "per_category_scores", "rating_distribution",
		"total_items", "official_ratio", "public_ratio", "generated_at").
		From("final_scores").
		Where(sq.Eq{"politician_id": politicianID}).
		ToSql()
	if err != nil {
		return domain.FinalScore{}, fmt.Errorf("build final score select: %w", err)
	}

	var (
		f      domain.FinalScore
		status string
	)
	var requested, failed, missing, per, ratings string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&f.PoliticianID, &f.RunID, &f.PoliticianName,
		&f.OverallScore, &status, &f.Complete, &f.Succeeded, &requested, &failed, &missing, &per, &ratings,
		&f.TotalItems, &f.OfficialRatio, &f.PublicRatio, &f.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FinalScore{}, fmt.Errorf("%w: %s", domain.ErrScoreNotFound, politicianID)
	}
	if err != nil {
		return domain.FinalScore{}, fmt.Errorf("select final score: %w", err)
	}
	f.Status = domain.RunStatus(status)

	for _, field := range []struct {
		raw string
		dst any
	}{
		{requested, &f.Requested},
		{failed, &f.Failed},
		{missing, &f.Missing},
		{per, &f.PerCategory},
		{ratings, &f.RatingDistribution},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return domain.FinalScore{}, fmt.Errorf("decode final score column: %w", err)
		}
	}
	return f, nil
}

func encodeJSON(values ...any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal column: %w", err)
		}
		out[i] = string(raw)
	}
	return out, nil
}
