// Package postgres stores postings in a relational table keyed by identity_key.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
)

var _ posting.Repository = (*PostingRepository)(nil)

// DB is the subset of pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostingRepository implements posting.Repository on Postgres
type PostingRepository struct {
	db DB
}

// NewPostingRepository creates a repository over a pool
func NewPostingRepository(db DB) *PostingRepository {
	return &PostingRepository{db: db}
}

const postingColumns = `id, identity_key, title, company, location, salary_min, salary_max,
	is_remote, skills, description, posting_url, source, created_at, updated_at`

func (r *PostingRepository) ExistsByIdentityKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM postings WHERE identity_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return exists, nil
}

// Insert relies on ON CONFLICT DO NOTHING: no returned row means the key was taken
func (r *PostingRepository) Insert(ctx context.Context, p domain.Posting) (domain.Posting, error) {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO postings (id, identity_key, title, company, location, salary_min, salary_max,
			is_remote, skills, description, posting_url, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			COALESCE($13, now()), now())
		ON CONFLICT (identity_key) DO NOTHING
		RETURNING created_at, updated_at`,
		p.ID, p.IdentityKey, p.Title, p.Company, p.Location, p.SalaryMin, p.SalaryMax,
		p.Remote, skills, p.Description, p.URL, string(p.Source), nullTime(p),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Posting{}, posting.ErrDuplicate
	}
	if err != nil {
		return domain.Posting{}, fmt.Errorf("postgres: insert: %w", err)
	}

	p.Skills = skills
	return p, nil
}

func (r *PostingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM postings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (r *PostingRepository) CountBySource(ctx context.Context, source domain.Source) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM postings WHERE source = $1`, string(source)).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count by source: %w", err)
	}
	return n, nil
}

func (r *PostingRepository) List(ctx context.Context, f domain.PostingFilter) (domain.PostingPage, error) {
	f = posting.NormalizeFilter(f)
	where, args := buildWhere(f)

	page := domain.PostingPage{Page: f.Page, Size: f.Size, Postings: []domain.Posting{}}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM postings`+where, args...).Scan(&page.TotalCount); err != nil {
		return domain.PostingPage{}, fmt.Errorf("postgres: list count: %w", err)
	}
	if page.TotalCount == 0 {
		return page, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM postings%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		postingColumns, where, orderBy(f), len(args)+1, len(args)+2)
	args = append(args, f.Size, f.Page*f.Size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return domain.PostingPage{}, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p      domain.Posting
			source string
		)
		if err := rows.Scan(
			&p.ID, &p.IdentityKey, &p.Title, &p.Company, &p.Location, &p.SalaryMin, &p.SalaryMax,
			&p.Remote, &p.Skills, &p.Description, &p.URL, &source, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return domain.PostingPage{}, fmt.Errorf("postgres: scan: %w", err)
		}
		p.Source = domain.Source(source)
		page.Postings = append(page.Postings, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PostingPage{}, fmt.Errorf("postgres: rows: %w", err)
	}

	return page, nil
}

func (r *PostingRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

func (r *PostingRepository) DistinctCompanies(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "company")
}

// distinct only ever receives a column name from this file
func (r *PostingRepository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM postings WHERE %[1]s <> '' ORDER BY %[1]s`, column))
	if err != nil {
		return nil, fmt.Errorf("postgres: distinct %s: %w", column, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("postgres: scan distinct %s: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// buildWhere renders the filter as a WHERE clause with positional args
func buildWhere(f domain.PostingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Title != "" {
		add("title ILIKE '%%' || $%d || '%%'", f.Title)
	}
	if f.Company != "" {
		add("company ILIKE '%%' || $%d || '%%'", f.Company)
	}
	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", f.Location)
	}
	if f.MinSalary != nil {
		add("salary_max >= $%d", *f.MinSalary)
	}
	if f.MaxSalary != nil {
		add("salary_min <= $%d", *f.MaxSalary)
	}
	if f.Remote != nil {
		add("is_remote = $%d", *f.Remote)
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(f domain.PostingFilter) string {
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, id %s", f.SortBy, dir, dir)
}

func nullTime(p domain.Posting) any {
	if p.CreatedAt.IsZero() {
		return nil
	}
	return p.CreatedAt
}
