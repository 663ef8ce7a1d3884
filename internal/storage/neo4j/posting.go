package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"

	pkgneo4j "github.com/honeycarbs/jobingest/pkg/neo4j"
)

// Ensure PostingRepository implements posting.Repository
var _ posting.Repository = (*PostingRepository)(nil)

// PostingRepository stores postings as (:Posting) nodes linked to
// (:Company) and (:Skill) nodes
type PostingRepository struct {
	client *pkgneo4j.Client
}

// NewPostingRepository creates a PostingRepository with a Neo4j client
func NewPostingRepository(client *pkgneo4j.Client) *PostingRepository {
	return &PostingRepository{
		client: client,
	}
}

var constraints = []string{
	`CREATE CONSTRAINT posting_identity_key IF NOT EXISTS FOR (p:Posting) REQUIRE p.identityKey IS UNIQUE`,
	`CREATE INDEX posting_source IF NOT EXISTS FOR (p:Posting) ON (p.source)`,
}

// EnsureSchema creates the identity key uniqueness constraint
func (r *PostingRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range constraints {
		_, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("neo4j: ensure schema: %w", err)
		}
	}
	return nil
}

func (r *PostingRepository) ExistsByIdentityKey(ctx context.Context, key string) (bool, error) {
	v, err := r.single(ctx, `MATCH (p:Posting {identityKey: $key}) RETURN count(p) > 0 AS v`, map[string]any{"key": key})
	if err != nil {
		return false, fmt.Errorf("neo4j: exists: %w", err)
	}
	exists, _ := v.(bool)
	return exists, nil
}

// insertQuery merges on identityKey. The node was created by this call iff
// its id equals the freshly generated one.
const insertQuery = `
	MERGE (p:Posting {identityKey: $p.identityKey})
	ON CREATE SET p.id = $p.id,
	    p.title = $p.title,
	    p.company = $p.company,
	    p.location = $p.location,
	    p.salaryMin = $p.salaryMin,
	    p.salaryMax = $p.salaryMax,
	    p.remote = $p.remote,
	    p.skills = $p.skills,
	    p.description = $p.description,
	    p.url = $p.url,
	    p.source = $p.source,
	    p.createdAt = datetime({epochMillis: $p.createdAt}),
	    p.updatedAt = datetime({epochMillis: $p.createdAt})
	WITH p, p.id = $p.id AS isNew
	FOREACH (x IN CASE WHEN isNew AND $p.company <> '' THEN [1] ELSE [] END |
		MERGE (c:Company {id: $p.companyId})
		ON CREATE SET c.name = $p.company
		MERGE (p)-[:POSTED_BY]->(c)
	)
	FOREACH (skill IN CASE WHEN isNew THEN $p.skills ELSE [] END |
		MERGE (s:Skill {name: skill})
		MERGE (p)-[:REQUIRES]->(s)
	)
	RETURN isNew
`

func (r *PostingRepository) Insert(ctx context.Context, p domain.Posting) (domain.Posting, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	if p.Skills == nil {
		p.Skills = []string{}
	}

	res, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, insertQuery, map[string]any{"p": toParams(p)})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		isNew, _ := record.Get("isNew")
		return isNew, nil
	})
	if err != nil {
		if isConstraintViolation(err) {
			return domain.Posting{}, posting.ErrDuplicate
		}
		return domain.Posting{}, fmt.Errorf("neo4j: insert: %w", err)
	}
	if isNew, _ := res.(bool); !isNew {
		return domain.Posting{}, posting.ErrDuplicate
	}

	return p, nil
}

func (r *PostingRepository) Count(ctx context.Context) (int64, error) {
	v, err := r.single(ctx, `MATCH (p:Posting) RETURN count(p) AS v`, nil)
	if err != nil {
		return 0, fmt.Errorf("neo4j: count: %w", err)
	}
	n, _ := v.(int64)
	return n, nil
}

func (r *PostingRepository) CountBySource(ctx context.Context, source domain.Source) (int64, error) {
	v, err := r.single(ctx, `MATCH (p:Posting {source: $source}) RETURN count(p) AS v`, map[string]any{"source": string(source)})
	if err != nil {
		return 0, fmt.Errorf("neo4j: count by source: %w", err)
	}
	n, _ := v.(int64)
	return n, nil
}

func (r *PostingRepository) List(ctx context.Context, f domain.PostingFilter) (domain.PostingPage, error) {
	f = posting.NormalizeFilter(f)
	where, params := buildWhere(f)

	page := domain.PostingPage{Page: f.Page, Size: f.Size, Postings: []domain.Posting{}}
	total, err := r.single(ctx, `MATCH (p:Posting)`+where+` RETURN count(p) AS v`, params)
	if err != nil {
		return domain.PostingPage{}, fmt.Errorf("neo4j: list count: %w", err)
	}
	page.TotalCount, _ = total.(int64)
	if page.TotalCount == 0 {
		return page, nil
	}

	params["skip"] = int64(f.Page * f.Size)
	params["limit"] = int64(f.Size)
	query := `MATCH (p:Posting)` + where + ` RETURN p ORDER BY ` + orderBy(f) + ` SKIP $skip LIMIT $limit`

	res, err := r.client.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return domain.PostingPage{}, fmt.Errorf("neo4j: list: %w", err)
	}

	for _, record := range res.([]*neo4j.Record) {
		v, ok := record.Get("p")
		if !ok {
			continue
		}
		node, ok := v.(neo4j.Node)
		if !ok {
			continue
		}
		p, err := fromProps(node.Props)
		if err != nil {
			return domain.PostingPage{}, fmt.Errorf("neo4j: decode posting: %w", err)
		}
		page.Postings = append(page.Postings, p)
	}

	return page, nil
}

func (r *PostingRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

func (r *PostingRepository) DistinctCompanies(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "company")
}

func (r *PostingRepository) distinct(ctx context.Context, prop string) ([]string, error) {
	query := fmt.Sprintf(`MATCH (p:Posting) WHERE p.%[1]s <> '' RETURN DISTINCT p.%[1]s AS v ORDER BY v`, prop)
	res, err := r.client.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: distinct %s: %w", prop, err)
	}

	out := []string{}
	for _, record := range res.([]*neo4j.Record) {
		if v, ok := record.Get("v"); ok {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// single runs a read query returning one record with column v
func (r *PostingRepository) single(ctx context.Context, query string, params map[string]any) (any, error) {
	return r.client.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := record.Get("v")
		return v, nil
	})
}

func toParams(p domain.Posting) map[string]any {
	return map[string]any{
		"id":          p.ID.String(),
		"identityKey": p.IdentityKey,
		"title":       p.Title,
		"company":     p.Company,
		"companyId":   slugify(p.Company),
		"location":    p.Location,
		"salaryMin":   optional(p.SalaryMin),
		"salaryMax":   optional(p.SalaryMax),
		"remote":      p.Remote,
		"skills":      p.Skills,
		"description": p.Description,
		"url":         p.URL,
		"source":      string(p.Source),
		"createdAt":   p.CreatedAt.UnixMilli(),
	}
}

func fromProps(props map[string]any) (domain.Posting, error) {
	id, err := uuid.Parse(str(props["id"]))
	if err != nil {
		return domain.Posting{}, fmt.Errorf("posting id: %w", err)
	}

	p := domain.Posting{
		ID:          id,
		IdentityKey: str(props["identityKey"]),
		Title:       str(props["title"]),
		Company:     str(props["company"]),
		Location:    str(props["location"]),
		SalaryMin:   integer(props["salaryMin"]),
		SalaryMax:   integer(props["salaryMax"]),
		Description: str(props["description"]),
		URL:         str(props["url"]),
		Source:      domain.Source(str(props["source"])),
		Skills:      []string{},
		CreatedAt:   timestamp(props["createdAt"]),
		UpdatedAt:   timestamp(props["updatedAt"]),
	}
	p.Remote, _ = props["remote"].(bool)
	if skills, ok := props["skills"].([]any); ok {
		for _, s := range skills {
			if v, ok := s.(string); ok {
				p.Skills = append(p.Skills, v)
			}
		}
	}
	return p, nil
}

var sortProps = map[string]string{
	"created_at": "createdAt",
	"title":      "title",
	"company":    "company",
	"location":   "location",
	"salary_min": "salaryMin",
	"salary_max": "salaryMax",
}

func buildWhere(f domain.PostingFilter) (string, map[string]any) {
	var conds []string
	params := map[string]any{}

	contains := func(prop, value string) {
		if value == "" {
			return
		}
		params[prop] = value
		conds = append(conds, fmt.Sprintf("toUpper(p.%[1]s) CONTAINS toUpper($%[1]s)", prop))
	}
	contains("title", f.Title)
	contains("company", f.Company)
	contains("location", f.Location)

	if f.MinSalary != nil {
		params["minSalary"] = *f.MinSalary
		conds = append(conds, "p.salaryMax >= $minSalary")
	}
	if f.MaxSalary != nil {
		params["maxSalary"] = *f.MaxSalary
		conds = append(conds, "p.salaryMin <= $maxSalary")
	}
	if f.Remote != nil {
		params["remote"] = *f.Remote
		conds = append(conds, "p.remote = $remote")
	}
	if f.Source != "" {
		params["source"] = string(f.Source)
		conds = append(conds, "p.source = $source")
	}

	if len(conds) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

func orderBy(f domain.PostingFilter) string {
	prop, ok := sortProps[f.SortBy]
	if !ok {
		prop = "createdAt"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("p.%s %s, p.id %s", prop, dir, dir)
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return neoErr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed"
	}
	return false
}

func optional(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func integer(v any) *int64 {
	n, ok := v.(int64)
	if !ok {
		return nil
	}
	return &n
}

func timestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case neo4j.LocalDateTime:
		return t.Time()
	default:
		return time.Time{}
	}
}

func slugify(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
