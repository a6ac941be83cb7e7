// Package mele implements persistence for canonical songs and their
// processed source documents using PostgreSQL.
//
// A canonical song (canonical_mele) is keyed by the normalized canonical ID
// derived from its title; each processed source file becomes a mele_sources
// row carrying the segmented document as JSONB plus its quality verdict.
// Validation issues live in a 1:N side table and are replaced wholesale
// whenever a source is reprocessed.
package mele

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/huapala/mele-archive/internal/adapter/postgres"
	"github.com/huapala/mele-archive/internal/domain"
)

// Record is a stored source document together with its row ID.
type Record struct {
	ID uuid.UUID
	domain.MeleSource
}

// Song is a canonical song row with the titles seen across its sources.
type Song struct {
	CanonicalID     string
	PrimaryTitle    string
	AlternateTitles []string
}

// ReviewFilter narrows the review queue listing. Zero values mean "no filter".
type ReviewFilter struct {
	MaxScore  *float64
	IssueType domain.IssueType
	Status    domain.ProcessingStatus
	Limit     int
}

// Repo provides mele persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new mele repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const upsertCanonicalSQL = `
INSERT INTO canonical_mele (canonical_id, primary_title)
VALUES ($1, $2)
ON CONFLICT (canonical_id) DO UPDATE SET
    alternate_titles = CASE
        WHEN canonical_mele.primary_title <> EXCLUDED.primary_title
             AND NOT (canonical_mele.alternate_titles @> ARRAY[EXCLUDED.primary_title])
        THEN array_append(canonical_mele.alternate_titles, EXCLUDED.primary_title)
        ELSE canonical_mele.alternate_titles
    END`

const upsertSourceSQL = `
INSERT INTO mele_sources (
    canonical_mele_id, source_file, title, composer, translator, source_info,
    song_type, structure_type, verse_pattern, verses_json,
    processing_status, quality_score, manual_review_required, stray_text, processed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (canonical_mele_id, source_file) DO UPDATE SET
    title                  = EXCLUDED.title,
    composer               = EXCLUDED.composer,
    translator             = EXCLUDED.translator,
    source_info            = EXCLUDED.source_info,
    song_type              = EXCLUDED.song_type,
    structure_type         = EXCLUDED.structure_type,
    verse_pattern          = EXCLUDED.verse_pattern,
    verses_json            = EXCLUDED.verses_json,
    processing_status      = EXCLUDED.processing_status,
    quality_score          = EXCLUDED.quality_score,
    manual_review_required = EXCLUDED.manual_review_required,
    stray_text             = EXCLUDED.stray_text,
    processed_at           = EXCLUDED.processed_at
RETURNING id`

const deleteIssuesSQL = `DELETE FROM validation_issues WHERE mele_source_id = $1`

const insertIssueSQL = `
INSERT INTO validation_issues (mele_source_id, issue_type, severity, description, location, sample)
VALUES ($1, $2, $3, $4, $5, $6)`

const getSongSQL = `
SELECT canonical_id, primary_title, alternate_titles
FROM canonical_mele
WHERE canonical_id = $1`

const sourceColumns = `
    s.id, s.canonical_mele_id, s.source_file, s.title, s.composer, s.translator, s.source_info,
    s.song_type, s.structure_type, s.verse_pattern, s.verses_json,
    s.processing_status, s.quality_score, s.manual_review_required, s.stray_text, s.processed_at`

const getSourcesByCanonicalIDSQL = `
SELECT` + sourceColumns + `
FROM mele_sources s
WHERE s.canonical_mele_id = $1
ORDER BY s.source_file`

const listAllSourcesSQL = `
SELECT` + sourceColumns + `
FROM mele_sources s
ORDER BY s.canonical_mele_id, s.source_file`

const issuesBySourceSQL = `
SELECT mele_source_id, issue_type, severity, description, location, sample
FROM validation_issues
WHERE mele_source_id = ANY($1::uuid[])
ORDER BY mele_source_id, created_at`

const updateValidationSQL = `
UPDATE mele_sources SET
    quality_score          = $2,
    manual_review_required = $3,
    processing_status      = $4,
    stray_text             = $5,
    processed_at           = $6
WHERE id = $1`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert stores a processed source document: the canonical song row, the
// source row keyed by (canonical_id, source_file), and its validation issues.
// A re-import of the same source file supersedes the previous row and
// replaces its issues. When the incoming title differs from the stored
// primary title it is recorded as an alternate title.
//
// Callers who need atomicity across the three statements should wrap the
// call in TxManager.RunInTx; Upsert picks up the transaction from ctx.
func (r *Repo) Upsert(ctx context.Context, src *domain.MeleSource) (uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, upsertCanonicalSQL, src.CanonicalID, src.Title); err != nil {
		return uuid.Nil, mapError(err, "canonical_mele", src.CanonicalID)
	}

	pattern, err := json.Marshal(patternInts(src.Pattern))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal verse pattern: %w", err)
	}
	verses, err := json.Marshal(src.Document)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal verses: %w", err)
	}
	stray, err := json.Marshal(strayStrings(src.StrayText))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal stray text: %w", err)
	}

	var id uuid.UUID
	err = q.QueryRow(ctx, upsertSourceSQL,
		src.CanonicalID, src.SourceFile, src.Title,
		nullString(src.Composer), nullString(src.Translator), nullString(src.SourceInfo),
		string(src.SongType), string(src.Structure), pattern, verses,
		string(src.Status), src.QualityScore, src.ManualReviewRequired, stray, src.ProcessedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, mapError(err, "mele_source", src.CanonicalID)
	}

	if err := r.replaceIssues(ctx, id, src.Issues); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// UpdateValidation refreshes the quality verdict of a stored source without
// touching the extracted document. Used by revalidation after a rule change.
func (r *Repo) UpdateValidation(ctx context.Context, id uuid.UUID, res domain.ValidationResult, status domain.ProcessingStatus, processedAt time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	stray, err := json.Marshal(strayStrings(res.StrayText))
	if err != nil {
		return fmt.Errorf("marshal stray text: %w", err)
	}

	tag, err := q.Exec(ctx, updateValidationSQL,
		id, res.Score, res.ManualReviewRequired, string(status), stray, processedAt)
	if err != nil {
		return mapError(err, "mele_source", id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mele_source %s: %w", id, domain.ErrNotFound)
	}

	return r.replaceIssues(ctx, id, res.Issues)
}

func (r *Repo) replaceIssues(ctx context.Context, sourceID uuid.UUID, issues []domain.ValidationIssue) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteIssuesSQL, sourceID); err != nil {
		return mapError(err, "validation_issue", sourceID.String())
	}

	for _, issue := range issues {
		_, err := q.Exec(ctx, insertIssueSQL,
			sourceID, string(issue.Type), string(issue.Severity),
			issue.Description, nullString(issue.Location), nullString(issue.Sample))
		if err != nil {
			return mapError(err, "validation_issue", sourceID.String())
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetSong returns the canonical song row for a canonical ID.
// Returns domain.ErrNotFound when the song is unknown.
func (r *Repo) GetSong(ctx context.Context, canonicalID string) (*Song, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var song Song
	err := q.QueryRow(ctx, getSongSQL, canonicalID).
		Scan(&song.CanonicalID, &song.PrimaryTitle, &song.AlternateTitles)
	if err != nil {
		return nil, mapError(err, "canonical_mele", canonicalID)
	}

	return &song, nil
}

// GetByCanonicalID returns all stored source documents of a song, issues
// included, ordered by source file. Returns domain.ErrNotFound when the
// canonical ID is unknown.
func (r *Repo) GetByCanonicalID(ctx context.Context, canonicalID string) ([]Record, error) {
	if _, err := r.GetSong(ctx, canonicalID); err != nil {
		return nil, err
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, getSourcesByCanonicalIDSQL, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("get sources by canonical_id: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("get sources by canonical_id: %w", err)
	}

	return r.attachIssues(ctx, records)
}

// ListAll returns every stored source document, issues included.
// Used by revalidation to re-score the whole archive.
func (r *Repo) ListAll(ctx context.Context) ([]Record, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listAllSourcesSQL)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	return r.attachIssues(ctx, records)
}

// ListReviewQueue returns sources matching the review filter, worst score
// first. With a zero filter it lists everything flagged for manual review.
func (r *Repo) ListReviewQueue(ctx context.Context, filter ReviewFilter) ([]Record, error) {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("s.id", "s.canonical_mele_id", "s.source_file", "s.title",
			"s.composer", "s.translator", "s.source_info",
			"s.song_type", "s.structure_type", "s.verse_pattern", "s.verses_json",
			"s.processing_status", "s.quality_score", "s.manual_review_required",
			"s.stray_text", "s.processed_at").
		From("mele_sources s").
		OrderBy("s.quality_score ASC", "s.canonical_mele_id ASC")

	if filter.MaxScore != nil {
		builder = builder.Where(squirrel.LtOrEq{"s.quality_score": *filter.MaxScore})
	} else {
		builder = builder.Where(squirrel.Eq{"s.manual_review_required": true})
	}
	if filter.IssueType != "" {
		builder = builder.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM validation_issues vi WHERE vi.mele_source_id = s.id AND vi.issue_type = ?)",
			string(filter.IssueType)))
	}
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"s.processing_status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review queue query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}

	return r.attachIssues(ctx, records)
}

// attachIssues loads validation issues for the given records in one batch
// query and attaches them in order.
func (r *Repo) attachIssues(ctx context.Context, records []Record) ([]Record, error) {
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]uuid.UUID, len(records))
	byID := make(map[uuid.UUID]*Record, len(records))
	for i := range records {
		ids[i] = records[i].ID
		byID[records[i].ID] = &records[i]
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, issuesBySourceSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("load validation issues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sourceID         uuid.UUID
			issueType        string
			severity         string
			description      string
			location, sample *string
		)
		if err := rows.Scan(&sourceID, &issueType, &severity, &description, &location, &sample); err != nil {
			return nil, fmt.Errorf("scan validation issue: %w", err)
		}

		rec, ok := byID[sourceID]
		if !ok {
			continue
		}
		rec.Issues = append(rec.Issues, domain.ValidationIssue{
			Type:        domain.IssueType(issueType),
			Severity:    domain.IssueSeverity(severity),
			Description: description,
			Location:    deref(location),
			Sample:      deref(sample),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load validation issues: %w", err)
	}

	return records, nil
}

// ---------------------------------------------------------------------------
// Row scanning
// ---------------------------------------------------------------------------

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec                            Record
		composer, translator, srcInfo  *string
		songType, structure, status    string
		patternJSON, versesJSON, stray []byte
	)

	err := row.Scan(
		&rec.ID, &rec.CanonicalID, &rec.SourceFile, &rec.Title,
		&composer, &translator, &srcInfo,
		&songType, &structure, &patternJSON, &versesJSON,
		&status, &rec.QualityScore, &rec.ManualReviewRequired, &stray, &rec.ProcessedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan mele_source: %w", err)
	}

	rec.Composer = deref(composer)
	rec.Translator = deref(translator)
	rec.SourceInfo = deref(srcInfo)
	rec.SongType = domain.SongType(songType)
	rec.Structure = domain.StructureTag(structure)
	rec.Status = domain.ProcessingStatus(status)

	var pattern []int
	if err := json.Unmarshal(patternJSON, &pattern); err != nil {
		return Record{}, fmt.Errorf("unmarshal verse pattern: %w", err)
	}
	rec.Pattern = domain.VerseLengthPattern(pattern)

	if err := json.Unmarshal(versesJSON, &rec.Document); err != nil {
		return Record{}, fmt.Errorf("unmarshal verses: %w", err)
	}
	if err := json.Unmarshal(stray, &rec.StrayText); err != nil {
		return Record{}, fmt.Errorf("unmarshal stray text: %w", err)
	}

	return rec, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// patternInts converts the pattern to a plain []int so an empty pattern
// marshals as [] rather than null.
func patternInts(p domain.VerseLengthPattern) []int {
	if p == nil {
		return []int{}
	}
	return []int(p)
}

func strayStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}

	// pgx.ErrNoRows -> domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, key, domain.ErrValidation)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %s: %w", entity, key, err)
}
