package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-rater/internal/terms"
)

// dialect captures what differs between the Postgres and SQLite backends.
type dialect struct {
	name string
	// rebind rewrites $N placeholders for the driver.
	rebind func(query string) string
	// stringArray returns a query argument for a list of strings.
	stringArray func(items []string) any
	// scanStringArray returns a scan destination filling items.
	scanStringArray func(items *[]string) any
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// numberedPlaceholders turns $N into ?N, which SQLite binds by position.
func numberedPlaceholders(query string) string {
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) q(query string) string {
	if s.d.rebind == nil {
		return query
	}
	return s.d.rebind(query)
}

func now() time.Time {
	return time.Now().UTC()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CreateDocument(ctx context.Context, nd NewDocument) (Document, error) {
	ts := now()
	doc := Document{
		ID:        uuid.New(),
		Filename:  nd.Filename,
		MimeType:  nd.MimeType,
		SizeBytes: int64(len(nd.Content)),
		Status:    StatusUploaded,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO documents(id, filename, mime_type, size_bytes, page_count, status, content, created_at, updated_at)
		VALUES($1,$2,$3,$4,0,$5,$6,$7,$8)`),
		doc.ID, doc.Filename, doc.MimeType, doc.SizeBytes, doc.Status, nd.Content, ts, ts)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *SQLStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, filename, mime_type, size_bytes, page_count, status, created_at, updated_at
		FROM documents WHERE id=$1`), id)
	err := row.Scan(&doc.ID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.PageCount, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *SQLStore) GetDocumentContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, s.q(`SELECT content FROM documents WHERE id=$1`), id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content for doc %s: %w", id, err)
	}
	return content, nil
}

func (s *SQLStore) ListDocuments(ctx context.Context, limit int) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT d.id, d.filename, d.mime_type, d.size_bytes, d.page_count, d.status, d.created_at, d.updated_at,
			r.overall_rating, r.confidence
		FROM documents d
		LEFT JOIN document_results r ON r.document_id = d.id
		ORDER BY d.created_at DESC
		LIMIT $1`), limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := []DocumentSummary{}
	for rows.Next() {
		var (
			d          DocumentSummary
			rating     sql.NullInt64
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.Filename, &d.MimeType, &d.SizeBytes, &d.PageCount, &d.Status,
			&d.CreatedAt, &d.UpdatedAt, &rating, &confidence); err != nil {
			return nil, err
		}
		if rating.Valid {
			r := int(rating.Int64)
			d.OverallRating = &r
		}
		if confidence.Valid {
			d.Confidence = &confidence.Float64
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	return s.updateDocument(ctx, `UPDATE documents SET status=$1, updated_at=$2 WHERE id=$3`, status, now(), id)
}

func (s *SQLStore) SetPageCount(ctx context.Context, id uuid.UUID, pages int) error {
	return s.updateDocument(ctx, `UPDATE documents SET page_count=$1, updated_at=$2 WHERE id=$3`, pages, now(), id)
}

func (s *SQLStore) updateDocument(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *SQLStore) SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt := s.q(`INSERT INTO chunks(id, document_id, ord, text, page_start, page_end, token_count) VALUES($1,$2,$3,$4,$5,$6,$7)`)
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.ID = uuid.New()
		c.DocumentID = docID
		if _, err := tx.ExecContext(ctx, stmt, c.ID, docID, c.Index, c.Text, c.PageStart, c.PageEnd, c.TokenCount); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
		out = append(out, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, ord, text, page_start, page_end, token_count
		FROM chunks WHERE document_id=$1 ORDER BY ord`), docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &c.PageStart, &c.PageEnd, &c.TokenCount); err != nil {
			return nil, err
		}
		c.DocumentID = docID
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveChunkResult(ctx context.Context, res ChunkResult) error {
	classification, err := json.Marshal(res.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	mapping, err := json.Marshal(res.Rubric)
	if err != nil {
		return fmt.Errorf("marshal rubric: %w", err)
	}
	counts, err := json.Marshal(res.Terms)
	if err != nil {
		return fmt.Errorf("marshal terms: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO chunk_results(chunk_id, document_id, classification, rubric, terms, created_at)
		VALUES($1,$2,$3,$4,$5,$6)`),
		res.ChunkID, res.DocumentID, string(classification), string(mapping), string(counts), now())
	if err != nil {
		return fmt.Errorf("insert chunk result: %w", err)
	}
	return nil
}

func (s *SQLStore) ListChunkResults(ctx context.Context, docID uuid.UUID) ([]ChunkResult, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT cr.chunk_id, c.ord, c.page_start, c.page_end, cr.classification, cr.rubric, cr.terms, cr.created_at
		FROM chunk_results cr
		JOIN chunks c ON c.id = cr.chunk_id
		WHERE cr.document_id=$1
		ORDER BY c.ord`), docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChunkResult
	for rows.Next() {
		var (
			r                              ChunkResult
			classification, mapping, count []byte
		)
		if err := rows.Scan(&r.ChunkID, &r.ChunkIndex, &r.PageStart, &r.PageEnd, &classification, &mapping, &count, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(classification, &r.Classification); err != nil {
			return nil, fmt.Errorf("decode classification for chunk %s: %w", r.ChunkID, err)
		}
		if err := json.Unmarshal(mapping, &r.Rubric); err != nil {
			return nil, fmt.Errorf("decode rubric for chunk %s: %w", r.ChunkID, err)
		}
		if err := json.Unmarshal(count, &r.Terms); err != nil {
			return nil, fmt.Errorf("decode terms for chunk %s: %w", r.ChunkID, err)
		}
		r.DocumentID = docID
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveDocumentResult(ctx context.Context, res DocumentResult) error {
	counts, err := json.Marshal(res.Terms)
	if err != nil {
		return fmt.Errorf("marshal terms: %w", err)
	}
	if res.Evidence == nil {
		res.Evidence = []Excerpt{}
	}
	evidence, err := json.Marshal(res.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO document_results(document_id, overall_rating, avg_violence, avg_sexual_content, avg_profanity,
			avg_hate, avg_self_harm, confidence, summary, terms, evidence, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`),
		res.DocumentID, res.OverallRating, res.AvgViolence, res.AvgSexualContent, res.AvgProfanity,
		res.AvgHate, res.AvgSelfHarm, res.Confidence, res.Summary, string(counts), string(evidence), now())
	if err != nil {
		return fmt.Errorf("insert document result: %w", err)
	}
	return nil
}

func (s *SQLStore) GetDocumentResult(ctx context.Context, docID uuid.UUID) (DocumentResult, error) {
	var (
		r               DocumentResult
		counts, excerpt []byte
	)
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT overall_rating, avg_violence, avg_sexual_content, avg_profanity, avg_hate, avg_self_harm,
			confidence, summary, terms, evidence, created_at
		FROM document_results WHERE document_id=$1`), docID)
	err := row.Scan(&r.OverallRating, &r.AvgViolence, &r.AvgSexualContent, &r.AvgProfanity, &r.AvgHate, &r.AvgSelfHarm,
		&r.Confidence, &r.Summary, &counts, &excerpt, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentResult{}, ErrResultNotFound
	}
	if err != nil {
		return DocumentResult{}, fmt.Errorf("failed to get result for doc %s: %w", docID, err)
	}
	if err := json.Unmarshal(counts, &r.Terms); err != nil {
		return DocumentResult{}, fmt.Errorf("decode terms: %w", err)
	}
	if err := json.Unmarshal(excerpt, &r.Evidence); err != nil {
		return DocumentResult{}, fmt.Errorf("decode evidence: %w", err)
	}
	r.DocumentID = docID
	return r, nil
}

func (s *SQLStore) UpsertJob(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO jobs(id, document_id, stage, status, progress, started_at, completed_at, error, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (document_id, stage) DO UPDATE SET
			status=excluded.status,
			progress=excluded.progress,
			started_at=COALESCE(jobs.started_at, excluded.started_at),
			completed_at=excluded.completed_at,
			error=excluded.error,
			updated_at=excluded.updated_at`),
		job.ID, job.DocumentID, job.Stage, job.Status, job.Progress,
		nullTime(job.StartedAt), nullTime(job.CompletedAt), job.Error, now())
	if err != nil {
		return fmt.Errorf("upsert job %s/%s: %w", job.DocumentID, job.Stage, err)
	}
	return nil
}

func (s *SQLStore) FailRunningJobs(ctx context.Context, docID uuid.UUID, msg string) error {
	ts := now()
	_, err := s.db.ExecContext(ctx, s.q(`
		UPDATE jobs SET status=$1, error=$2, completed_at=$3, updated_at=$4
		WHERE document_id=$5 AND status=$6`),
		JobFailed, msg, ts, ts, docID, JobRunning)
	return err
}

func (s *SQLStore) ListJobs(ctx context.Context, docID uuid.UUID) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, stage, status, progress, started_at, completed_at, error, updated_at
		FROM jobs WHERE document_id=$1
		ORDER BY CASE stage WHEN 'TEXT_EXTRACTION' THEN 0 WHEN 'CLASSIFICATION' THEN 1 ELSE 2 END`), docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		var (
			j                  Job
			started, completed sql.NullTime
		)
		if err := rows.Scan(&j.ID, &j.Stage, &j.Status, &j.Progress, &started, &completed, &j.Error, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if started.Valid {
			j.StartedAt = &started.Time
		}
		if completed.Valid {
			j.CompletedAt = &completed.Time
		}
		j.DocumentID = docID
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLStore) ActiveTermLists(ctx context.Context) (terms.Lists, error) {
	all, err := s.listTermLists(ctx, true)
	if err != nil {
		return nil, err
	}
	lists := terms.Lists{}
	for _, l := range all {
		lists[l.Category] = append(lists[l.Category], l.Terms...)
	}
	return lists, nil
}

func (s *SQLStore) CreateTermList(ctx context.Context, list TermList) (TermList, error) {
	list.ID = uuid.New()
	list.CreatedAt = now()
	if list.Terms == nil {
		list.Terms = []string{}
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO term_lists(id, name, category, terms, active, description, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)`),
		list.ID, list.Name, list.Category, s.d.stringArray(list.Terms), list.Active, list.Description, list.CreatedAt)
	if err != nil {
		return TermList{}, fmt.Errorf("insert term list: %w", err)
	}
	return list, nil
}

func (s *SQLStore) ListTermLists(ctx context.Context) ([]TermList, error) {
	return s.listTermLists(ctx, false)
}

func (s *SQLStore) UpdateTermList(ctx context.Context, id uuid.UUID, upd TermListUpdate) (TermList, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TermList{}, err
	}
	defer tx.Rollback()

	var l TermList
	err = tx.QueryRowContext(ctx, s.q(`
		SELECT id, name, category, terms, active, description, created_at FROM term_lists WHERE id=$1`), id).
		Scan(&l.ID, &l.Name, &l.Category, s.d.scanStringArray(&l.Terms), &l.Active, &l.Description, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TermList{}, ErrTermListNotFound
	}
	if err != nil {
		return TermList{}, fmt.Errorf("get term list %s: %w", id, err)
	}

	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Terms != nil {
		l.Terms = upd.Terms
	}
	if upd.Active != nil {
		l.Active = *upd.Active
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	if _, err := tx.ExecContext(ctx, s.q(`
		UPDATE term_lists SET name=$1, terms=$2, active=$3, description=$4 WHERE id=$5`),
		l.Name, s.d.stringArray(l.Terms), l.Active, l.Description, id); err != nil {
		return TermList{}, fmt.Errorf("update term list %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return TermList{}, err
	}
	return l, nil
}

func (s *SQLStore) DeleteTermList(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM term_lists WHERE id=$1`), id)
	if err != nil {
		return fmt.Errorf("delete term list %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTermListNotFound
	}
	return nil
}

func (s *SQLStore) listTermLists(ctx context.Context, activeOnly bool) ([]TermList, error) {
	query := `SELECT id, name, category, terms, active, description, created_at FROM term_lists`
	var args []any
	if activeOnly {
		query += ` WHERE active=$1`
		args = append(args, true)
	}
	query += ` ORDER BY name, created_at`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TermList
	for rows.Next() {
		var l TermList
		if err := rows.Scan(&l.ID, &l.Name, &l.Category, s.d.scanStringArray(&l.Terms), &l.Active, &l.Description, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// jsonStrings stores a string list as a JSON text column.
type jsonStrings struct {
	items *[]string
}

func (j jsonStrings) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j.items = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("jsonStrings: unsupported source %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*j.items = nil
		return nil
	}
	return json.Unmarshal(raw, j.items)
}

func jsonStringArray(items []string) any {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
