package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docchat/internal/errs"
)

// Postgres is the pgvector-backed store. Cosine distance (<=>) drives the
// similarity ordering; similarity = 1 - distance.
type Postgres struct {
	db         *bun.DB
	dimensions int
}

// NewPostgres connects, optionally attaches the bundebug query hook, and
// ensures the schema exists.
func NewPostgres(ctx context.Context, dsn, password string, dimensions int, debug bool) (*Postgres, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	p := &Postgres{db: db, dimensions: dimensions}
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create extension: %v", errs.ErrStore, err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		filename TEXT NOT NULL,
		chunk_id INTEGER NOT NULL
	)`, p.dimensions)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table: %v", errs.ErrStore, err)
	}
	return nil
}

func (p *Postgres) InsertMany(ctx context.Context, records []Record) (int, error) {
	stored := 0
	var failures []error
	for _, r := range records {
		if len(r.Embedding) != p.dimensions {
			return stored, fmt.Errorf("%w: embedding dimension %d, store configured for %d",
				errs.ErrConfig, len(r.Embedding), p.dimensions)
		}
		_, err := p.db.NewRaw(
			"INSERT INTO documents (text, embedding, filename, chunk_id) VALUES (?, ?::vector, ?, ?)",
			r.Text, vectorLiteral(r.Embedding), r.Filename, r.ChunkID,
		).Exec(ctx)
		if err != nil {
			failures = append(failures, fmt.Errorf("chunk %d: %w", r.ChunkID, err))
			continue
		}
		stored++
	}
	if len(failures) > 0 {
		return stored, fmt.Errorf("%w: %v", errs.ErrStore, errors.Join(failures...))
	}
	return stored, nil
}

type searchRow struct {
	Text       string  `bun:"text"`
	Filename   string  `bun:"filename"`
	ChunkID    int     `bun:"chunk_id"`
	Similarity float32 `bun:"similarity"`
}

func (p *Postgres) SimilaritySearch(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	vec := vectorLiteral(query)
	var rows []searchRow
	err := p.db.NewRaw(
		`SELECT text, filename, chunk_id, 1 - (embedding <=> ?::vector) AS similarity
		 FROM documents ORDER BY embedding <=> ?::vector, id LIMIT ?`,
		vec, vec, k,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", errs.ErrStore, err)
	}
	out := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, SearchResult{
			Record: Record{
				Text:     row.Text,
				Filename: row.Filename,
				ChunkID:  row.ChunkID,
			},
			Similarity: row.Similarity,
		})
	}
	return out, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// vectorLiteral renders the pgvector input format: [0.1,0.2,...].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
