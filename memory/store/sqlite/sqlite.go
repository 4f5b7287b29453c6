// Package sqlite persists memory entries in an embedded SQLite
// database: content-addressed content rows, per-entry metadata, and a
// posting table that backs lexical ranking and TF-IDF corpus
// statistics. Vector search lives in a separate backend; see the
// hybrid store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/recallhq/recall-go-sdk/memory"
)

// ErrNotFound is returned when no entry matches the requested identity.
var ErrNotFound = errors.New("entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS contents (
	mem_id    TEXT PRIMARY KEY,
	content   TEXT NOT NULL,
	tokens    INTEGER NOT NULL,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	mem_id     TEXT NOT NULL REFERENCES contents(mem_id),
	kind       TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	doc_id     TEXT NOT NULL DEFAULT '',
	summary_id TEXT NOT NULL DEFAULT '',
	pinned     INTEGER NOT NULL DEFAULT 0,
	priority   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS terms (
	mem_id TEXT NOT NULL REFERENCES contents(mem_id),
	term   TEXT NOT NULL,
	freq   INTEGER NOT NULL,
	PRIMARY KEY (mem_id, term)
);

CREATE INDEX IF NOT EXISTS idx_entries_mem_id ON entries(mem_id);
CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);
CREATE INDEX IF NOT EXISTS idx_terms_term ON terms(term);
`

// timeLayout keeps a fixed-width fraction so created_at text compares
// lexicographically in ORDER BY. RFC3339Nano trims trailing zeros and
// would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed lexical and metadata side of the memory
// store.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if necessary) a store at path. Use ":memory:"
// for an ephemeral store.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// table-lock churn under concurrent rankers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists an entry. Content rows are deduplicated by MemID:
// re-inserting identical content reuses the stored tokens, embedding
// and term postings, keeping inserts idempotent at the content layer.
func (s *Store) Insert(ctx context.Context, e *memory.Entry) (*memory.Entry, error) {
	if e.Content == "" {
		return nil, errors.New("content must not be empty")
	}
	if len(e.Embedding) == 0 {
		return nil, errors.New("embedding must be set before insert")
	}

	e.MemID = memory.DeriveMemID(e.Content)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Tokens == 0 {
		e.Tokens = memory.EstimateTokens(e.Content)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM contents WHERE mem_id = ?`, e.MemID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check content row: %w", err)
	}

	if exists == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contents (mem_id, content, tokens, embedding) VALUES (?, ?, ?, ?)`,
			e.MemID, e.Content, e.Tokens, encodeVector(e.Embedding),
		); err != nil {
			return nil, fmt.Errorf("insert content: %w", err)
		}
		for term, freq := range memory.TermFrequencies(e.Content) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO terms (mem_id, term, freq) VALUES (?, ?, ?)`,
				e.MemID, term, freq,
			); err != nil {
				return nil, fmt.Errorf("insert term posting: %w", err)
			}
		}
	} else {
		// Content row wins: the stored tokens and embedding are the
		// canonical derivation for this content.
		var tokens int
		var blob []byte
		err = tx.QueryRowContext(ctx,
			`SELECT tokens, embedding FROM contents WHERE mem_id = ?`, e.MemID,
		).Scan(&tokens, &blob)
		if err != nil {
			return nil, fmt.Errorf("load content row: %w", err)
		}
		e.Tokens = tokens
		e.Embedding = decodeVector(blob)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (id, mem_id, kind, role, source, doc_id, summary_id, pinned, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MemID, string(e.Kind), e.Role, e.Source, e.DocID, e.SummaryID,
		boolToInt(e.Pinned), e.Priority, e.CreatedAt.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	s.logger.Debug("stored entry", "id", e.ID, "kind", e.Kind, "tokens", e.Tokens)
	return e, nil
}

const selectEntry = `
SELECT e.id, e.mem_id, e.kind, e.role, e.source, e.doc_id, e.summary_id,
       e.pinned, e.priority, e.created_at, c.content, c.tokens, c.embedding
FROM entries e
JOIN contents c ON c.mem_id = e.mem_id
`

// GetByID retrieves an entry by metadata identity.
func (s *Store) GetByID(ctx context.Context, id string) (*memory.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+`WHERE e.id = ?`, id)
	return scanEntry(row)
}

// GetByMemID retrieves the oldest entry carrying the given content
// identity.
func (s *Store) GetByMemID(ctx context.Context, memID string) (*memory.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		selectEntry+`WHERE e.mem_id = ? ORDER BY e.created_at ASC LIMIT 1`, memID)
	return scanEntry(row)
}

// RankByKeyword ranks entries matching any of the terms. The rank is
// the summed term frequency over the disjunction, monotonic in both
// term overlap and occurrence count. limit <= 0 returns all matches.
func (s *Store) RankByKeyword(ctx context.Context, terms []string, limit int) ([]memory.RankedEntry, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(terms)), ",")
	query := fmt.Sprintf(`
SELECT e.id, e.mem_id, e.kind, e.role, e.source, e.doc_id, e.summary_id,
       e.pinned, e.priority, e.created_at, c.content, c.tokens, c.embedding, r.rank
FROM entries e
JOIN contents c ON c.mem_id = e.mem_id
JOIN (
	SELECT mem_id, SUM(freq) AS rank
	FROM terms
	WHERE term IN (%s)
	GROUP BY mem_id
) r ON r.mem_id = e.mem_id
ORDER BY r.rank DESC, e.created_at ASC
`, placeholders)
	args := make([]any, 0, len(terms)+1)
	for _, t := range terms {
		args = append(args, t)
	}
	if limit > 0 {
		query += "LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	defer rows.Close()

	var ranked []memory.RankedEntry
	for rows.Next() {
		entry, rank, err := scanRankedRow(rows)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, memory.RankedEntry{Entry: entry, Rank: rank})
	}
	return ranked, rows.Err()
}

// RankAll streams every entry with its stored embedding, for backends
// that compute similarity in process.
func (s *Store) RankAll(ctx context.Context, limit int) ([]*memory.Entry, error) {
	query := selectEntry + `ORDER BY e.created_at ASC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}
	defer rows.Close()

	var entries []*memory.Entry
	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CorpusStats returns document frequencies for the given terms along
// with the corpus content-row count.
func (s *Store) CorpusStats(ctx context.Context, terms []string) (memory.CorpusStats, error) {
	stats := memory.CorpusStats{DocFreq: make(map[string]int, len(terms))}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM contents`).Scan(&stats.TotalDocs)
	if err != nil {
		return stats, fmt.Errorf("count corpus: %w", err)
	}
	if len(terms) == 0 {
		return stats, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(terms)), ",")
	args := make([]any, len(terms))
	for i, t := range terms {
		args[i] = t
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT term, COUNT(1) FROM terms WHERE term IN (%s) GROUP BY term`, placeholders),
		args...)
	if err != nil {
		return stats, fmt.Errorf("term stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var term string
		var df int
		if err := rows.Scan(&term, &df); err != nil {
			return stats, err
		}
		stats.DocFreq[term] = df
	}
	return stats, rows.Err()
}

// ListByKind returns entries of one kind, newest first. limit <= 0
// means all.
func (s *Store) ListByKind(ctx context.Context, kind memory.Kind, limit int) ([]*memory.Entry, error) {
	query := selectEntry + `WHERE e.kind = ? ORDER BY e.created_at DESC`
	args := []any{string(kind)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by kind: %w", err)
	}
	defer rows.Close()

	var entries []*memory.Entry
	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an entry's metadata identity. The content row and its
// postings are garbage-collected once no entry references them.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var memID string
	err = tx.QueryRowContext(ctx, `SELECT mem_id FROM entries WHERE id = ?`, id).Scan(&memID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM entries WHERE mem_id = ?`, memID).Scan(&remaining); err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE mem_id = ?`, memID); err != nil {
			return fmt.Errorf("delete postings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contents WHERE mem_id = ?`, memID); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row *sql.Row) (*memory.Entry, error) {
	e, err := scanEntryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func scanEntryRow(r rowScanner) (*memory.Entry, error) {
	var e memory.Entry
	var kind, createdAt string
	var pinned int
	var blob []byte
	err := r.Scan(&e.ID, &e.MemID, &kind, &e.Role, &e.Source, &e.DocID, &e.SummaryID,
		&pinned, &e.Priority, &createdAt, &e.Content, &e.Tokens, &blob)
	if err != nil {
		return nil, err
	}
	e.Kind = memory.Kind(kind)
	e.Pinned = pinned != 0
	e.Embedding = decodeVector(blob)
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &e, nil
}

func scanRankedRow(r rowScanner) (*memory.Entry, float64, error) {
	var e memory.Entry
	var kind, createdAt string
	var pinned int
	var blob []byte
	var rank float64
	err := r.Scan(&e.ID, &e.MemID, &kind, &e.Role, &e.Source, &e.DocID, &e.SummaryID,
		&pinned, &e.Priority, &createdAt, &e.Content, &e.Tokens, &blob, &rank)
	if err != nil {
		return nil, 0, err
	}
	e.Kind = memory.Kind(kind)
	e.Pinned = pinned != 0
	e.Embedding = decodeVector(blob)
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, 0, fmt.Errorf("parse created_at: %w", err)
	}
	return &e, rank, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeVector packs a float32 vector into little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
