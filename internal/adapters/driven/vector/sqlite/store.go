// Package sqlite provides a local vector store backed by SQLite. It does a
// brute-force cosine scan over stored vectors, which is fine for the
// corpus sizes a single workspace holds.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/crosscheck/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a local SQLite-backed vector store.
type VectorStore struct {
	db   *sql.DB
	path string
}

// NewVectorStore creates a SQLite vector store at the specified data
// directory. If dataDir is empty, defaults to ~/.crosscheck/data/vectors.db.
func NewVectorStore(dataDir string) (*VectorStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".crosscheck", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &VectorStore{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate runs all pending migrations.
func (s *VectorStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert stores or updates a document with its vector and payload.
// Ingestion tooling uses this; the conflict engine only queries.
func (s *VectorStore) Upsert(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("sqlite: document ID is required")
	}

	payloadJSON, err := json.Marshal(doc.Raw)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, source_type, vector, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source_type = excluded.source_type,
			vector = excluded.vector,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, doc.ID, doc.Title, doc.Content, string(doc.SourceType),
		float32SliceToBytes(doc.Vector), string(payloadJSON))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Delete removes a document.
func (s *VectorStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Query returns the k documents most similar to the given vector,
// restricted to those matching the filter. Similarity is cosine.
func (s *VectorStore) Query(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, source_type, vector, payload
		FROM documents
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite: query: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer rows.Close()

	type scored struct {
		doc   domain.Document
		score float64
	}

	var candidates []scored //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if !matchesFilter(doc, filter) {
			continue
		}
		candidates = append(candidates, scored{
			doc:   doc,
			score: domain.Cosine(vector, doc.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: sqlite: iterating documents: %v", domain.ErrVectorStoreUnavailable, err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	docs := make([]domain.Document, 0, k)
	for _, c := range candidates[:k] {
		docs = append(docs, c.doc)
	}
	return docs, nil
}

// scanDocument scans a document from *sql.Rows.
func scanDocument(rows *sql.Rows) (domain.Document, error) {
	var doc domain.Document
	var sourceType string
	var vectorBlob []byte
	var payloadJSON sql.NullString

	if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &sourceType,
		&vectorBlob, &payloadJSON); err != nil {
		return domain.Document{}, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Vector = bytesToFloat32Slice(vectorBlob)

	if payloadJSON.Valid && payloadJSON.String != "" && payloadJSON.String != "null" {
		if err := json.Unmarshal([]byte(payloadJSON.String), &doc.Raw); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshaling payload: %w", err)
		}
	}

	return doc, nil
}

// matchesFilter checks a document's payload against all filter conditions.
// The canonical columns double as payload fields.
func matchesFilter(doc domain.Document, filter domain.Filter) bool {
	for _, cond := range filter.Conditions {
		value, ok := fieldValue(doc, cond.Field)
		if !ok {
			return false
		}
		found := false
		for _, want := range cond.Values {
			if value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fieldValue resolves a filter field against the document.
func fieldValue(doc domain.Document, field string) (string, bool) {
	switch field {
	case "id", "document_id":
		return doc.ID, true
	case "title":
		return doc.Title, true
	case "source_type":
		return string(doc.SourceType), true
	}
	raw, ok := doc.Raw[field]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%v", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return "", false
	}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// Path returns the database file path.
func (s *VectorStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *VectorStore) Close() error {
	return s.db.Close()
}
