// Package memory is the SQLite-backed episodic memory store.
package memory

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/memory"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements memory.Store on SQLite. Similarity is computed in
// Go over the character's stored embeddings.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
	logger   *slog.Logger
}

var _ memory.Store = (*SQLiteStore)(nil)

// Open opens (or creates) the memory database at path. ":memory:" gives a
// private in-memory database.
func Open(path string, embedder Embedder, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("memory db path is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, embedder: embedder, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, nm memory.NewMemory) (*memory.Memory, error) {
	if nm.CharacterID == uuid.Nil {
		return nil, fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(nm.Content) == "" {
		return nil, fmt.Errorf("memory content is required")
	}
	if !nm.Category.Valid() {
		return nil, fmt.Errorf("invalid memory category %q", nm.Category)
	}
	if nm.Importance < memory.MinImportance || nm.Importance > memory.MaxImportance {
		return nil, fmt.Errorf("importance must be between %d and %d, got %d", memory.MinImportance, memory.MaxImportance, nm.Importance)
	}

	m := &memory.Memory{
		ID:          uuid.New(),
		CharacterID: nm.CharacterID,
		SessionID:   nm.SessionID,
		Content:     nm.Content,
		Category:    nm.Category,
		Importance:  nm.Importance,
		Entities:    nm.Entities,
		Location:    nm.Location,
		CreatedAt:   time.Now().UTC(),
	}
	if m.Entities == nil {
		m.Entities = []string{}
	}

	entities, err := json.Marshal(m.Entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}

	// Without an embedding the memory still shows up in Recent.
	var blob []byte
	vec, err := s.embedder.Embed(ctx, m.Content)
	if err != nil {
		s.logger.Warn("Failed to embed memory, storing without embedding", "character_id", m.CharacterID, "error", err)
	} else {
		blob = encodeVector(vec)
	}

	var session sql.NullString
	if m.SessionID != nil {
		session = sql.NullString{String: m.SessionID.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, character_id, session_id, content, category, importance, entities, location, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.CharacterID.String(), session, m.Content, string(m.Category),
		m.Importance, string(entities), m.Location, blob, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) Search(ctx context.Context, q memory.SearchQuery) ([]memory.Scored, error) {
	if strings.TrimSpace(q.Text) == "" || q.Limit <= 0 {
		return []memory.Scored{}, nil
	}
	query, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, character_id, session_id, content, category, importance, entities, location, created_at, embedding
		 FROM memories
		 WHERE character_id = ? AND importance >= ? AND embedding IS NOT NULL`,
		q.CharacterID.String(), q.MinImportance,
	)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]memory.Scored, 0)
	for rows.Next() {
		var blob []byte
		m, err := scanMemory(rows, &blob)
		if err != nil {
			return nil, err
		}
		sim := Cosine(query, decodeVector(blob))
		if sim < q.SimilarityFloor {
			continue
		}
		hits = append(hits, memory.Scored{Memory: *m, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Memory.Importance > hits[j].Memory.Importance
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, characterID uuid.UUID, limit int, sessionID *uuid.UUID) ([]memory.Memory, error) {
	if limit <= 0 {
		return []memory.Memory{}, nil
	}
	query := `SELECT id, character_id, session_id, content, category, importance, entities, location, created_at, NULL
		FROM memories WHERE character_id = ?`
	args := []any{characterID.String()}
	if sessionID != nil {
		query += ` AND session_id = ?`
		args = append(args, sessionID.String())
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]memory.Memory, 0, limit)
	for rows.Next() {
		var blob []byte
		m, err := scanMemory(rows, &blob)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return out, nil
}

func scanMemory(rows *sql.Rows, blob *[]byte) (*memory.Memory, error) {
	var (
		m           memory.Memory
		id, charID  string
		session     sql.NullString
		category    string
		entitiesRaw string
		createdAt   int64
	)
	if err := rows.Scan(&id, &charID, &session, &m.Content, &category, &m.Importance, &entitiesRaw, &m.Location, &createdAt, blob); err != nil {
		return nil, fmt.Errorf("scan memory: %w", err)
	}
	var err error
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse memory id: %w", err)
	}
	if m.CharacterID, err = uuid.Parse(charID); err != nil {
		return nil, fmt.Errorf("parse character id: %w", err)
	}
	if session.Valid {
		sid, err := uuid.Parse(session.String)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		m.SessionID = &sid
	}
	m.Category = memory.Category(category)
	if err := json.Unmarshal([]byte(entitiesRaw), &m.Entities); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	if m.Entities == nil {
		m.Entities = []string{}
	}
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	return &m, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
