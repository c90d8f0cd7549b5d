// Package memory implements the agent's persistent interaction log: a
// size-bounded FIFO of past (query, response) pairs with a lexical-overlap
// relevance lookup. Scoring is deliberately keyword-based rather than
// embedding-based so it stays cheap, deterministic, and testable.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	relevanceWindow  = 20
	previewRuneLimit = 500

	// Fixed-width fraction keeps timestamps lexically sortable, which the
	// ORDER BY timestamp clauses rely on.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Interaction struct {
	ID        int64             `json:"id"`
	Query     string            `json:"query"`
	Response  string            `json:"response"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata"`
}

type Summary struct {
	TotalEntries int    `json:"totalEntries"`
	MaxEntries   int    `json:"maxEntries"`
	OldestEntry  string `json:"oldestEntry,omitempty"`
	NewestEntry  string `json:"newestEntry,omitempty"`
}

type Store struct {
	db         *sql.DB
	maxEntries int
}

func NewStore(db *sql.DB, maxEntries int) Store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return Store{db: db, maxEntries: maxEntries}
}

// Append persists a new interaction and prunes the oldest entries once the
// store exceeds its bound. Insert and prune run in one transaction so a
// concurrent reader never observes more than maxEntries rows.
func (s Store) Append(ctx context.Context, query, response string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback()

	timestamp := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memory_entries (query, response, timestamp, metadata) VALUES (?, ?, ?, ?)`,
		query, response, timestamp, string(metadataJSON),
	); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_entries`).Scan(&count); err != nil {
		return fmt.Errorf("count interactions: %w", err)
	}

	if count > s.maxEntries {
		excess := count - s.maxEntries
		if _, err := tx.ExecContext(ctx, `
DELETE FROM memory_entries
WHERE id IN (
	SELECT id FROM memory_entries
	ORDER BY timestamp ASC, id ASC
	LIMIT ?
)`, excess); err != nil {
			return fmt.Errorf("prune interactions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

// Recent returns the n most recent interactions in chronological order
// (oldest first).
func (s Store) Recent(ctx context.Context, n int) ([]Interaction, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, query, response, timestamp, metadata
FROM memory_entries
ORDER BY timestamp DESC, id DESC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent interactions: %w", err)
	}
	defer rows.Close()

	entries, err := scanInteractions(rows)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; flip to chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// RelevantContext scores a recent window of stored queries against the
// incoming query by lowercase token overlap and renders the best matches
// as prompt-ready text. Returns "" when nothing overlaps.
func (s Store) RelevantContext(ctx context.Context, query string, maxEntries int) (string, error) {
	if maxEntries <= 0 {
		maxEntries = 3
	}

	recent, err := s.Recent(ctx, relevanceWindow)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "", nil
	}

	queryTokens := tokenize(query)

	type scored struct {
		score float64
		entry Interaction
	}
	matches := make([]scored, 0, len(recent))
	for _, entry := range recent {
		entryTokens := tokenize(entry.Query)
		overlap := intersectionSize(queryTokens, entryTokens)
		if overlap == 0 {
			continue
		}
		denominator := len(queryTokens)
		if len(entryTokens) > denominator {
			denominator = len(entryTokens)
		}
		matches = append(matches, scored{
			score: float64(overlap) / float64(denominator),
			entry: entry,
		})
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxEntries {
		matches = matches[:maxEntries]
	}

	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		parts = append(parts, fmt.Sprintf(
			"Previous Query: %s\nPrevious Finding: %s...",
			match.entry.Query,
			trimToRunes(match.entry.Response, previewRuneLimit),
		))
	}
	return strings.Join(parts, "\n\n"), nil
}

// SearchMemory returns interactions whose query or response contains the
// keyword, newest first.
func (s Store) SearchMemory(ctx context.Context, keyword string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + keyword + "%"

	rows, err := s.db.QueryContext(ctx, `
SELECT id, query, response, timestamp, metadata
FROM memory_entries
WHERE query LIKE ? OR response LIKE ?
ORDER BY timestamp DESC, id DESC
LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

func (s Store) Summary(ctx context.Context) (Summary, error) {
	out := Summary{MaxEntries: s.maxEntries}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_entries`).Scan(&out.TotalEntries); err != nil {
		return Summary{}, fmt.Errorf("count interactions: %w", err)
	}
	if out.TotalEntries == 0 {
		return out, nil
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(timestamp), MAX(timestamp) FROM memory_entries`,
	).Scan(&out.OldestEntry, &out.NewestEntry); err != nil {
		return Summary{}, fmt.Errorf("query timestamp bounds: %w", err)
	}
	return out, nil
}

func (s Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memory_entries`); err != nil {
		return fmt.Errorf("clear interactions: %w", err)
	}
	return nil
}

func scanInteractions(rows *sql.Rows) ([]Interaction, error) {
	var entries []Interaction
	for rows.Next() {
		var (
			entry        Interaction
			rawTimestamp string
			rawMetadata  string
		)
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.Response, &rawTimestamp, &rawMetadata); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, rawTimestamp); err == nil {
			entry.Timestamp = parsed
		}
		entry.Metadata = map[string]string{}
		if rawMetadata != "" {
			_ = json.Unmarshal([]byte(rawMetadata), &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return entries, nil
}

func tokenize(raw string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, field := range strings.Fields(strings.ToLower(raw)) {
		tokens[field] = struct{}{}
	}
	return tokens
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for token := range a {
		if _, ok := b[token]; ok {
			count++
		}
	}
	return count
}

func trimToRunes(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	return string([]rune(raw)[:limit])
}
