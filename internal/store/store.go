// Package store provides SQLite persistence for subjects, statements, votes,
// bills, and discrepancies. It is the system of record for all downstream
// read paths and the only shared mutable resource in the pipeline.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// Store wraps the SQLite database. All methods are safe for concurrent use
// via an internal mutex, though the pipeline itself drives it sequentially.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a new Store at the given path, creating tables as needed.
// Pass ":memory:" for an ephemeral database (used in tests).
func Open(path string) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		chamber TEXT,
		district TEXT,
		party TEXT
	);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT,
		topics TEXT DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL,
		bill_id TEXT NOT NULL,
		choice TEXT NOT NULL,
		vote_type TEXT,
		vote_date TEXT,
		UNIQUE(subject_id, bill_id, vote_type, vote_date),
		FOREIGN KEY (subject_id) REFERENCES subjects(id),
		FOREIGN KEY (bill_id) REFERENCES bills(id)
	);

	CREATE TABLE IF NOT EXISTS statements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		source_url TEXT,
		source_name TEXT,
		article_title TEXT,
		author TEXT,
		published_date TEXT,
		source_type TEXT,
		is_direct_quote INTEGER DEFAULT 0,
		topics TEXT DEFAULT '[]',
		policy_area TEXT,
		keywords TEXT DEFAULT '[]',
		positions TEXT DEFAULT '[]',
		enriched INTEGER DEFAULT 0,
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE INDEX IF NOT EXISTS idx_statements_subject ON statements(subject_id);
	CREATE INDEX IF NOT EXISTS idx_statements_enriched ON statements(enriched);

	CREATE TABLE IF NOT EXISTS discrepancies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL,
		statement_id INTEGER NOT NULL,
		bill_id TEXT NOT NULL,
		vote_id INTEGER NOT NULL,
		discrepancy_type TEXT NOT NULL,
		confidence_score INTEGER NOT NULL,
		explanation TEXT,
		statement_summary TEXT,
		vote_summary TEXT,
		requires_review INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(statement_id, vote_id),
		FOREIGN KEY (subject_id) REFERENCES subjects(id),
		FOREIGN KEY (statement_id) REFERENCES statements(id),
		FOREIGN KEY (vote_id) REFERENCES votes(id)
	);

	CREATE INDEX IF NOT EXISTS idx_discrepancies_subject ON discrepancies(subject_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertSubject inserts the subject if new, otherwise loads its id.
func (s *Store) UpsertSubject(subject *model.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRow(`SELECT id FROM subjects WHERE name = ?`, subject.Name).Scan(&id)
	if err == nil {
		subject.ID = id
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("lookup subject: %w", err)
	}

	res, err := s.db.Exec(`INSERT INTO subjects (name, chamber, district, party) VALUES (?, ?, ?, ?)`,
		subject.Name, subject.Chamber, subject.District, subject.Party)
	if err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	subject.ID, err = res.LastInsertId()
	return err
}

// GetSubjectByName looks up a subject by exact name.
func (s *Store) GetSubjectByName(name string) (*model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subject model.Subject
	err := s.db.QueryRow(`SELECT id, name, chamber, district, party FROM subjects WHERE name = ?`, name).
		Scan(&subject.ID, &subject.Name, &subject.Chamber, &subject.District, &subject.Party)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

// SaveBill inserts or updates a bill.
func (s *Store) SaveBill(bill model.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO bills (id, number, title, summary, topics) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			summary = excluded.summary,
			topics = excluded.topics`,
		bill.ID, bill.Number, bill.Title, bill.Summary, marshalList(bill.Topics))
	if err != nil {
		return fmt.Errorf("save bill: %w", err)
	}
	return nil
}

// GetBill loads a bill by id. Returns nil when not found.
func (s *Store) GetBill(id string) (*model.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bill model.Bill
	var topics string
	err := s.db.QueryRow(`SELECT id, number, title, summary, topics FROM bills WHERE id = ?`, id).
		Scan(&bill.ID, &bill.Number, &bill.Title, &bill.Summary, &topics)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	bill.Topics = unmarshalList(topics)
	return &bill, nil
}

// SaveVote inserts a vote, ignoring exact duplicates from re-seeded data.
func (s *Store) SaveVote(vote *model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO votes (subject_id, bill_id, choice, vote_type, vote_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, bill_id, vote_type, vote_date) DO NOTHING`,
		vote.SubjectID, vote.BillID, string(vote.Choice), vote.VoteType, vote.VoteDate)
	if err != nil {
		return fmt.Errorf("save vote: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		vote.ID = id
	}
	return nil
}

// ListVotes returns all votes recorded for a subject.
func (s *Store) ListVotes(subjectID int64) ([]model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, subject_id, bill_id, choice, vote_type, vote_date
		FROM votes WHERE subject_id = ? ORDER BY id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var votes []model.Vote
	for rows.Next() {
		var v model.Vote
		var choice string
		if err := rows.Scan(&v.ID, &v.SubjectID, &v.BillID, &choice, &v.VoteType, &v.VoteDate); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.Choice = model.VoteChoice(choice)
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// SaveStatement inserts a statement unless an identical one already exists
// for the subject, so re-running extraction over the same articles is a
// no-op. Returns true when a new row was written.
func (s *Store) SaveStatement(stmt *model.Statement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing int64
	err := s.db.QueryRow(`SELECT id FROM statements WHERE subject_id = ? AND content = ?`,
		stmt.SubjectID, stmt.Content).Scan(&existing)
	if err == nil {
		stmt.ID = existing
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("lookup statement: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO statements
		(subject_id, content, source_url, source_name, article_title, author,
		 published_date, source_type, is_direct_quote, topics, policy_area,
		 keywords, positions, enriched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stmt.SubjectID, stmt.Content, stmt.SourceURL, stmt.SourceName,
		stmt.ArticleTitle, stmt.Author, stmt.PublishedDate, stmt.SourceType,
		boolToInt(stmt.IsDirectQuote), marshalList(stmt.Topics), stmt.PolicyArea,
		marshalList(stmt.Keywords), marshalList(stmt.Positions), boolToInt(stmt.Enriched))
	if err != nil {
		return false, fmt.Errorf("insert statement: %w", err)
	}

	stmt.ID, err = res.LastInsertId()
	return true, err
}

// ListStatements returns all statements for a subject.
func (s *Store) ListStatements(subjectID int64) ([]model.Statement, error) {
	return s.queryStatements(statementColumns+` WHERE subject_id = ? ORDER BY id`, subjectID)
}

// PendingEnrichment returns statements that have not yet been enriched.
// Statements whose enrichment batch failed stay pending and are retried on
// the next run.
func (s *Store) PendingEnrichment(subjectID int64) ([]model.Statement, error) {
	return s.queryStatements(statementColumns+` WHERE subject_id = ? AND enriched = 0 ORDER BY id`, subjectID)
}

const statementColumns = `
	SELECT id, subject_id, content, source_url, source_name, article_title,
	       author, published_date, source_type, is_direct_quote, topics,
	       policy_area, keywords, positions, enriched
	FROM statements`

func (s *Store) queryStatements(query string, args ...interface{}) ([]model.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var statements []model.Statement
	for rows.Next() {
		var stmt model.Statement
		var isDirect, enriched int
		var topics, keywords, positions string
		var policyArea sql.NullString
		if err := rows.Scan(&stmt.ID, &stmt.SubjectID, &stmt.Content, &stmt.SourceURL,
			&stmt.SourceName, &stmt.ArticleTitle, &stmt.Author, &stmt.PublishedDate,
			&stmt.SourceType, &isDirect, &topics, &policyArea, &keywords, &positions,
			&enriched); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		stmt.IsDirectQuote = isDirect != 0
		stmt.Enriched = enriched != 0
		stmt.Topics = unmarshalList(topics)
		stmt.Keywords = unmarshalList(keywords)
		stmt.Positions = unmarshalList(positions)
		stmt.PolicyArea = policyArea.String
		statements = append(statements, stmt)
	}
	return statements, rows.Err()
}

// ApplyMetadata attaches enrichment results to a statement. Semantic topics
// are merged with the tagger's coarse labels. Failed enrichment leaves the
// statement pending so a later run can retry it.
func (s *Store) ApplyMetadata(md model.Metadata) error {
	if !md.Success {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var topics string
	err := s.db.QueryRow(`SELECT topics FROM statements WHERE id = ?`, md.StatementID).Scan(&topics)
	if err != nil {
		return fmt.Errorf("lookup statement topics: %w", err)
	}
	merged := mergeLists(unmarshalList(topics), md.Topics)

	_, err = s.db.Exec(`
		UPDATE statements
		SET policy_area = ?, topics = ?, keywords = ?, positions = ?, enriched = 1
		WHERE id = ?`,
		md.PolicyArea, marshalList(merged), marshalList(md.Keywords),
		marshalList(md.Positions), md.StatementID)
	if err != nil {
		return fmt.Errorf("apply metadata: %w", err)
	}
	return nil
}

// HasDiscrepancy reports whether a record already exists for the pair. This
// pre-insert existence check is the idempotence mechanism: callers skip
// pairs that return true and never re-invoke the classifier for them.
func (s *Store) HasDiscrepancy(statementID, voteID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRow(`SELECT id FROM discrepancies WHERE statement_id = ? AND vote_id = ?`,
		statementID, voteID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check discrepancy: %w", err)
	}
	return true, nil
}

// SaveDiscrepancy persists one classification record for a pair.
func (s *Store) SaveDiscrepancy(d *model.Discrepancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT INTO discrepancies
		(subject_id, statement_id, bill_id, vote_id, discrepancy_type,
		 confidence_score, explanation, statement_summary, vote_summary,
		 requires_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SubjectID, d.StatementID, d.BillID, d.VoteID, string(d.Type),
		d.Confidence, d.Explanation, d.StatementSummary, d.VoteSummary,
		boolToInt(d.RequiresReview), d.CreatedAt)
	if err != nil {
		return fmt.Errorf("save discrepancy: %w", err)
	}

	d.ID, err = res.LastInsertId()
	return err
}

// ListDiscrepancies returns all discrepancies for a subject, newest first.
func (s *Store) ListDiscrepancies(subjectID int64) ([]model.Discrepancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, subject_id, statement_id, bill_id, vote_id, discrepancy_type,
		       confidence_score, explanation, statement_summary, vote_summary,
		       requires_review, created_at
		FROM discrepancies WHERE subject_id = ? ORDER BY created_at DESC, id DESC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list discrepancies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var discrepancies []model.Discrepancy
	for rows.Next() {
		var d model.Discrepancy
		var dtype string
		var review int
		if err := rows.Scan(&d.ID, &d.SubjectID, &d.StatementID, &d.BillID, &d.VoteID,
			&dtype, &d.Confidence, &d.Explanation, &d.StatementSummary,
			&d.VoteSummary, &review, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan discrepancy: %w", err)
		}
		d.Type = model.DiscrepancyType(dtype)
		d.RequiresReview = review != 0
		discrepancies = append(discrepancies, d)
	}
	return discrepancies, rows.Err()
}

// marshalList JSON-encodes a string slice for a TEXT column.
func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// unmarshalList decodes a TEXT column back to a slice; bad data reads as empty.
func unmarshalList(data string) []string {
	if data == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []string{}
	}
	return items
}

// mergeLists unions two lists preserving order, case-insensitive.
func mergeLists(a, b []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range [][]string{a, b} {
		for _, item := range list {
			key := strings.ToLower(item)
			if item == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, item)
		}
	}
	return merged
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
