// Package sqlite keeps an audit trail of every classification run.
package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ticketbot/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS classification_history (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id     TEXT NOT NULL,
		category      TEXT NOT NULL,
		request_type  TEXT NOT NULL,
		confidence    REAL NOT NULL,
		reasoning     TEXT DEFAULT '',
		llm_provider  TEXT DEFAULT '',
		llm_model     TEXT DEFAULT '',
		fallback      INTEGER NOT NULL DEFAULT 0,
		classified_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ch_ticket ON classification_history(ticket_id);
	CREATE INDEX IF NOT EXISTS idx_ch_date ON classification_history(classified_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func InsertClassifications(db *sql.DB, records []domain.ClassificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO classification_history
		 (ticket_id, category, request_type, confidence, reasoning, llm_provider, llm_model, fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		fallback := 0
		if r.Fallback {
			fallback = 1
		}
		if _, err := stmt.Exec(
			r.TicketID, r.Category, r.RequestType, r.Confidence,
			r.Reasoning, r.LLMProvider, r.LLMModel, fallback,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func GetClassificationsByTicket(db *sql.DB, ticketID string) ([]domain.ClassificationRecord, error) {
	rows, err := db.Query(
		`SELECT id, ticket_id, category, request_type, confidence,
		        reasoning, llm_provider, llm_model, fallback, classified_at
		 FROM classification_history
		 WHERE ticket_id = ?
		 ORDER BY classified_at DESC, id DESC`,
		ticketID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClassificationRecord
	for rows.Next() {
		var r domain.ClassificationRecord
		var fallback int
		if err := rows.Scan(
			&r.ID, &r.TicketID, &r.Category, &r.RequestType, &r.Confidence,
			&r.Reasoning, &r.LLMProvider, &r.LLMModel, &fallback, &r.ClassifiedAt,
		); err != nil {
			return nil, err
		}
		r.Fallback = fallback != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func GetStats(db *sql.DB, since time.Time) (domain.ClassificationStats, error) {
	var s domain.ClassificationStats
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(fallback), 0),
		        COALESCE(AVG(confidence), 0),
		        COALESCE(SUM(CASE WHEN confidence < 0.50 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.50 AND confidence < 0.70 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.70 AND confidence < 0.90 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.90 THEN 1 ELSE 0 END), 0)
		 FROM classification_history WHERE classified_at >= ?`,
		since,
	).Scan(&s.Total, &s.Fallbacks, &s.AvgConfidence,
		&s.BucketBelow50, &s.Bucket50to70, &s.Bucket70to90, &s.Bucket90Plus)
	return s, err
}
