package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

const analysisColumns = `id, text, url, label, confidence, keywords, topic, verification_url, related_error, analyzed_at`

// InsertAnalysis stores an analysis together with its related articles.
// A nil AnalyzedAt is stamped with the current time.
func (db *DB) InsertAnalysis(a *Analysis) error {
	var kwJSON *string
	if a.Keywords != nil {
		data, err := json.Marshal(a.Keywords)
		if err != nil {
			return err
		}
		s := string(data)
		kwJSON = &s
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO analyses
		(id, text, url, label, confidence, keywords, topic, verification_url, related_error, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, strftime('%Y-%m-%d %H:%M:%f', 'now')))`,
		a.ID, a.Text, a.URL, a.Label, a.Confidence, kwJSON, a.Topic, a.VerificationURL, a.RelatedError, a.AnalyzedAt,
	); err != nil {
		return fmt.Errorf("inserting analysis %s: %w", a.ID, err)
	}

	for i, r := range a.Related {
		if _, err := tx.Exec(
			`INSERT INTO analysis_related (analysis_id, position, title, url) VALUES (?, ?, ?, ?)`,
			a.ID, i, r.Title, r.URL,
		); err != nil {
			return fmt.Errorf("inserting related article %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetAnalysis returns a single analysis by ID, or nil if it does not exist.
func (db *DB) GetAnalysis(id string) (*Analysis, error) {
	row := db.conn.QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	related, err := db.getRelated(a.ID)
	if err != nil {
		return nil, err
	}
	a.Related = related
	return a, nil
}

// GetRecentAnalyses returns up to limit analyses, newest first.
func (db *DB) GetRecentAnalyses(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT `+analysisColumns+` FROM analyses
		ORDER BY analyzed_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The pool holds a single connection, so related rows are read after
	// the outer cursor is closed.
	for i := range analyses {
		related, err := db.getRelated(analyses[i].ID)
		if err != nil {
			return nil, err
		}
		analyses[i].Related = related
	}
	return analyses, nil
}

// GetStats returns label counts over the whole history plus today's count.
func (db *DB) GetStats() (*Stats, error) {
	row := db.conn.QueryRow(
		`SELECT
			COUNT(*) as total,
			SUM(CASE WHEN label = 'credible' THEN 1 ELSE 0 END) as credible,
			SUM(CASE WHEN label = 'not-credible' THEN 1 ELSE 0 END) as not_credible,
			SUM(CASE WHEN substr(analyzed_at, 1, 10) = ? THEN 1 ELSE 0 END) as today
		FROM analyses`, GetToday(),
	)

	var s Stats
	var credible, notCredible, today *int
	if err := row.Scan(&s.Total, &credible, &notCredible, &today); err != nil {
		return nil, err
	}
	if credible != nil {
		s.Credible = *credible
	}
	if notCredible != nil {
		s.NotCredible = *notCredible
	}
	if today != nil {
		s.Today = *today
	}
	return &s, nil
}

func (db *DB) getRelated(analysisID string) ([]RelatedArticle, error) {
	rows, err := db.conn.Query(
		`SELECT title, url FROM analysis_related WHERE analysis_id = ? ORDER BY position`, analysisID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var related []RelatedArticle
	for rows.Next() {
		var r RelatedArticle
		if err := rows.Scan(&r.Title, &r.URL); err != nil {
			return nil, err
		}
		related = append(related, r)
	}
	return related, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*Analysis, error) {
	var a Analysis
	var kwJSON *string
	if err := s.Scan(&a.ID, &a.Text, &a.URL, &a.Label, &a.Confidence, &kwJSON,
		&a.Topic, &a.VerificationURL, &a.RelatedError, &a.AnalyzedAt); err != nil {
		return nil, err
	}
	if kwJSON != nil {
		if err := json.Unmarshal([]byte(*kwJSON), &a.Keywords); err != nil {
			a.Keywords = nil
		}
	}
	return &a, nil
}
