package store

import (
	"fmt"
	"time"
)

// Survey event kinds.
const (
	SurveyImpression = "impression"
	SurveyResponse   = "response"
	SurveyDismissal  = "dismissal"
)

// SurveyEvent is one recorded microsurvey interaction.
type SurveyEvent struct {
	ID       int64
	SurveyID string
	Kind     string
	Option   string
	Created  time.Time
}

// RecordImpression records that a survey was shown.
func (s *Store) RecordImpression(surveyID string) error {
	return s.recordSurvey(surveyID, SurveyImpression, "")
}

// RecordResponse records the option the user submitted.
func (s *Store) RecordResponse(surveyID, option string) error {
	if option == "" {
		return fmt.Errorf("record response for %q: empty option", surveyID)
	}
	return s.recordSurvey(surveyID, SurveyResponse, option)
}

// RecordDismissal records that the user closed the survey.
func (s *Store) RecordDismissal(surveyID string) error {
	return s.recordSurvey(surveyID, SurveyDismissal, "")
}

func (s *Store) recordSurvey(surveyID, kind, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO survey_events (survey_id, kind, option, created_at) VALUES (?, ?, ?, ?)",
		surveyID, kind, option, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record %s for %q: %w", kind, surveyID, err)
	}
	return nil
}

// SurveyEvents returns the events for surveyID, oldest first.
func (s *Store) SurveyEvents(surveyID string) ([]SurveyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, survey_id, kind, COALESCE(option, ''), created_at
		FROM survey_events
		WHERE survey_id = ?
		ORDER BY id
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SurveyEvent
	for rows.Next() {
		var ev SurveyEvent
		if err := rows.Scan(&ev.ID, &ev.SurveyID, &ev.Kind, &ev.Option, &ev.Created); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
