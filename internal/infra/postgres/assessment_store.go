package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-quiz-service/internal/domain"
)

// AssessmentStore persists assessments in Postgres. Questions live in a JSONB column,
// graded answers in answer_records.
type AssessmentStore struct {
	pool *pgxpool.Pool
}

func NewAssessmentStore(pool *pgxpool.Pool) *AssessmentStore {
	return &AssessmentStore{pool: pool}
}

const assessmentColumns = `id, owner_id, source_ref, model, status, questions, score, total_questions, completed_at, created_at, updated_at`

func (s *AssessmentStore) Create(ctx context.Context, a *domain.Assessment) error {
	rec := a.Record()
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessments (id, owner_id, source_ref, model, status, questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.OwnerID, rec.SourceRef, rec.Model, string(rec.State), questions, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *AssessmentStore) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id=$1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if rec.State == domain.StateCompleted {
		answers, err := s.loadAnswers(ctx, []string{rec.ID})
		if err != nil {
			return nil, err
		}
		rec.Answers = answers[rec.ID]
	}
	return domain.Restore(rec)
}

func (s *AssessmentStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*domain.Assessment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+assessmentColumns+` FROM assessments
		WHERE owner_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	var completed []string
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		if rec.State == domain.StateCompleted {
			completed = append(completed, rec.ID)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	answers, err := s.loadAnswers(ctx, completed)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Assessment, 0, len(records))
	for _, rec := range records {
		rec.Answers = answers[rec.ID]
		a, err := domain.Restore(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CompleteIfPending flips the row from pending to completed with a conditional UPDATE and
// stores the answer records in the same transaction. Zero affected rows means the
// assessment is missing or another submission already won.
func (s *AssessmentStore) CompleteIfPending(ctx context.Context, id string, c domain.Completion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE assessments
		SET status=$2, score=$3, total_questions=$4, completed_at=$5, updated_at=$5
		WHERE id=$1 AND status=$6`,
		id, string(domain.StateCompleted), c.Score, c.TotalQuestions, c.CompletedAt, string(domain.StatePending))
	if err != nil {
		return fmt.Errorf("complete assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assessments WHERE id=$1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check assessment: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyCompleted
	}

	batch := &pgx.Batch{}
	for _, rec := range c.Answers {
		var selected *string
		if rec.Answered() {
			label := rec.SelectedLabel
			selected = &label
		}
		batch.Queue(`
			INSERT INTO answer_records (assessment_id, question_id, position, selected_label, is_correct)
			VALUES ($1, $2, $3, $4, $5)`,
			id, rec.QuestionID, rec.Position, selected, rec.Correct)
	}
	results := tx.SendBatch(ctx, batch)
	for range c.Answers {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert answer record: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert answer records: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *AssessmentStore) loadAnswers(ctx context.Context, ids []string) (map[string][]domain.AnswerRecord, error) {
	out := make(map[string][]domain.AnswerRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT assessment_id, question_id, position, selected_label, is_correct
		FROM answer_records
		WHERE assessment_id = ANY($1)
		ORDER BY assessment_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			assessmentID string
			rec          domain.AnswerRecord
			selected     *string
		)
		if err := rows.Scan(&assessmentID, &rec.QuestionID, &rec.Position, &selected, &rec.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if selected != nil {
			rec.SelectedLabel = *selected
		}
		out[assessmentID] = append(out[assessmentID], rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		rec         domain.Record
		state       string
		questions   []byte
		score       *int32
		total       *int32
		completedAt *time.Time
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.SourceRef, &rec.Model, &state, &questions,
		&score, &total, &completedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.Record{}, err
	}
	rec.State = domain.State(state)
	if err := json.Unmarshal(questions, &rec.Questions); err != nil {
		return domain.Record{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	if score != nil {
		v := int(*score)
		rec.Score = &v
	}
	if total != nil {
		v := int(*total)
		rec.TotalQuestions = &v
	}
	if completedAt != nil {
		at := completedAt.UTC()
		rec.CompletedAt = &at
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
