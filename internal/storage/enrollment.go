package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/coaching-platform/internal/models"
)

// ListActiveEnrollments возвращает активные записи пользователя в программы.
func (s *Storage) ListActiveEnrollments(ctx context.Context, userUID string) ([]*models.Enrollment, error) {
	const op = "storage.ListActiveEnrollments"

	query := `SELECT id, user_uid, program_slug, status
			  FROM program_enrollments
			  WHERE user_uid = $1 AND status = $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.UserUID, &e.ProgramSlug, &e.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		enrollments = append(enrollments, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return enrollments, nil
}

// CreateEnrollment добавляет запись в программу и возвращает её ID.
// Используется модулем профиля; движок тарифов записи только читает.
func (s *Storage) CreateEnrollment(ctx context.Context, e models.Enrollment) (int, error) {
	const op = "storage.CreateEnrollment"

	query := `INSERT INTO program_enrollments (user_uid, program_slug, status)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query, e.UserUID, e.ProgramSlug, e.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
