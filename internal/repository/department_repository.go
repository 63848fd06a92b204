package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nafa-hr/attendance-api/internal/models"
)

// DepartmentRepository handles persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID returns one department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, `SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// List returns all departments.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.SelectContext(ctx, &depts, `SELECT id, name, created_at, updated_at FROM departments ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

// NameByID resolves a department name, tolerating missing references.
func (r *DepartmentRepository) NameByID(ctx context.Context, id string) (*string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM departments WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &name, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	now := time.Now().UTC()
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	dept.CreatedAt = now
	dept.UpdatedAt = now
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (id, name, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
		dept.ID, dept.Name, now); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update renames a department.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE departments SET name = $1, updated_at = $2 WHERE id = $3`,
		dept.Name, dept.UpdatedAt, dept.ID)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return ensureAffected(res)
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return ensureAffected(res)
}
