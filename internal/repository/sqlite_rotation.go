package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
)

// SQLiteRotationRepo implements RotationRepo using a SQLite database.
// Multi-statement writes (CreatePlan, SavePlan) are only atomic when the
// repo is built on a transaction from db.UnitOfWork.
type SQLiteRotationRepo struct {
	db db.DBTX
}

// NewSQLiteRotationRepo creates a new SQLiteRotationRepo.
func NewSQLiteRotationRepo(conn db.DBTX) *SQLiteRotationRepo {
	return &SQLiteRotationRepo{db: conn}
}

const rotationColumns = `id, name, field_size, number_of_divisions, max_years, residual_nitrogen_supply,
	owner, status, version, archived_at, created_at, updated_at`

const entryColumns = `rotation_id, year, division, crop_id, division_size, nitrogen_balance,
	relaxed, planting_date, harvesting_date`

func (r *SQLiteRotationRepo) CreatePlan(ctx context.Context, p *domain.Plan) error {
	rot := &p.Rotation
	if rot.Version < 1 {
		rot.Version = 1
	}
	query := `INSERT INTO rotations (` + rotationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rot.ID,
		rot.Name,
		rot.FieldSize,
		rot.NumberOfDivisions,
		rot.MaxYears,
		rot.ResidualNitrogenSupply,
		rot.Owner,
		string(rot.Status),
		rot.Version,
		timeArg(rot.ArchivedAt, time.RFC3339),
		rot.CreatedAt.Format(time.RFC3339),
		rot.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("rotationName", "rotation %q already exists", rot.Name)
		}
		return fmt.Errorf("inserting rotation: %w", err)
	}

	entryQuery := `INSERT INTO plan_entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range p.Entries {
		e := &p.Entries[i]
		e.RotationID = rot.ID
		_, err := r.db.ExecContext(ctx, entryQuery,
			e.RotationID,
			e.Year,
			e.Division,
			e.CropID,
			e.DivisionSize,
			e.NitrogenBalance,
			flagArg(e.Relaxed),
			timeArg(e.PlantingDate, dateLayout),
			timeArg(e.HarvestingDate, dateLayout),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.NotFoundError{Entity: "crop", Key: e.CropID}
			}
			return fmt.Errorf("inserting plan entry year %d division %d: %w", e.Year, e.Division, err)
		}
	}
	return nil
}

func (r *SQLiteRotationRepo) GetByID(ctx context.Context, id string) (*domain.Rotation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rotationColumns+` FROM rotations WHERE id = ?`, id)
	rot, err := scanRotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "rotation", Key: id}
	}
	return rot, err
}

func (r *SQLiteRotationRepo) GetByName(ctx context.Context, name string) (*domain.Rotation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rotationColumns+` FROM rotations WHERE name = ? COLLATE NOCASE`, name)
	rot, err := scanRotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "rotation", Key: name}
	}
	return rot, err
}

func (r *SQLiteRotationRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Rotation, error) {
	query := `SELECT ` + rotationColumns + ` FROM rotations WHERE status != 'archived' ORDER BY created_at, name`
	if includeArchived {
		query = `SELECT ` + rotationColumns + ` FROM rotations ORDER BY created_at, name`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rotations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Rotation
	for rows.Next() {
		rot, err := scanRotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rotations: %w", err)
	}
	return out, nil
}

func (r *SQLiteRotationRepo) GetPlan(ctx context.Context, rotationID string) (*domain.Plan, error) {
	rot, err := r.GetByID(ctx, rotationID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM plan_entries WHERE rotation_id = ? ORDER BY year, division`, rotationID)
	if err != nil {
		return nil, fmt.Errorf("listing plan entries: %w", err)
	}
	defer rows.Close()

	plan := &domain.Plan{Rotation: *rot}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		plan.Entries = append(plan.Entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan entries: %w", err)
	}
	return plan, nil
}

func (r *SQLiteRotationRepo) SavePlan(ctx context.Context, p *domain.Plan) error {
	if err := r.UpdateRotation(ctx, &p.Rotation); err != nil {
		return err
	}
	query := `UPDATE plan_entries SET crop_id = ?, division_size = ?, nitrogen_balance = ?, relaxed = ?,
		planting_date = ?, harvesting_date = ?
		WHERE rotation_id = ? AND year = ? AND division = ?`
	for _, e := range p.Entries {
		res, err := r.db.ExecContext(ctx, query,
			e.CropID,
			e.DivisionSize,
			e.NitrogenBalance,
			flagArg(e.Relaxed),
			timeArg(e.PlantingDate, dateLayout),
			timeArg(e.HarvestingDate, dateLayout),
			p.Rotation.ID, e.Year, e.Division,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &domain.NotFoundError{Entity: "crop", Key: e.CropID}
			}
			return fmt.Errorf("updating plan entry year %d division %d: %w", e.Year, e.Division, err)
		}
		key := p.Rotation.Name + " year " + strconv.Itoa(e.Year) + " division " + strconv.Itoa(e.Division)
		if err := requireOneRow(res, "plan entry", key); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRotationRepo) UpdateRotation(ctx context.Context, rot *domain.Rotation) error {
	query := `UPDATE rotations SET name = ?, owner = ?, status = ?, archived_at = ?, updated_at = ?,
		version = version + 1
		WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, query,
		rot.Name,
		rot.Owner,
		string(rot.Status),
		timeArg(rot.ArchivedAt, time.RFC3339),
		rot.UpdatedAt.Format(time.RFC3339),
		rot.ID,
		rot.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("rotationName", "rotation %q already exists", rot.Name)
		}
		return fmt.Errorf("updating rotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, rot.ID); err != nil {
			return err
		}
		return &domain.ConflictError{Entity: "rotation", Key: rot.Name}
	}
	rot.Version++
	return nil
}

func (r *SQLiteRotationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rotations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rotation: %w", err)
	}
	return requireOneRow(res, "rotation", id)
}

func scanRotation(s scanner) (*domain.Rotation, error) {
	var rot domain.Rotation
	var status, createdAt, updatedAt string
	var archivedAt sql.NullString
	err := s.Scan(
		&rot.ID, &rot.Name, &rot.FieldSize, &rot.NumberOfDivisions, &rot.MaxYears,
		&rot.ResidualNitrogenSupply, &rot.Owner, &status, &rot.Version,
		&archivedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning rotation: %w", err)
	}
	rot.Status = domain.RotationStatus(status)
	rot.ArchivedAt = scanTime(archivedAt, time.RFC3339)
	if rot.CreatedAt, rot.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &rot, nil
}

func scanEntry(s scanner) (*domain.PlanEntry, error) {
	var e domain.PlanEntry
	var relaxed int
	var planting, harvesting sql.NullString
	err := s.Scan(
		&e.RotationID, &e.Year, &e.Division, &e.CropID, &e.DivisionSize, &e.NitrogenBalance,
		&relaxed, &planting, &harvesting,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning plan entry: %w", err)
	}
	e.Relaxed = relaxed != 0
	e.PlantingDate = scanTime(planting, dateLayout)
	e.HarvestingDate = scanTime(harvesting, dateLayout)
	return &e, nil
}
