package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fallow/internal/db"
	"github.com/alexanderramin/fallow/internal/domain"
)

// SQLiteCropRepo implements CropRepo using a SQLite database.
type SQLiteCropRepo struct {
	db db.DBTX
}

// NewSQLiteCropRepo creates a new SQLiteCropRepo.
func NewSQLiteCropRepo(conn db.DBTX) *SQLiteCropRepo {
	return &SQLiteCropRepo{db: conn}
}

const cropColumns = `id, name, nitrogen_supply, nitrogen_demand, no_repeat_years, pests, diseases, created_at, updated_at`

func (r *SQLiteCropRepo) Create(ctx context.Context, c *domain.Crop) error {
	pests, err := encodeList(c.Pests)
	if err != nil {
		return err
	}
	diseases, err := encodeList(c.Diseases)
	if err != nil {
		return err
	}
	query := `INSERT INTO crops (` + cropColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.NitrogenSupply,
		c.NitrogenDemand,
		c.NoRepeatYears,
		pests,
		diseases,
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("crop.name", "crop %q already exists", c.Name)
		}
		return fmt.Errorf("inserting crop: %w", err)
	}
	return nil
}

func (r *SQLiteCropRepo) GetByID(ctx context.Context, id string) (*domain.Crop, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE id = ?`, id)
	c, err := scanCrop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "crop", Key: id}
	}
	return c, err
}

func (r *SQLiteCropRepo) GetByName(ctx context.Context, name string) (*domain.Crop, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE name = ? COLLATE NOCASE`, name)
	c, err := scanCrop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "crop", Key: name}
	}
	return c, err
}

func (r *SQLiteCropRepo) List(ctx context.Context) ([]*domain.Crop, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cropColumns+` FROM crops ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("listing crops: %w", err)
	}
	defer rows.Close()

	var crops []*domain.Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crops: %w", err)
	}
	return crops, nil
}

func (r *SQLiteCropRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Crop, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing crops by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Crop, len(ids))
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crops: %w", err)
	}

	out := make([]*domain.Crop, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, &domain.NotFoundError{Entity: "crop", Key: id}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteCropRepo) Update(ctx context.Context, c *domain.Crop) error {
	pests, err := encodeList(c.Pests)
	if err != nil {
		return err
	}
	diseases, err := encodeList(c.Diseases)
	if err != nil {
		return err
	}
	query := `UPDATE crops SET name = ?, nitrogen_supply = ?, nitrogen_demand = ?, no_repeat_years = ?,
		pests = ?, diseases = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.NitrogenSupply, c.NitrogenDemand, c.NoRepeatYears,
		pests, diseases, c.UpdatedAt.Format(time.RFC3339), c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("crop.name", "crop %q already exists", c.Name)
		}
		return fmt.Errorf("updating crop: %w", err)
	}
	return requireOneRow(res, "crop", c.ID)
}

func (r *SQLiteCropRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crops WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError("crop", "crop %s is used by a rotation plan", id)
		}
		return fmt.Errorf("deleting crop: %w", err)
	}
	return requireOneRow(res, "crop", id)
}

func (r *SQLiteCropRepo) CountUsage(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_entries WHERE crop_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting crop usage: %w", err)
	}
	return n, nil
}

func scanCrop(s scanner) (*domain.Crop, error) {
	var c domain.Crop
	var pests, diseases, createdAt, updatedAt string
	err := s.Scan(
		&c.ID, &c.Name, &c.NitrogenSupply, &c.NitrogenDemand, &c.NoRepeatYears,
		&pests, &diseases, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning crop: %w", err)
	}
	if c.Pests, err = decodeList(pests); err != nil {
		return nil, fmt.Errorf("crop %s pests: %w", c.ID, err)
	}
	if c.Diseases, err = decodeList(diseases); err != nil {
		return nil, fmt.Errorf("crop %s diseases: %w", c.ID, err)
	}
	if c.CreatedAt, c.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func requireOneRow(res sql.Result, entity, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: entity, Key: key}
	}
	return nil
}
