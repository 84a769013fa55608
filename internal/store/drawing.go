package store

import (
	"database/sql"
	"errors"
	"time"
)

// Drawing is a saved canvas raster.
type Drawing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// DrawingRepository provides CRUD operations for drawings.
type DrawingRepository struct {
	db *sql.DB
}

// Drawings returns the drawing repository for this store.
func (s *Store) Drawings() *DrawingRepository {
	return &DrawingRepository{db: s.db}
}

const drawingColumns = `id, name, path, format, width, height, created_at`

// Create inserts a new drawing record.
func (r *DrawingRepository) Create(d *Drawing) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO drawings (`+drawingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Path, d.Format, d.Width, d.Height, d.CreatedAt,
	)
	return err
}

// GetByID retrieves a drawing by its ID.
func (r *DrawingRepository) GetByID(id string) (*Drawing, error) {
	d := &Drawing{}
	err := r.db.QueryRow(
		`SELECT `+drawingColumns+` FROM drawings WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.Path, &d.Format, &d.Width, &d.Height, &d.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List retrieves all drawings, newest first.
func (r *DrawingRepository) List() ([]*Drawing, error) {
	rows, err := r.db.Query(
		`SELECT ` + drawingColumns + ` FROM drawings ORDER BY created_at DESC, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drawings []*Drawing
	for rows.Next() {
		d := &Drawing{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Path, &d.Format, &d.Width, &d.Height, &d.CreatedAt); err != nil {
			return nil, err
		}
		drawings = append(drawings, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return drawings, nil
}

// Rename changes the display name of a drawing.
func (r *DrawingRepository) Rename(id, name string) error {
	result, err := r.db.Exec(`UPDATE drawings SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// Delete removes a drawing record by its ID. The raster file is left to the
// caller.
func (r *DrawingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM drawings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}
