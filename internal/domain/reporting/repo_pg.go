package reporting

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const reportCols = `id, full_name, gender, email, doctor, date, time, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO report (id, full_name, gender, email, doctor, date, time)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		rep.ID, rep.FullName, rep.Gender, strings.ToLower(rep.Email), rep.Doctor, rep.Date, rep.Time,
	).Scan(&rep.CreatedAt, &rep.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.pool.QueryRow(ctx,
		`SELECT `+reportCols+` FROM report WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report SET
			full_name=$2, gender=$3, email=$4, doctor=$5, date=$6, time=$7,
			updated_at=NOW()
		WHERE id=$1`,
		rep.ID, rep.FullName, rep.Gender, strings.ToLower(rep.Email), rep.Doctor, rep.Date, rep.Time,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM report WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM report`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportCols+` FROM report ORDER BY date DESC, time DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func (r *repoPG) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Report, int, error) {
	email = strings.ToLower(email)
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM report WHERE email = $1`, email).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportCols+` FROM report WHERE email = $1 ORDER BY date DESC, time DESC LIMIT $2 OFFSET $3`,
		email, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func collectReports(rows pgx.Rows, total int) ([]*Report, int, error) {
	var reports []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.FullName, &rep.Gender, &rep.Email, &rep.Doctor, &rep.Date, &rep.Time, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}
