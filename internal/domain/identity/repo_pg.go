package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// mapPGError translates driver errors into domain errors.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(context.Context) querier { return r.pool }

const patientCols = `id, first_name, last_name, age, gender, dob, address, contact_number,
	email, password_hash,
	kin_first_name, kin_last_name, kin_relationship, kin_contact_number,
	otp_hash, otp_expiry, otp_status,
	created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Email = NormalizeEmail(p.Email)

	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			id, first_name, last_name, age, gender, dob, address, contact_number,
			email, password_hash,
			kin_first_name, kin_last_name, kin_relationship, kin_contact_number
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,
			$9,$10,
			$11,$12,$13,$14
		) RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Age, p.Gender, p.DOB, p.Address, p.ContactNumber,
		p.Email, p.PasswordHash,
		p.ClosestPerson.FirstName, p.ClosestPerson.LastName, p.ClosestPerson.Relationship, p.ClosestPerson.ContactNumber,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapPGError(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE email = $1`, NormalizeEmail(email)))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	p.Email = NormalizeEmail(p.Email)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			first_name=$2, last_name=$3, age=$4, gender=$5, dob=$6, address=$7,
			contact_number=$8, email=$9,
			kin_first_name=$10, kin_last_name=$11, kin_relationship=$12, kin_contact_number=$13,
			updated_at=NOW()
		WHERE id=$1`,
		p.ID, p.FirstName, p.LastName, p.Age, p.Gender, p.DOB, p.Address,
		p.ContactNumber, p.Email,
		p.ClosestPerson.FirstName, p.ClosestPerson.LastName, p.ClosestPerson.Relationship, p.ClosestPerson.ContactNumber,
	)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *patientRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET otp_hash = $2, otp_expiry = $3, otp_status = $4, updated_at = NOW() WHERE id = $1`,
		id, otpHash, expiry, ChallengeIssued)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) GetByResetHash(ctx context.Context, otpHash string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE otp_hash = $1`, otpHash))
}

func (r *patientRepoPG) UpdateResetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET otp_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Age, &p.Gender, &p.DOB, &p.Address, &p.ContactNumber,
		&p.Email, &p.PasswordHash,
		&p.ClosestPerson.FirstName, &p.ClosestPerson.LastName, &p.ClosestPerson.Relationship, &p.ClosestPerson.ContactNumber,
		&p.OTPHash, &p.OTPExpiry, &p.OTPStatus,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapPGError(err)
	}
	return &p, nil
}

// -- User Repository --

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(context.Context) querier { return r.pool }

const userCols = `id, first_name, last_name, hospital, dob, address, contact_number,
	email, password_hash, role,
	otp_hash, otp_expiry, otp_status,
	created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)

	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (
			id, first_name, last_name, hospital, dob, address, contact_number,
			email, password_hash, role
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10
		) RETURNING created_at, updated_at`,
		u.ID, u.FirstName, u.LastName, u.Hospital, u.DOB, u.Address, u.ContactNumber,
		u.Email, u.PasswordHash, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapPGError(err)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE email = $1`, NormalizeEmail(email)))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE app_user SET
			first_name=$2, last_name=$3, hospital=$4, dob=$5, address=$6,
			contact_number=$7, email=$8, role=$9,
			updated_at=NOW()
		WHERE id=$1`,
		u.ID, u.FirstName, u.LastName, u.Hospital, u.DOB, u.Address,
		u.ContactNumber, u.Email, u.Role,
	)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM app_user ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET otp_hash = $2, otp_expiry = $3, otp_status = $4, updated_at = NOW() WHERE id = $1`,
		id, otpHash, expiry, ChallengeIssued)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) GetByResetHash(ctx context.Context, otpHash string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE otp_hash = $1`, otpHash))
}

func (r *userRepoPG) UpdateResetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET otp_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Hospital, &u.DOB, &u.Address, &u.ContactNumber,
		&u.Email, &u.PasswordHash, &u.Role,
		&u.OTPHash, &u.OTPExpiry, &u.OTPStatus,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapPGError(err)
	}
	return &u, nil
}

// -- Staff Repository --

type staffRepoPG struct {
	pool *pgxpool.Pool
}

func NewStaffRepo(pool *pgxpool.Pool) StaffRepository {
	return &staffRepoPG{pool: pool}
}

func (r *staffRepoPG) conn(context.Context) querier { return r.pool }

const staffCols = `id, employee_id, first_name, last_name, gender, role, phone_number,
	address, dob, nic, email, created_at, updated_at`

func (r *staffRepoPG) Create(ctx context.Context, s *Staff) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Email = NormalizeEmail(s.Email)

	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff (
			id, employee_id, first_name, last_name, gender, role, phone_number,
			address, dob, nic, email
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11
		) RETURNING created_at, updated_at`,
		s.ID, s.EmployeeID, s.FirstName, s.LastName, s.Gender, s.Role, s.PhoneNumber,
		s.Address, s.DOB, s.NIC, s.Email,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapPGError(err)
}

func (r *staffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE id = $1`, id))
}

func (r *staffRepoPG) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE email = $1`, NormalizeEmail(email)))
}

func (r *staffRepoPG) Update(ctx context.Context, s *Staff) error {
	s.Email = NormalizeEmail(s.Email)
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff SET
			employee_id=$2, first_name=$3, last_name=$4, gender=$5, role=$6,
			phone_number=$7, address=$8, dob=$9, nic=$10, email=$11,
			updated_at=NOW()
		WHERE id=$1`,
		s.ID, s.EmployeeID, s.FirstName, s.LastName, s.Gender, s.Role,
		s.PhoneNumber, s.Address, s.DOB, s.NIC, s.Email,
	)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *staffRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *staffRepoPG) List(ctx context.Context, limit, offset int) ([]*Staff, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+staffCols+` FROM staff ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var staff []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		staff = append(staff, s)
	}
	return staff, total, rows.Err()
}

func (r *staffRepoPG) SearchByRole(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM staff WHERE LOWER(role) = LOWER($1)`, role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+staffCols+` FROM staff WHERE LOWER(role) = LOWER($1) ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var staff []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		staff = append(staff, s)
	}
	return staff, total, rows.Err()
}

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.FirstName, &s.LastName, &s.Gender, &s.Role, &s.PhoneNumber,
		&s.Address, &s.DOB, &s.NIC, &s.Email, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapPGError(err)
	}
	return &s, nil
}
