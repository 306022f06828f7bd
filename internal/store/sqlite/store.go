// Package sqlite provides an embedded store.Store backed by a single SQLite
// file, for deployments without PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

//go:embed schema.sql
var schema string

const (
	institutionColumns = `id, full_name, short_name, head_edu_org_id, is_branch, post_address, phone, fax,
email, web_site, ogrn, inn, kpp, head_post, head_name, form_name, kind_name, type_name, region_name,
federal_district_name, name_search, custom, deleted, deletion_origin, updated_at`

	programColumns = `id, type_name, edu_level_name, program_name, program_code, ugs_name, ugs_code,
edu_normative_period, qualification, is_accredited, is_canceled, is_suspended, institution_id,
custom, deleted, deletion_origin, updated_at`

	timeLayout = time.RFC3339Nano
)

// Store persists institutions and programs in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens (creating if needed) the database file at path and applies the schema
func New(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection keeps transactions from fighting over the lock
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %q: %w", table, id, err)
	}
	return true, nil
}

// mapConstraint translates constraint failures the pre-checks could not see
func mapConstraint(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return registry.ErrAlreadyExists
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return registry.ErrOrphanProgram
	}
	return err
}

func rowsOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func institutionArgs(inst *registry.Institution) []any {
	return []any{
		inst.FullName, inst.ShortName, nullable(inst.HeadEduOrgID), inst.IsBranch, inst.PostAddress,
		inst.Phone, inst.Fax, inst.Email, inst.WebSite, inst.OGRN, inst.INN, inst.KPP, inst.HeadPost,
		inst.HeadName, inst.FormName, inst.KindName, inst.TypeName, inst.RegionName,
		inst.FederalDistrictName, inst.NameSearch, inst.Custom, inst.Deleted, string(inst.DeletionOrigin),
	}
}

func programArgs(prog *registry.Program) []any {
	return []any{
		prog.TypeName, prog.EduLevelName, prog.ProgramName, prog.ProgramCode, prog.UGSName,
		prog.UGSCode, prog.EduNormativePeriod, prog.Qualification, prog.IsAccredited, prog.IsCanceled,
		prog.IsSuspended, prog.InstitutionID, prog.Custom, prog.Deleted, string(prog.DeletionOrigin),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row scanner) (*registry.Institution, error) {
	var (
		inst      registry.Institution
		head      sql.NullString
		origin    string
		updatedAt string
	)
	err := row.Scan(&inst.ID, &inst.FullName, &inst.ShortName, &head, &inst.IsBranch, &inst.PostAddress,
		&inst.Phone, &inst.Fax, &inst.Email, &inst.WebSite, &inst.OGRN, &inst.INN, &inst.KPP, &inst.HeadPost,
		&inst.HeadName, &inst.FormName, &inst.KindName, &inst.TypeName, &inst.RegionName,
		&inst.FederalDistrictName, &inst.NameSearch, &inst.Custom, &inst.Deleted, &origin, &updatedAt)
	if err != nil {
		return nil, err
	}
	if head.Valid {
		inst.HeadEduOrgID = &head.String
	}
	inst.DeletionOrigin = registry.DeletionOrigin(origin)
	inst.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	return &inst, nil
}

func scanProgram(row scanner) (*registry.Program, error) {
	var (
		prog      registry.Program
		origin    string
		updatedAt string
	)
	err := row.Scan(&prog.ID, &prog.TypeName, &prog.EduLevelName, &prog.ProgramName, &prog.ProgramCode,
		&prog.UGSName, &prog.UGSCode, &prog.EduNormativePeriod, &prog.Qualification, &prog.IsAccredited,
		&prog.IsCanceled, &prog.IsSuspended, &prog.InstitutionID, &prog.Custom, &prog.Deleted, &origin, &updatedAt)
	if err != nil {
		return nil, err
	}
	prog.DeletionOrigin = registry.DeletionOrigin(origin)
	prog.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	return &prog, nil
}

func (s *Store) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// AddInstitution implements store.Store
func (s *Store) AddInstitution(ctx context.Context, inst *registry.Institution) error {
	c := *inst
	c.Normalize()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, "institutions", c.ID)
		if err != nil {
			return err
		}
		if found {
			return registry.ErrAlreadyExists
		}
		args := append([]any{c.ID}, institutionArgs(&c)...)
		args = append(args, s.stamp())
		_, err = tx.ExecContext(ctx, `INSERT INTO institutions (`+institutionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		return mapConstraint(err)
	})
}

// UpdateInstitution implements store.Store
func (s *Store) UpdateInstitution(ctx context.Context, inst *registry.Institution) error {
	c := *inst
	c.Normalize()
	args := append(institutionArgs(&c), s.stamp(), c.ID)
	res, err := s.db.ExecContext(ctx, `UPDATE institutions SET
		full_name = ?, short_name = ?, head_edu_org_id = ?, is_branch = ?, post_address = ?, phone = ?,
		fax = ?, email = ?, web_site = ?, ogrn = ?, inn = ?, kpp = ?, head_post = ?, head_name = ?,
		form_name = ?, kind_name = ?, type_name = ?, region_name = ?, federal_district_name = ?,
		name_search = ?, custom = ?, deleted = ?, deletion_origin = ?, updated_at = ?
		WHERE id = ?`, args...)
	return rowsOrNotFound(res, mapConstraint(err))
}

// GetInstitution implements store.Store
func (s *Store) GetInstitution(ctx context.Context, id string) (*registry.Institution, error) {
	inst, err := scanInstitution(s.db.QueryRowContext(ctx,
		`SELECT `+institutionColumns+` FROM institutions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return inst, nil
}

// ListInstitutionIDs implements store.Store
func (s *Store) ListInstitutionIDs(ctx context.Context) ([]string, error) {
	ids, err := s.listStrings(ctx, `SELECT id FROM institutions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list institution ids: %w", err)
	}
	return ids, nil
}

// DeleteInstitution implements store.Store
func (s *Store) DeleteInstitution(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := rowsOrNotFound(tx.ExecContext(ctx, `DELETE FROM institutions WHERE id = ?`, id)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE institutions SET head_edu_org_id = NULL, updated_at = ? WHERE head_edu_org_id = ?`,
			s.stamp(), id)
		return err
	})
}

// SoftDeleteInstitution implements store.Store
func (s *Store) SoftDeleteInstitution(
	ctx context.Context, id string, origin registry.DeletionOrigin, cascade bool,
) error {
	now := s.stamp()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		err := rowsOrNotFound(tx.ExecContext(ctx,
			`UPDATE institutions SET deleted = 1, deletion_origin = ?, updated_at = ? WHERE id = ?`,
			string(origin), now, id))
		if err != nil || !cascade {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE programs SET deleted = 1, deletion_origin = ?, updated_at = ?
			WHERE institution_id = ?
			   OR institution_id IN (SELECT id FROM institutions WHERE head_edu_org_id = ?)`,
			string(origin), now, id, id); err != nil {
			return fmt.Errorf("failed to soft delete programs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE institutions SET deleted = 1, deletion_origin = ?, updated_at = ? WHERE head_edu_org_id = ?`,
			string(origin), now, id); err != nil {
			return fmt.Errorf("failed to soft delete branches: %w", err)
		}
		return nil
	})
}

// RestoreInstitution implements store.Store
func (s *Store) RestoreInstitution(ctx context.Context, id string) error {
	now := s.stamp()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var origin string
		err := tx.QueryRowContext(ctx, `SELECT deletion_origin FROM institutions WHERE id = ?`, id).Scan(&origin)
		if errors.Is(err, sql.ErrNoRows) {
			return registry.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get institution: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE institutions SET deleted = 0, deletion_origin = '', updated_at = ? WHERE id = ?`,
			now, id); err != nil {
			return fmt.Errorf("failed to restore institution: %w", err)
		}
		if registry.DeletionOrigin(origin) != registry.OriginAdmin {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE programs SET deleted = 0, deletion_origin = '', updated_at = ?
			WHERE deletion_origin = 'admin'
			  AND (institution_id = ?
			   OR institution_id IN (
			      SELECT id FROM institutions WHERE head_edu_org_id = ? AND deletion_origin = 'admin'))`,
			now, id, id); err != nil {
			return fmt.Errorf("failed to restore programs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE institutions SET deleted = 0, deletion_origin = '', updated_at = ?
			WHERE head_edu_org_id = ? AND deletion_origin = 'admin'`, now, id); err != nil {
			return fmt.Errorf("failed to restore branches: %w", err)
		}
		return nil
	})
}

// HasCustomDependents implements store.Store
func (s *Store) HasCustomDependents(ctx context.Context, id string) (bool, error) {
	var has bool
	err := s.db.QueryRowContext(ctx, `SELECT
		EXISTS (SELECT 1 FROM institutions WHERE head_edu_org_id = ? AND custom = 1)
		OR EXISTS (SELECT 1 FROM programs WHERE institution_id = ? AND custom = 1)`, id, id).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("failed to check custom dependents: %w", err)
	}
	return has, nil
}

// AddProgram implements store.Store
func (s *Store) AddProgram(ctx context.Context, prog *registry.Program) error {
	c := *prog
	c.Normalize()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkProgramWrite(ctx, tx, &c, true); err != nil {
			return err
		}
		args := append([]any{c.ID}, programArgs(&c)...)
		args = append(args, s.stamp())
		_, err := tx.ExecContext(ctx, `INSERT INTO programs (`+programColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		return mapConstraint(err)
	})
}

// UpdateProgram implements store.Store
func (s *Store) UpdateProgram(ctx context.Context, prog *registry.Program) error {
	c := *prog
	c.Normalize()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkProgramWrite(ctx, tx, &c, false); err != nil {
			return err
		}
		args := append(programArgs(&c), s.stamp(), c.ID)
		_, err := tx.ExecContext(ctx, `UPDATE programs SET
			type_name = ?, edu_level_name = ?, program_name = ?, program_code = ?, ugs_name = ?,
			ugs_code = ?, edu_normative_period = ?, qualification = ?, is_accredited = ?, is_canceled = ?,
			is_suspended = ?, institution_id = ?, custom = ?, deleted = ?, deletion_origin = ?, updated_at = ?
			WHERE id = ?`, args...)
		return mapConstraint(err)
	})
}

func (*Store) checkProgramWrite(ctx context.Context, tx *sql.Tx, prog *registry.Program, insert bool) error {
	found, err := exists(ctx, tx, "programs", prog.ID)
	if err != nil {
		return err
	}
	if insert && found {
		return registry.ErrAlreadyExists
	}
	if !insert && !found {
		return registry.ErrNotFound
	}
	owner, err := exists(ctx, tx, "institutions", prog.InstitutionID)
	if err != nil {
		return err
	}
	if !owner {
		return registry.ErrOrphanProgram
	}
	return nil
}

// GetProgram implements store.Store
func (s *Store) GetProgram(ctx context.Context, id string) (*registry.Program, error) {
	prog, err := scanProgram(s.db.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return prog, nil
}

// ListProgramIDs implements store.Store
func (s *Store) ListProgramIDs(ctx context.Context) ([]string, error) {
	ids, err := s.listStrings(ctx, `SELECT id FROM programs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list program ids: %w", err)
	}
	return ids, nil
}

// DeleteProgram implements store.Store
func (s *Store) DeleteProgram(ctx context.Context, id string) error {
	return rowsOrNotFound(s.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id))
}

// SoftDeleteProgram implements store.Store
func (s *Store) SoftDeleteProgram(ctx context.Context, id string, origin registry.DeletionOrigin) error {
	return rowsOrNotFound(s.db.ExecContext(ctx,
		`UPDATE programs SET deleted = 1, deletion_origin = ?, updated_at = ? WHERE id = ?`,
		string(origin), s.stamp(), id))
}

// RestoreProgram implements store.Store
func (s *Store) RestoreProgram(ctx context.Context, id string) error {
	return rowsOrNotFound(s.db.ExecContext(ctx,
		`UPDATE programs SET deleted = 0, deletion_origin = '', updated_at = ? WHERE id = ?`,
		s.stamp(), id))
}

// Lookup implements store.Store
func (s *Store) Lookup(ctx context.Context, lookup registry.Lookup) ([]string, error) {
	var query string
	switch lookup {
	case registry.LookupRegions:
		query = `SELECT DISTINCT region_name FROM institutions
			WHERE deleted = 0 AND region_name <> '' ORDER BY region_name`
	case registry.LookupUGSCodes:
		query = `SELECT DISTINCT ugs_code FROM programs
			WHERE deleted = 0 AND ugs_code <> '' ORDER BY ugs_code`
	case registry.LookupProgramCodes:
		query = `SELECT DISTINCT program_code FROM programs
			WHERE deleted = 0 AND program_code <> '' ORDER BY program_code`
	default:
		return nil, registry.ErrNotFound
	}
	values, err := s.listStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", lookup, err)
	}
	return values, nil
}

// Stats implements store.Store
func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{}
	err := s.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(deleted = 0), 0), COALESCE(SUM(deleted = 1), 0), COALESCE(SUM(custom = 1), 0)
		FROM institutions`).Scan(&stats.Institutions, &stats.DeletedInstitutions, &stats.CustomInstitutions)
	if err != nil {
		return nil, fmt.Errorf("failed to count institutions: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(deleted = 0), 0), COALESCE(SUM(deleted = 1), 0), COALESCE(SUM(custom = 1), 0)
		FROM programs`).Scan(&stats.Programs, &stats.DeletedPrograms, &stats.CustomPrograms)
	if err != nil {
		return nil, fmt.Errorf("failed to count programs: %w", err)
	}
	return stats, nil
}

// Ping implements store.Store
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Store
func (s *Store) Close() error {
	return s.db.Close()
}
