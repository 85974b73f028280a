package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rosterhub/internal/models"
)

const officeStaffColumns = `id, full_name, office, position, office_phone, mobile_phone, email, internal_extension, document_path, status, deactivated_on, created_at, updated_at`

// OfficeStaffRepository provides database access to the office_staff table.
type OfficeStaffRepository struct {
	db *sqlx.DB
}

// NewOfficeStaffRepository creates a new instance of OfficeStaffRepository.
func NewOfficeStaffRepository(db *sqlx.DB) *OfficeStaffRepository {
	return &OfficeStaffRepository{db: db}
}

// ListActive returns active office staff for one office ordered by name.
func (r *OfficeStaffRepository) ListActive(ctx context.Context, filter models.RosterFilter) ([]models.OfficeStaff, error) {
	query := fmt.Sprintf(`SELECT %s FROM office_staff WHERE office = $1 AND status = $2`, officeStaffColumns)
	args := []interface{}{filter.Office, models.StatusActive}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND full_name ILIKE $%d ESCAPE '\\'", len(args)+1)
		args = append(args, likePattern(filter.Search))
	}
	query += " ORDER BY full_name ASC"

	staff := make([]models.OfficeStaff, 0)
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("list active office staff: %w", err)
	}
	return staff, nil
}

// FindByID returns an office staff record by identifier.
func (r *OfficeStaffRepository) FindByID(ctx context.Context, id string) (*models.OfficeStaff, error) {
	query := fmt.Sprintf(`SELECT %s FROM office_staff WHERE id = $1 LIMIT 1`, officeStaffColumns)
	var staff models.OfficeStaff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find office staff by id: %w", err)
	}
	return &staff, nil
}

// Create inserts a new office staff record.
func (r *OfficeStaffRepository) Create(ctx context.Context, staff *models.OfficeStaff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now

	const query = `INSERT INTO office_staff (id, full_name, office, position, office_phone, mobile_phone, email, internal_extension, status, created_at, updated_at)
		VALUES (:id, :full_name, :office, :position, :office_phone, :mobile_phone, :email, :internal_extension, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create office staff: %w", err)
	}
	return nil
}

// OfficeStaffUpdate lists the fields a partial update may touch.
type OfficeStaffUpdate struct {
	FullName          *string
	Position          *string
	OfficePhone       *string
	MobilePhone       *string
	Email             *string
	InternalExtension *string
}

// Update applies the provided fields only. Returns sql.ErrNoRows when the
// record does not exist.
func (r *OfficeStaffRepository) Update(ctx context.Context, id string, fields OfficeStaffUpdate) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.FullName != nil {
		add("full_name", *fields.FullName)
	}
	if fields.Position != nil {
		add("position", *fields.Position)
	}
	if fields.OfficePhone != nil {
		add("office_phone", *fields.OfficePhone)
	}
	if fields.MobilePhone != nil {
		add("mobile_phone", *fields.MobilePhone)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.InternalExtension != nil {
		add("internal_extension", *fields.InternalExtension)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE office_staff SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update office staff: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate flips the record to Inactive and stamps the date.
func (r *OfficeStaffRepository) Deactivate(ctx context.Context, id string, on time.Time) error {
	const query = `UPDATE office_staff SET status = $2, deactivated_on = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusInactive, on, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate office staff: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetAttachment stores the document reference, overwriting any prior one.
// Office staff carry no vehicle photo slot.
func (r *OfficeStaffRepository) SetAttachment(ctx context.Context, id string, path string) error {
	const query = `UPDATE office_staff SET document_path = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set office staff attachment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListInactive returns all deactivated office staff for the history view.
func (r *OfficeStaffRepository) ListInactive(ctx context.Context) ([]models.DeactivationRecord, error) {
	const query = `SELECT id, full_name, office, deactivated_on FROM office_staff WHERE status = $1`
	records := make([]models.DeactivationRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, models.StatusInactive); err != nil {
		return nil, fmt.Errorf("list inactive office staff: %w", err)
	}
	return records, nil
}

// CountActiveByOffice returns active office staff headcount per office.
func (r *OfficeStaffRepository) CountActiveByOffice(ctx context.Context) (map[string]int, error) {
	const query = `SELECT office, COUNT(*) AS n FROM office_staff WHERE status = $1 GROUP BY office`
	rows := []struct {
		Key string `db:"office"`
		N   int    `db:"n"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, models.StatusActive); err != nil {
		return nil, fmt.Errorf("count office staff: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.N
	}
	return counts, nil
}
