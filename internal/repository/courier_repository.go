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

const courierColumns = `id, full_name, office, route, profile_type, company_vehicle, vehicle_lettering, notes, mobile_phone, document_path, vehicle_photo_path, status, deactivated_on, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a user-supplied substring for ILIKE, escaping the
// wildcard characters so they match literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// CourierRepository provides database access to the couriers table.
type CourierRepository struct {
	db *sqlx.DB
}

// NewCourierRepository creates a new instance of CourierRepository.
func NewCourierRepository(db *sqlx.DB) *CourierRepository {
	return &CourierRepository{db: db}
}

// ListActive returns active couriers for one office ordered by name.
// An empty result is a valid empty slice, never an error.
func (r *CourierRepository) ListActive(ctx context.Context, filter models.RosterFilter) ([]models.Courier, error) {
	query := fmt.Sprintf(`SELECT %s FROM couriers WHERE office = $1 AND status = $2`, courierColumns)
	args := []interface{}{filter.Office, models.StatusActive}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND full_name ILIKE $%d ESCAPE '\\'", len(args)+1)
		args = append(args, likePattern(filter.Search))
	}
	query += " ORDER BY full_name ASC"

	couriers := make([]models.Courier, 0)
	if err := r.db.SelectContext(ctx, &couriers, query, args...); err != nil {
		return nil, fmt.Errorf("list active couriers: %w", err)
	}
	return couriers, nil
}

// FindByID returns a courier by identifier.
func (r *CourierRepository) FindByID(ctx context.Context, id string) (*models.Courier, error) {
	query := fmt.Sprintf(`SELECT %s FROM couriers WHERE id = $1 LIMIT 1`, courierColumns)
	var courier models.Courier
	if err := r.db.GetContext(ctx, &courier, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find courier by id: %w", err)
	}
	return &courier, nil
}

// Create inserts a new courier. Office and status are assigned by the
// caller-facing service; id and timestamps are assigned here.
func (r *CourierRepository) Create(ctx context.Context, courier *models.Courier) error {
	if courier.ID == "" {
		courier.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	courier.CreatedAt = now
	courier.UpdatedAt = now

	const query = `INSERT INTO couriers (id, full_name, office, route, profile_type, company_vehicle, vehicle_lettering, notes, mobile_phone, status, created_at, updated_at)
		VALUES (:id, :full_name, :office, :route, :profile_type, :company_vehicle, :vehicle_lettering, :notes, :mobile_phone, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, courier); err != nil {
		return fmt.Errorf("create courier: %w", err)
	}
	return nil
}

// CourierUpdate lists the fields a partial update may touch. Status and
// office are deliberately absent: they never change through update.
type CourierUpdate struct {
	FullName         *string
	Route            *string
	ProfileType      *models.CourierProfile
	CompanyVehicle   *string
	VehicleLettering *models.LetteringStatus
	Notes            *string
	MobilePhone      *string
}

// Update applies the provided fields only. Returns sql.ErrNoRows when the
// record does not exist.
func (r *CourierRepository) Update(ctx context.Context, id string, fields CourierUpdate) error {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.FullName != nil {
		add("full_name", *fields.FullName)
	}
	if fields.Route != nil {
		add("route", *fields.Route)
	}
	if fields.ProfileType != nil {
		add("profile_type", *fields.ProfileType)
	}
	if fields.CompanyVehicle != nil {
		add("company_vehicle", *fields.CompanyVehicle)
	}
	if fields.VehicleLettering != nil {
		add("vehicle_lettering", *fields.VehicleLettering)
	}
	if fields.Notes != nil {
		add("notes", *fields.Notes)
	}
	if fields.MobilePhone != nil {
		add("mobile_phone", *fields.MobilePhone)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE couriers SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update courier: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate flips the record to Inactive and stamps the date. A second
// call refreshes the stamp rather than failing.
func (r *CourierRepository) Deactivate(ctx context.Context, id string, on time.Time) error {
	const query = `UPDATE couriers SET status = $2, deactivated_on = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusInactive, on, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate courier: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetAttachment stores the file reference for the given slot, overwriting
// any prior reference.
func (r *CourierRepository) SetAttachment(ctx context.Context, id string, slot models.AttachmentSlot, path string) error {
	column := "document_path"
	if slot == models.SlotVehiclePhoto {
		column = "vehicle_photo_path"
	}
	query := fmt.Sprintf("UPDATE couriers SET %s = $2, updated_at = $3 WHERE id = $1", column)
	res, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set courier attachment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListInactive returns all deactivated couriers for the history view.
func (r *CourierRepository) ListInactive(ctx context.Context) ([]models.DeactivationRecord, error) {
	const query = `SELECT id, full_name, office, deactivated_on FROM couriers WHERE status = $1`
	records := make([]models.DeactivationRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, models.StatusInactive); err != nil {
		return nil, fmt.Errorf("list inactive couriers: %w", err)
	}
	return records, nil
}

// CountActiveByOffice returns active courier headcount per office.
func (r *CourierRepository) CountActiveByOffice(ctx context.Context) (map[string]int, error) {
	const query = `SELECT office, COUNT(*) AS n FROM couriers WHERE status = $1 GROUP BY office`
	return r.countGrouped(ctx, query)
}

// CountActiveByProfile returns active courier counts per profile type.
func (r *CourierRepository) CountActiveByProfile(ctx context.Context) (map[string]int, error) {
	const query = `SELECT profile_type AS office, COUNT(*) AS n FROM couriers WHERE status = $1 GROUP BY profile_type`
	return r.countGrouped(ctx, query)
}

// CountActiveByLettering returns active courier counts per lettering status.
func (r *CourierRepository) CountActiveByLettering(ctx context.Context) (map[string]int, error) {
	const query = `SELECT vehicle_lettering AS office, COUNT(*) AS n FROM couriers WHERE status = $1 GROUP BY vehicle_lettering`
	return r.countGrouped(ctx, query)
}

// CountLetteredByOffice returns per-office counts of couriers whose
// vehicle lettering is complete.
func (r *CourierRepository) CountLetteredByOffice(ctx context.Context) (map[string]int, error) {
	const query = `SELECT office, COUNT(*) AS n FROM couriers WHERE status = $1 AND vehicle_lettering = 'Yes' GROUP BY office`
	return r.countGrouped(ctx, query)
}

func (r *CourierRepository) countGrouped(ctx context.Context, query string) (map[string]int, error) {
	rows := []struct {
		Key string `db:"office"`
		N   int    `db:"n"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, models.StatusActive); err != nil {
		return nil, fmt.Errorf("count couriers: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.N
	}
	return counts, nil
}
