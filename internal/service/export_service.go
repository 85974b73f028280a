package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/export"
	"rosterhub/pkg/jobs"
	"rosterhub/pkg/storage"
)

const exportJobType = "roster_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type exportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ExportResult is a synchronously rendered export file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders roster listings to downloadable files. Small
// listings render synchronously; the async path queues a job, stores the
// file on disk and hands back a signed download URL.
type ExportService struct {
	couriers  courierRepository
	staff     officeStaffRepository
	jobsRepo  exportJobStore
	queue     exportEnqueuer
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	logger    *zap.Logger
	csv       *export.CSVExporter
	xlsx      *export.XLSXExporter
	pdf       *export.PDFExporter
	signedTTL time.Duration
}

// NewExportService constructs an ExportService. The queue is attached
// later via SetQueue because the queue handler needs the service.
func NewExportService(couriers courierRepository, staff officeStaffRepository, jobsRepo exportJobStore, files *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, signedTTL time.Duration, logger *zap.Logger) *ExportService {
	if signedTTL <= 0 {
		signedTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		couriers:  couriers,
		staff:     staff,
		jobsRepo:  jobsRepo,
		files:     files,
		signer:    signer,
		metrics:   metrics,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		xlsx:      export.NewXLSXExporter(),
		pdf:       export.NewPDFExporter(),
		signedTTL: signedTTL,
	}
}

// SetQueue attaches the worker queue used for asynchronous exports.
func (s *ExportService) SetQueue(queue exportEnqueuer) {
	s.queue = queue
}

// Export renders the requested listing immediately and returns the file.
func (s *ExportService) Export(ctx context.Context, actor Actor, category models.Category, office, search string, format models.ExportFormat) (*ExportResult, error) {
	dataset, resolved, err := s.buildDataset(ctx, actor, category, office, search)
	if err != nil {
		return nil, err
	}
	data, err := s.render(dataset, category, format)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    exportFilename(category, resolved, format),
		ContentType: contentTypeFor(format),
		Data:        data,
	}, nil
}

// RequestExport queues an asynchronous export and returns the pending job.
func (s *ExportService) RequestExport(ctx context.Context, actor Actor, category models.Category, office, search string, format models.ExportFormat) (*models.ExportJob, error) {
	// Resolve visibility up front so a forbidden request never becomes a job.
	resolved, err := s.resolveOffice(actor, office)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		RequestedBy: actor.UserID,
		Category:    category,
		Office:      resolved,
		Search:      strings.TrimSpace(search),
		Format:      format,
		Status:      models.ExportStatusPending,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to record export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Payload: job.ID}); err != nil {
		reason := "export queue is full"
		if markErr := s.jobsRepo.MarkFailed(ctx, job.ID, reason); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, reason)
	}
	return job, nil
}

// JobStatus returns the state of an export job. Requesters see only
// their own jobs; admins see all.
func (s *ExportService) JobStatus(ctx context.Context, actor Actor, jobID string) (*models.ExportJob, error) {
	job, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load export job")
	}
	if job.RequestedBy != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

// HandleJob is the queue handler; it renders the export named by the
// job payload and publishes a signed download URL.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected export payload %T", job.Payload)
	}
	record, err := s.jobsRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}
	if err := s.jobsRepo.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}

	if err := s.run(ctx, record); err != nil {
		s.metrics.RecordExportJob("failed")
		if markErr := s.jobsRepo.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return err
	}
	s.metrics.RecordExportJob("completed")
	return nil
}

func (s *ExportService) run(ctx context.Context, record *models.ExportJob) error {
	// The job carries an already resolved office, so fetch directly.
	dataset, err := s.fetchDataset(ctx, record.Category, models.RosterFilter{Office: record.Office, Search: record.Search})
	if err != nil {
		return err
	}
	data, err := s.render(dataset, record.Category, record.Format)
	if err != nil {
		return err
	}

	filename := record.ID + "_" + exportFilename(record.Category, record.Office, record.Format)
	relPath, err := s.files.Save(filename, data)
	if err != nil {
		return fmt.Errorf("store export file: %w", err)
	}
	token, expiresAt, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}
	downloadURL := "/api/v1/exports/download/" + token
	if err := s.jobsRepo.MarkCompleted(ctx, record.ID, relPath, downloadURL, expiresAt); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	s.logger.Info("export job completed",
		zap.String("job_id", record.ID),
		zap.String("category", string(record.Category)),
		zap.String("office", string(record.Office)),
		zap.String("format", string(record.Format)))
	return nil
}

// OpenDownload validates a signed token and opens the stored file.
func (s *ExportService) OpenDownload(token string) (*ExportResult, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	f, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file")
	}
	// Strip the job id prefix so the browser sees the original name.
	filename := strings.TrimPrefix(relPath, jobID+"_")
	format := formatFromFilename(relPath)
	return &ExportResult{
		Filename:    filename,
		ContentType: contentTypeFor(format),
		Data:        data,
	}, nil
}

func (s *ExportService) resolveOffice(actor Actor, requested string) (models.Office, error) {
	if !models.Can(actor.Role, models.ActionView) {
		return "", appErrors.ErrForbidden
	}
	if actor.Role == models.RoleReader {
		if actor.Office == nil {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no office assigned")
		}
		return *actor.Office, nil
	}
	office := models.Office(requested)
	if !models.ValidOffice(office) {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}
	return office, nil
}

func (s *ExportService) buildDataset(ctx context.Context, actor Actor, category models.Category, office, search string) (export.Dataset, models.Office, error) {
	resolved, err := s.resolveOffice(actor, office)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset, err := s.fetchDataset(ctx, category, models.RosterFilter{Office: resolved, Search: strings.TrimSpace(search)})
	if err != nil {
		return export.Dataset{}, "", err
	}
	return dataset, resolved, nil
}

func (s *ExportService) fetchDataset(ctx context.Context, category models.Category, filter models.RosterFilter) (export.Dataset, error) {
	if category == models.CategoryCourier {
		couriers, err := s.couriers.ListActive(ctx, filter)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list couriers")
		}
		return courierDataset(couriers), nil
	}
	staff, err := s.staff.ListActive(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list office staff")
	}
	return staffDataset(staff), nil
}

func (s *ExportService) render(dataset export.Dataset, category models.Category, format models.ExportFormat) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case models.ExportFormatCSV:
		data, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(dataset, category.Label()+" roster")
	default:
		data, err = s.xlsx.Render(dataset, category.Label())
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return data, nil
}

func courierDataset(couriers []models.Courier) export.Dataset {
	ds := export.Dataset{
		Headers: []string{"Full name", "Office", "Route", "Profile", "Company vehicle", "Vehicle lettering", "Mobile phone", "Notes"},
	}
	for _, c := range couriers {
		ds.Rows = append(ds.Rows, map[string]string{
			"Full name":         c.FullName,
			"Office":            string(c.Office),
			"Route":             c.Route,
			"Profile":           string(c.ProfileType),
			"Company vehicle":   c.CompanyVehicle,
			"Vehicle lettering": string(c.VehicleLettering),
			"Mobile phone":      c.MobilePhone,
			"Notes":             c.Notes,
		})
	}
	return ds
}

func staffDataset(staff []models.OfficeStaff) export.Dataset {
	ds := export.Dataset{
		Headers: []string{"Full name", "Office", "Position", "Office phone", "Mobile phone", "Email", "Extension"},
	}
	for _, p := range staff {
		ds.Rows = append(ds.Rows, map[string]string{
			"Full name":    p.FullName,
			"Office":       string(p.Office),
			"Position":     p.Position,
			"Office phone": p.OfficePhone,
			"Mobile phone": p.MobilePhone,
			"Email":        p.Email,
			"Extension":    p.InternalExtension,
		})
	}
	return ds
}

func exportFilename(category models.Category, office models.Office, format models.ExportFormat) string {
	office = models.Office(strings.ReplaceAll(string(office), " ", "_"))
	return fmt.Sprintf("%s_%s.%s", category, office, format)
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

func formatFromFilename(name string) models.ExportFormat {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return models.ExportFormatCSV
	case strings.HasSuffix(name, ".pdf"):
		return models.ExportFormatPDF
	default:
		return models.ExportFormatXLSX
	}
}
