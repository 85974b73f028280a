package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	"rosterhub/pkg/jobs"
	"rosterhub/pkg/storage"
)

type mockExportJobStore struct {
	jobs map[string]models.ExportJob
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if m.jobs == nil {
		m.jobs = make(map[string]models.ExportJob)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockExportJobStore) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if j, ok := m.jobs[id]; ok {
		job := j
		return &job, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobStore) MarkRunning(ctx context.Context, id string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusRunning
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobStore) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusCompleted
	j.FilePath = &filePath
	j.DownloadURL = &downloadURL
	j.ExpiresAt = &expiresAt
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobStore) MarkFailed(ctx context.Context, id, reason string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusFailed
	j.Error = &reason
	m.jobs[id] = j
	return nil
}

type recordingQueue struct {
	enqueued []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newExportFixture(t *testing.T) (*mockCourierRepo, *mockExportJobStore, *ExportService) {
	t.Helper()
	couriers := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana Pérez", Office: "Girona", Route: "R-1", ProfileType: models.ProfileSelfEmployed, VehicleLettering: models.LetteringDone, Status: models.StatusActive},
		"c2": {ID: "c2", FullName: "Pau Vila", Office: "Girona", Route: "R-2", ProfileType: models.ProfileEmployee, VehicleLettering: models.LetteringNone, Status: models.StatusActive},
	}}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	jobStore := &mockExportJobStore{}
	svc := NewExportService(couriers, &mockStaffRepo{}, jobStore, files, signer, NewMetricsService(), time.Hour, zap.NewNop())
	return couriers, jobStore, svc
}

func TestExportServiceSyncCSV(t *testing.T) {
	_, _, svc := newExportFixture(t)
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	result, err := svc.Export(context.Background(), admin, models.CategoryCourier, "Girona", "", models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "couriers_Girona.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Full name")
	assert.Contains(t, string(result.Data), "Ana Pérez")
}

func TestExportServiceReaderPinnedOffice(t *testing.T) {
	couriers, _, svc := newExportFixture(t)
	reader := Actor{UserID: "u1", Role: models.RoleReader, Office: officePtr("Sabadell")}

	_, err := svc.Export(context.Background(), reader, models.CategoryCourier, "Girona", "", models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, models.Office("Sabadell"), couriers.lastFilter.Office)
}

func TestExportServiceRequestAndHandleJob(t *testing.T) {
	_, jobStore, svc := newExportFixture(t)
	queue := &recordingQueue{}
	svc.SetQueue(queue)
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}
	ctx := context.Background()

	job, err := svc.RequestExport(ctx, admin, models.CategoryCourier, "Girona", "", models.ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusPending, job.Status)
	require.Len(t, queue.enqueued, 1)

	require.NoError(t, svc.HandleJob(ctx, queue.enqueued[0]))

	done, err := svc.JobStatus(ctx, admin, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusCompleted, done.Status)
	require.NotNil(t, done.DownloadURL)

	token := strings.TrimPrefix(*done.DownloadURL, "/api/v1/exports/download/")
	result, err := svc.OpenDownload(token)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.ContentType)

	status := jobStore.jobs[job.ID]
	require.NotNil(t, status.ExpiresAt)
	assert.True(t, status.ExpiresAt.After(time.Now()))
}

func TestExportServiceJobStatusOwnership(t *testing.T) {
	_, _, svc := newExportFixture(t)
	queue := &recordingQueue{}
	svc.SetQueue(queue)
	ctx := context.Background()
	owner := Actor{UserID: "u1", Role: models.RoleEditor}

	job, err := svc.RequestExport(ctx, owner, models.CategoryCourier, "Girona", "", models.ExportFormatCSV)
	require.NoError(t, err)

	_, err = svc.JobStatus(ctx, Actor{UserID: "u2", Role: models.RoleEditor}, job.ID)
	require.Error(t, err)

	_, err = svc.JobStatus(ctx, Actor{UserID: "admin", Role: models.RoleAdmin}, job.ID)
	require.NoError(t, err)
}

func TestExportServiceOpenDownloadTamperedToken(t *testing.T) {
	_, _, svc := newExportFixture(t)

	_, err := svc.OpenDownload("not-a-valid-token")
	require.Error(t, err)
}
