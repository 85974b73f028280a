package models

import "time"

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat validates the query form; xlsx is the default.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(raw) {
	case ExportFormatXLSX, "":
		return ExportFormatXLSX, true
	case ExportFormatCSV:
		return ExportFormatCSV, true
	case ExportFormatPDF:
		return ExportFormatPDF, true
	}
	return "", false
}

// Export job lifecycle states.
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportJob tracks an asynchronous roster export request.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	Category    Category     `db:"category" json:"category"`
	Office      Office       `db:"office" json:"office"`
	Search      string       `db:"search" json:"search,omitempty"`
	Format      ExportFormat `db:"format" json:"format"`
	Status      ExportStatus `db:"status" json:"status"`
	FilePath    *string      `db:"file_path" json:"-"`
	DownloadURL *string      `db:"download_url" json:"download_url,omitempty"`
	ExpiresAt   *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	Error       *string      `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
