package models

import "time"

// Category identifies which personnel table a record belongs to.
// A record never changes category after creation.
type Category string

const (
	CategoryCourier     Category = "couriers"
	CategoryOfficeStaff Category = "office_staff"
)

// ParseCategory maps the URL form onto a Category.
func ParseCategory(raw string) (Category, bool) {
	switch raw {
	case string(CategoryCourier):
		return CategoryCourier, true
	case string(CategoryOfficeStaff), "office-staff":
		return CategoryOfficeStaff, true
	}
	return "", false
}

// Label returns the human-facing name used in exports and history rows.
func (c Category) Label() string {
	if c == CategoryCourier {
		return "Courier"
	}
	return "Office"
}

// Office is one of the fixed regional locations ("delegaciones").
type Office string

// Offices is the fixed set of regional locations, the top-level data partition.
var Offices = []Office{"Granollers", "Sabadell", "Zona FRANCA", "Manresa", "Girona", "Vilafranca"}

// ValidOffice reports whether the office belongs to the fixed set.
func ValidOffice(o Office) bool {
	for _, known := range Offices {
		if known == o {
			return true
		}
	}
	return false
}

// Status is the record lifecycle flag. Deactivation is a soft delete:
// the row stays stored with the status flipped and a date stamp.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// CourierProfile classifies the employment relation of a courier.
type CourierProfile string

const (
	ProfileSelfEmployed       CourierProfile = "Self-employed"
	ProfileEmployee           CourierProfile = "Employee"
	ProfileInsuredFixed       CourierProfile = "Insured-Fixed"
	ProfileExternalContractor CourierProfile = "External-contractor"
	ProfileOther              CourierProfile = "Other"
)

// LetteringStatus tracks company-vehicle lettering progress.
type LetteringStatus string

const (
	LetteringDone    LetteringStatus = "Yes"
	LetteringNone    LetteringStatus = "No"
	LetteringPending LetteringStatus = "Pending"
)

// Courier is a field-personnel record with route and vehicle attributes.
type Courier struct {
	ID               string          `db:"id" json:"id"`
	FullName         string          `db:"full_name" json:"full_name"`
	Office           Office          `db:"office" json:"office"`
	Route            string          `db:"route" json:"route"`
	ProfileType      CourierProfile  `db:"profile_type" json:"profile_type"`
	CompanyVehicle   string          `db:"company_vehicle" json:"company_vehicle"`
	VehicleLettering LetteringStatus `db:"vehicle_lettering" json:"vehicle_lettering"`
	Notes            string          `db:"notes" json:"notes"`
	MobilePhone      string          `db:"mobile_phone" json:"mobile_phone"`
	DocumentPath     *string         `db:"document_path" json:"document_path,omitempty"`
	VehiclePhotoPath *string         `db:"vehicle_photo_path" json:"vehicle_photo_path,omitempty"`
	Status           Status          `db:"status" json:"status"`
	DeactivatedOn    *time.Time      `db:"deactivated_on" json:"deactivated_on,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OfficeStaff is a desk-personnel record with position and contact attributes.
type OfficeStaff struct {
	ID                string     `db:"id" json:"id"`
	FullName          string     `db:"full_name" json:"full_name"`
	Office            Office     `db:"office" json:"office"`
	Position          string     `db:"position" json:"position"`
	OfficePhone       string     `db:"office_phone" json:"office_phone"`
	MobilePhone       string     `db:"mobile_phone" json:"mobile_phone"`
	Email             string     `db:"email" json:"email"`
	InternalExtension string     `db:"internal_extension" json:"internal_extension"`
	DocumentPath      *string    `db:"document_path" json:"document_path,omitempty"`
	Status            Status     `db:"status" json:"status"`
	DeactivatedOn     *time.Time `db:"deactivated_on" json:"deactivated_on,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// RosterFilter narrows active listings. Office is mandatory for every
// listing; Search matches a name substring case-insensitively.
type RosterFilter struct {
	Office Office
	Search string
}

// DeactivationRecord is one row of the history ("bajas") view.
type DeactivationRecord struct {
	ID            string     `db:"id" json:"id"`
	Category      string     `json:"category"`
	FullName      string     `db:"full_name" json:"full_name"`
	Office        Office     `db:"office" json:"office"`
	DeactivatedOn *time.Time `db:"deactivated_on" json:"deactivated_on"`
}

// AttachmentSlot identifies which stored-file reference on a record to set.
type AttachmentSlot string

const (
	SlotDocument     AttachmentSlot = "document"
	SlotVehiclePhoto AttachmentSlot = "vehicle_photo"
)

// ParseAttachmentSlot maps the URL form onto an AttachmentSlot.
func ParseAttachmentSlot(raw string) (AttachmentSlot, bool) {
	switch raw {
	case string(SlotDocument):
		return SlotDocument, true
	case string(SlotVehiclePhoto), "vehicle-photo":
		return SlotVehiclePhoto, true
	}
	return "", false
}
