package dto

// DashboardSummary is the admin overview of active personnel.
type DashboardSummary struct {
	TotalCouriers     int              `json:"total_couriers"`
	TotalOfficeStaff  int              `json:"total_office_staff"`
	TotalPersonnel    int              `json:"total_personnel"`
	HeadcountByOffice map[string]int   `json:"headcount_by_office"`
	CourierProfiles   map[string]int   `json:"courier_profiles"`
	VehicleLettering  VehicleLettering `json:"vehicle_lettering"`
}

// VehicleLettering summarises company-vehicle lettering progress.
type VehicleLettering struct {
	Lettered         int            `json:"lettered"`
	Unlettered       int            `json:"unlettered"`
	Pending          int            `json:"pending"`
	LetteredByOffice map[string]int `json:"lettered_by_office"`
}
