package service

import "rosterhub/internal/models"

// SelectView resolves the single screen a session should see. It is a
// pure function of role, office assignment, and navigation state; it
// never mutates the state it reads.
func SelectView(role models.UserRole, office *models.Office, nav models.NavigationState) models.View {
	switch role {
	case models.RoleReader:
		if office == nil {
			return models.ViewAccessDenied
		}
		return models.ViewReadOnlyListing
	case models.RoleAdmin, models.RoleEditor:
		switch {
		case nav.Office == nil:
			return models.ViewOfficePicker
		case nav.Category == nil:
			return models.ViewCategoryPicker
		case nav.Editing != nil:
			return models.ViewEditForm
		default:
			return models.ViewManagedListing
		}
	default:
		return models.ViewAccessDenied
	}
}
