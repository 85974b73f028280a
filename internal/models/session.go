package models

// NavigationState is the per-session selection hierarchy:
// office -> personnel category -> optional editing record. Each field is
// meaningful only when its parent is set, and clearing a parent clears
// all descendants. Only the session service mutates it.
type NavigationState struct {
	Office   *Office   `json:"office,omitempty"`
	Category *Category `json:"category,omitempty"`
	Editing  *string   `json:"editing,omitempty"`
}

// Depth returns how far down the hierarchy the session has navigated.
func (n NavigationState) Depth() int {
	switch {
	case n.Editing != nil:
		return 3
	case n.Category != nil:
		return 2
	case n.Office != nil:
		return 1
	default:
		return 0
	}
}

// View is the single screen the view selector resolves for a session.
type View string

const (
	ViewLogin           View = "login"
	ViewAccessDenied    View = "access_denied"
	ViewReadOnlyListing View = "readonly_listing"
	ViewOfficePicker    View = "office_picker"
	ViewCategoryPicker  View = "category_picker"
	ViewManagedListing  View = "managed_listing"
	ViewEditForm        View = "edit_form"
)
