package dto

import "rosterhub/internal/models"

// SessionView is the resolved state of a session: the navigation
// selections plus the single view the selector chose for them.
type SessionView struct {
	Navigation models.NavigationState `json:"navigation"`
	View       models.View            `json:"view"`
	Actions    []models.Action        `json:"actions"`
}
