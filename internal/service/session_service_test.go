package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

type mockSessionRepo struct {
	states  map[string]models.NavigationState
	cleared []string
}

func (m *mockSessionRepo) Load(ctx context.Context, userID string) (models.NavigationState, error) {
	return m.states[userID], nil
}

func (m *mockSessionRepo) Save(ctx context.Context, userID string, state models.NavigationState) error {
	if m.states == nil {
		m.states = make(map[string]models.NavigationState)
	}
	m.states[userID] = state
	return nil
}

func (m *mockSessionRepo) Clear(ctx context.Context, userID string) error {
	delete(m.states, userID)
	m.cleared = append(m.cleared, userID)
	return nil
}

func TestSessionServiceSelectOfficeClearsDescendants(t *testing.T) {
	category := models.CategoryCourier
	editing := "c1"
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona"), Category: &category, Editing: &editing},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	view, err := svc.SelectOffice(context.Background(), admin, "Sabadell")
	require.NoError(t, err)
	require.NotNil(t, view.Navigation.Office)
	assert.Equal(t, models.Office("Sabadell"), *view.Navigation.Office)
	assert.Nil(t, view.Navigation.Category)
	assert.Nil(t, view.Navigation.Editing)
	assert.Equal(t, models.ViewCategoryPicker, view.View)
}

func TestSessionServiceSelectOfficeForbiddenForReader(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, zap.NewNop())
	reader := Actor{UserID: "u1", Role: models.RoleReader, Office: officePtr("Girona")}

	_, err := svc.SelectOffice(context.Background(), reader, "Sabadell")
	require.Error(t, err)
}

func TestSessionServiceSelectCategoryRequiresOffice(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	_, err := svc.SelectCategory(context.Background(), admin, "couriers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select an office first")
}

func TestSessionServiceBeginEditRequiresCategory(t *testing.T) {
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona")},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	_, err := svc.BeginEdit(context.Background(), admin, "c1")
	require.Error(t, err)
}

func TestSessionServiceFullDescent(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := NewSessionService(repo, zap.NewNop())
	editor := Actor{UserID: "u1", Role: models.RoleEditor}
	ctx := context.Background()

	view, err := svc.SelectOffice(ctx, editor, "Granollers")
	require.NoError(t, err)
	assert.Equal(t, models.ViewCategoryPicker, view.View)

	view, err = svc.SelectCategory(ctx, editor, "couriers")
	require.NoError(t, err)
	assert.Equal(t, models.ViewManagedListing, view.View)

	view, err = svc.BeginEdit(ctx, editor, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ViewEditForm, view.View)
	assert.Equal(t, 3, view.Navigation.Depth())

	view, err = svc.EndEdit(ctx, editor)
	require.NoError(t, err)
	assert.Equal(t, models.ViewManagedListing, view.View)
}

func TestSessionServiceGoBackCascades(t *testing.T) {
	category := models.CategoryOfficeStaff
	editing := "s1"
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Manresa"), Category: &category, Editing: &editing},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}
	ctx := context.Background()

	view, err := svc.GoBack(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Navigation.Depth())

	view, err = svc.GoBack(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Navigation.Depth())

	view, err = svc.GoBack(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Navigation.Depth())

	// Going back from the top stays at the top.
	view, err = svc.GoBack(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Navigation.Depth())
	assert.Equal(t, models.ViewOfficePicker, view.View)
}

func TestSessionServiceSaveEditClearsOnSuccess(t *testing.T) {
	category := models.CategoryCourier
	editing := "c1"
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona"), Category: &category, Editing: &editing},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	saved := false
	err := svc.SaveEdit(context.Background(), admin, "c1", func(context.Context) error {
		saved = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Nil(t, repo.states["u1"].Editing)
	// The levels above the edit form survive.
	require.NotNil(t, repo.states["u1"].Office)
	require.NotNil(t, repo.states["u1"].Category)
}

func TestSessionServiceSaveEditKeepsSelectionOnFailure(t *testing.T) {
	category := models.CategoryCourier
	editing := "c1"
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona"), Category: &category, Editing: &editing},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	saveErr := appErrors.Clone(appErrors.ErrValidation, "bad payload")
	err := svc.SaveEdit(context.Background(), admin, "c1", func(context.Context) error {
		return saveErr
	})
	require.ErrorIs(t, err, saveErr)
	require.NotNil(t, repo.states["u1"].Editing)
	assert.Equal(t, "c1", *repo.states["u1"].Editing)
}

func TestSessionServiceSaveEditIgnoresUntrackedRecord(t *testing.T) {
	category := models.CategoryCourier
	editing := "c1"
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona"), Category: &category, Editing: &editing},
	}}
	svc := NewSessionService(repo, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	err := svc.SaveEdit(context.Background(), admin, "c2", func(context.Context) error { return nil })
	require.NoError(t, err)
	require.NotNil(t, repo.states["u1"].Editing)
	assert.Equal(t, "c1", *repo.states["u1"].Editing)
}

func TestSessionServiceClear(t *testing.T) {
	repo := &mockSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: officePtr("Girona")},
	}}
	svc := NewSessionService(repo, zap.NewNop())

	require.NoError(t, svc.Clear(context.Background(), "u1"))
	assert.Contains(t, repo.cleared, "u1")
	assert.Empty(t, repo.states["u1"])
}
