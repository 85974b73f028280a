package service

import (
	"context"

	"go.uber.org/zap"

	"rosterhub/internal/dto"
	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

type sessionRepository interface {
	Load(ctx context.Context, userID string) (models.NavigationState, error)
	Save(ctx context.Context, userID string, state models.NavigationState) error
	Clear(ctx context.Context, userID string) error
}

// SessionService owns the navigation hierarchy office -> category ->
// editing record. All transitions go through it; nothing else writes
// navigation state.
type SessionService struct {
	sessions sessionRepository
	logger   *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions sessionRepository, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, logger: logger}
}

// Current returns the stored navigation state with its resolved view.
func (s *SessionService) Current(ctx context.Context, actor Actor) (*dto.SessionView, error) {
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	return s.view(actor, nav), nil
}

// SelectOffice enters an office. Only Admin and Editor may choose an
// office; Readers are pinned to their assignment. Selecting an office
// clears any category or editing selection beneath it.
func (s *SessionService) SelectOffice(ctx context.Context, actor Actor, office string) (*dto.SessionView, error) {
	if !models.CanSelectOffice(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	o := models.Office(office)
	if !models.ValidOffice(o) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}
	nav := models.NavigationState{Office: &o}
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return s.view(actor, nav), nil
}

// SelectCategory enters a personnel category within the selected office.
func (s *SessionService) SelectCategory(ctx context.Context, actor Actor, category string) (*dto.SessionView, error) {
	if !models.CanSelectOffice(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	cat, ok := models.ParseCategory(category)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown personnel category")
	}
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	if nav.Office == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "select an office first")
	}
	nav.Category = &cat
	nav.Editing = nil
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return s.view(actor, nav), nil
}

// BeginEdit marks a record as being edited. Requires an office and
// category selection and a role allowed to edit.
func (s *SessionService) BeginEdit(ctx context.Context, actor Actor, recordID string) (*dto.SessionView, error) {
	if !models.Can(actor.Role, models.ActionEdit) {
		return nil, appErrors.ErrForbidden
	}
	if recordID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record id is required")
	}
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	if nav.Office == nil || nav.Category == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "select an office and category first")
	}
	nav.Editing = &recordID
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return s.view(actor, nav), nil
}

// SaveEdit runs the pending edit's save and, only when it succeeds,
// clears the edit selection. A failed save keeps the session in the
// edit form so the caller can retry. Saves against a record other than
// the one being edited leave the navigation state alone.
func (s *SessionService) SaveEdit(ctx context.Context, actor Actor, recordID string, save func(context.Context) error) error {
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	if err := save(ctx); err != nil {
		return err
	}
	if nav.Editing == nil || *nav.Editing != recordID {
		return nil
	}
	nav.Editing = nil
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return nil
}

// EndEdit cancels the edit form and returns to the listing without
// saving anything.
func (s *SessionService) EndEdit(ctx context.Context, actor Actor) (*dto.SessionView, error) {
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	nav.Editing = nil
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return s.view(actor, nav), nil
}

// GoBack pops one level of the hierarchy. Clearing a level always clears
// everything beneath it; going back from the top is a no-op.
func (s *SessionService) GoBack(ctx context.Context, actor Actor) (*dto.SessionView, error) {
	nav, err := s.sessions.Load(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session state")
	}
	switch {
	case nav.Editing != nil:
		nav.Editing = nil
	case nav.Category != nil:
		nav.Category = nil
		nav.Editing = nil
	case nav.Office != nil:
		nav = models.NavigationState{}
	}
	if err := s.sessions.Save(ctx, actor.UserID, nav); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session state")
	}
	return s.view(actor, nav), nil
}

// Clear removes the navigation state entirely. Invoked on logout.
func (s *SessionService) Clear(ctx context.Context, userID string) error {
	if err := s.sessions.Clear(ctx, userID); err != nil {
		s.logger.Warn("failed to clear session state", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *SessionService) view(actor Actor, nav models.NavigationState) *dto.SessionView {
	return &dto.SessionView{
		Navigation: nav,
		View:       SelectView(actor.Role, actor.Office, nav),
		Actions:    models.AllowedActions(actor.Role),
	}
}
