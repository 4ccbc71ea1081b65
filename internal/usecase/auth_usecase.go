package usecase

import (
	"context"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
)

// AuthUseCase owns the signed-in identity: it stores the token, publishes the
// identity to the store and runs notification ingest while signed in.
type AuthUseCase struct {
	userRepo      repository.UserRepository
	tokens        TokenHolder
	store         *Store
	notifications *NotificationIngest
	publisher     Publisher
	log           *logger.Component

	onLogout []func()
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	tokens TokenHolder,
	store *Store,
	notifications *NotificationIngest,
	publisher Publisher,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:      userRepo,
		tokens:        tokens,
		store:         store,
		notifications: notifications,
		publisher:     orNopPublisher(publisher),
		log:           logger.With("auth"),
	}
}

// OnLogout registers fn to run during Logout, before the store is reset.
func (uc *AuthUseCase) OnLogout(fn func()) {
	uc.onLogout = append(uc.onLogout, fn)
}

// Login stores token and confirms it with the backend. The backend's answer
// wins over the locally decoded identity; a token the backend rejects is
// discarded. A backend that cannot be reached keeps the local identity.
func (uc *AuthUseCase) Login(ctx context.Context, token string) (entity.Session, error) {
	session, err := uc.tokens.Set(token)
	if err != nil {
		return entity.Session{}, err
	}

	confirmed, err := uc.userRepo.WhoAmI(ctx)
	switch {
	case err != nil:
		uc.log.Warn("identity check failed, using token claims: %v", err)
	case !confirmed.Resolved():
		uc.tokens.Clear()
		return entity.Session{}, errors.Unauthorized("token was rejected", nil)
	default:
		session = confirmed
	}

	uc.signIn(ctx, session)
	uc.log.Info("signed in as %s", session.UserID)
	return session, nil
}

// Restore picks up a token stored by an earlier run. No stored token is not an
// error.
func (uc *AuthUseCase) Restore(ctx context.Context) (entity.Session, error) {
	session, err := uc.tokens.Restore()
	if err != nil {
		uc.log.Warn("stored token discarded: %v", err)
		return entity.Session{}, nil
	}
	if session.Resolved() {
		uc.signIn(ctx, session)
		uc.log.Info("restored session for %s", session.UserID)
	}
	return session, nil
}

func (uc *AuthUseCase) signIn(ctx context.Context, session entity.Session) {
	uc.store.SetSession(session)
	uc.publisher.Publish(TopicSession, session)

	if uc.notifications != nil {
		uc.notifications.Stop()
		if err := uc.notifications.Start(ctx, session); err != nil {
			uc.log.Error("notification ingest not started: %v", err)
		}
	}
}

// Logout stops notifications, runs the logout hooks, forgets the token and
// resets the store.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	if uc.notifications != nil {
		uc.notifications.Stop()
	}
	for _, fn := range uc.onLogout {
		fn()
	}

	err := uc.tokens.Clear()
	uc.store.Reset()
	uc.publisher.Publish(TopicSession, entity.Session{})
	uc.log.Info("signed out")
	return err
}

func (uc *AuthUseCase) Current() entity.Session {
	return uc.store.Session()
}
