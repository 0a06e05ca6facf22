package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/platform/logger"
	"bovine-monitoring/internal/ports/auth"
)

const MinPasswordLength = 6

type Service struct {
	repo     Repository
	identity auth.IdentityProvider
	now      func() time.Time
}

func NewService(repo Repository, identity auth.IdentityProvider) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName *string
}

// Account es una sesión abierta junto al perfil del usuario (nil si no se pudo obtener).
type Account struct {
	Session auth.Session
	Profile *Profile
}

// Patch: nil = no tocar.
type Patch struct {
	FullName *string
	ImageURL *string
}

// Register crea la identidad en el proveedor y luego asegura la fila de perfil.
// Si el perfil falla la cuenta ya existe: se registra el error y se reintenta en el login.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, domainerr.Validation("validation error", domainerr.FieldError{Field: "email", Message: "must be a valid email"})
	}
	if len(in.Password) < MinPasswordLength {
		return Account{}, domainerr.Validation("validation error", domainerr.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}

	fullName := trimmed(in.FullName)
	meta := map[string]any{}
	if fullName != nil {
		meta["nombre_completo"] = *fullName
	}

	sess, err := s.identity.SignUp(ctx, email, in.Password, meta)
	if err != nil {
		var rej *auth.RejectedError
		if errors.As(err, &rej) {
			return Account{}, domainerr.Wrap(domainerr.ErrInvalidInput, rej.Reason, err)
		}
		return Account{}, fmt.Errorf("profiles: sign up: %w", err)
	}

	acc := Account{Session: sess}
	if p, err := s.EnsureProfile(ctx, sess.User.ID, fullName); err != nil {
		logger.FromContext(ctx).Warn("profile not created on register", map[string]any{"user_id": sess.User.ID, "error": err})
	} else {
		acc.Profile = &p
	}
	return acc, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Account{}, domainerr.Unauthorized("invalid email or password")
	}

	sess, err := s.identity.SignIn(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return Account{}, domainerr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return Account{}, fmt.Errorf("profiles: sign in: %w", err)
	}

	acc := Account{Session: sess}
	if p, err := s.EnsureProfile(ctx, sess.User.ID, nil); err != nil {
		logger.FromContext(ctx).Warn("profile not loaded on login", map[string]any{"user_id": sess.User.ID, "error": err})
	} else {
		acc.Profile = &p
	}
	return acc, nil
}

// Logout revoca la sesión en el proveedor; un fallo solo se registra.
func (s *Service) Logout(ctx context.Context, accessToken string) {
	if strings.TrimSpace(accessToken) == "" {
		return
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		logger.FromContext(ctx).Warn("sign out failed", map[string]any{"error": err})
	}
}

// EnsureProfile devuelve el perfil de userID, creándolo si no existe.
func (s *Service) EnsureProfile(ctx context.Context, userID string, fullName *string) (Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return Profile{}, fmt.Errorf("profiles: get: %w", err)
	}

	now := s.now().UTC()
	p = Profile{
		ID:        userID,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("profiles: create: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, domainerr.Unauthorized("not authenticated")
	}

	p, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return Profile{}, domainerr.NotFound("profile not found")
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profiles: get: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, patch Patch) (Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if patch.FullName != nil {
		p.FullName = trimmed(patch.FullName)
	}
	if patch.ImageURL != nil {
		p.ImageURL = trimmed(patch.ImageURL)
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return Profile{}, domainerr.NotFound("profile not found")
		}
		return Profile{}, fmt.Errorf("profiles: update: %w", err)
	}
	return p, nil
}

// SetImageURL actualiza solo la imagen de perfil.
func (s *Service) SetImageURL(ctx context.Context, userID, url string) (Profile, error) {
	return s.Update(ctx, userID, Patch{ImageURL: &url})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
