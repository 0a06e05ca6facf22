package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials: email/password incorrectos en login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken: token ausente, vencido o desconocido.
	ErrInvalidToken = errors.New("invalid token")
)

// RejectedError indica que el proveedor rechazó la operación (p.ej. email ya registrado).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "identity provider rejected request: " + e.Reason }

// IdentityProvider delega registro y sesiones al proveedor externo.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
}
