package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bovine-monitoring/internal/ports/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = time.Hour

type account struct {
	user     auth.User
	hash     []byte
	metadata map[string]any
}

type session struct {
	userID    string
	expiresAt time.Time
}

// IdentityProvider guarda usuarios y sesiones en memoria (dev/tests).
// Implementa auth.IdentityProvider y auth.AuthVerifier.
type IdentityProvider struct {
	mu       sync.RWMutex
	byEmail  map[string]*account
	byID     map[string]*account
	sessions map[string]session

	now  func() time.Time
	cost int
}

func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		sessions: make(map[string]session),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

func (p *IdentityProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (auth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return auth.Session{}, &auth.RejectedError{Reason: "email and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return auth.Session{}, &auth.RejectedError{Reason: err.Error()}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return auth.Session{}, &auth.RejectedError{Reason: "User already registered"}
	}

	acc := &account{
		user: auth.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: p.now().UTC(),
		},
		hash:     hash,
		metadata: metadata,
	}
	p.byEmail[email] = acc
	p.byID[acc.user.ID] = acc

	return p.issue(acc.user), nil
}

func (p *IdentityProvider) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	acc, ok := p.byEmail[email]
	p.mu.RUnlock()
	if !ok {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return auth.Session{}, auth.ErrInvalidCredentials
		}
		return auth.Session{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issue(acc.user), nil
}

func (p *IdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sessions[accessToken]; !ok {
		return auth.ErrInvalidToken
	}
	delete(p.sessions, accessToken)
	return nil
}

func (p *IdentityProvider) Verify(ctx context.Context, token string) (auth.Claims, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[strings.TrimSpace(token)]
	if !ok || !p.now().Before(s.expiresAt) {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	acc, ok := p.byID[s.userID]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return auth.Claims{
		UserID: acc.user.ID,
		Email:  acc.user.Email,
		Role:   "authenticated",
	}, nil
}

// Se llama con el lock de escritura tomado.
func (p *IdentityProvider) issue(u auth.User) auth.Session {
	token := uuid.NewString()
	p.sessions[token] = session{userID: u.ID, expiresAt: p.now().Add(sessionTTL)}

	return auth.Session{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    int(sessionTTL.Seconds()),
		User:         u,
	}
}
