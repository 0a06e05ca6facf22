package profiles

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	items      map[string]Profile
	failCreate bool
}

func (r *testRepo) Create(_ context.Context, p Profile) error {
	if r.failCreate {
		return errors.New("insert failed")
	}
	r.items[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Profile, error) {
	p, ok := r.items[id]
	if !ok {
		return Profile{}, domainerr.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) Update(_ context.Context, p Profile) error {
	if _, ok := r.items[p.ID]; !ok {
		return domainerr.ErrNotFound
	}
	r.items[p.ID] = p
	return nil
}

type testIdentity struct {
	signUpErr  error
	signInErr  error
	signOutErr error
	lastMeta   map[string]any
	signedOut  []string
}

func (i *testIdentity) SignUp(_ context.Context, email, _ string, meta map[string]any) (auth.Session, error) {
	i.lastMeta = meta
	if i.signUpErr != nil {
		return auth.Session{}, i.signUpErr
	}
	return auth.Session{
		AccessToken: "tok",
		ExpiresIn:   3600,
		User:        auth.User{ID: "user-1", Email: email},
	}, nil
}

func (i *testIdentity) SignIn(_ context.Context, email, _ string) (auth.Session, error) {
	if i.signInErr != nil {
		return auth.Session{}, i.signInErr
	}
	return auth.Session{AccessToken: "tok", User: auth.User{ID: "user-1", Email: email}}, nil
}

func (i *testIdentity) SignOut(_ context.Context, token string) error {
	i.signedOut = append(i.signedOut, token)
	return i.signOutErr
}

func newTestService() (*Service, *testRepo, *testIdentity) {
	repo := &testRepo{items: map[string]Profile{}}
	id := &testIdentity{}
	svc := NewService(repo, id)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	return svc, repo, id
}

func TestService_Register_CreatesProfile(t *testing.T) {
	svc, repo, id := newTestService()
	name := " Ana Gómez "

	acc, err := svc.Register(context.Background(), RegisterInput{Email: "Ana@Example.com", Password: "secret1", FullName: &name})
	require.NoError(t, err)

	assert.Equal(t, "tok", acc.Session.AccessToken)
	assert.Equal(t, "ana@example.com", acc.Session.User.Email)
	require.NotNil(t, acc.Profile)
	assert.Equal(t, "Ana Gómez", *acc.Profile.FullName)
	assert.Equal(t, "Ana Gómez", id.lastMeta["nombre_completo"])
	assert.Contains(t, repo.items, "user-1")
}

func TestService_Register_Rejected(t *testing.T) {
	svc, repo, id := newTestService()
	id.signUpErr = &auth.RejectedError{Reason: "User already registered"}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))
	assert.Equal(t, "User already registered", domainerr.DetailOf(err))
	assert.Empty(t, repo.items)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "secret1"})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "123"})
	assert.True(t, errors.Is(err, domainerr.ErrValidation))
}

func TestService_Register_ProfileFailureDoesNotFail(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.failCreate = true

	acc, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Nil(t, acc.Profile)
}

func TestService_Login(t *testing.T) {
	svc, repo, id := newTestService()
	repo.items["user-1"] = Profile{ID: "user-1"}

	acc, err := svc.Login(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	require.NotNil(t, acc.Profile)
	assert.Equal(t, "user-1", acc.Profile.ID)

	id.signInErr = auth.ErrInvalidCredentials
	_, err = svc.Login(context.Background(), "a@b.co", "wrong")
	assert.True(t, errors.Is(err, domainerr.ErrUnauthorized))

	id.signInErr = errors.New("gotrue down")
	_, err = svc.Login(context.Background(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httpx.StatusOf(err))
}

func TestService_Logout_SwallowsErrors(t *testing.T) {
	svc, _, id := newTestService()
	id.signOutErr = errors.New("boom")

	svc.Logout(context.Background(), "tok")
	svc.Logout(context.Background(), "")
	assert.Equal(t, []string{"tok"}, id.signedOut)
}

func TestService_UpdateAndSetImage(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "user-1", Patch{})
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))

	repo.items["user-1"] = Profile{ID: "user-1"}

	name := "Luis"
	p, err := svc.Update(ctx, "user-1", Patch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Luis", *p.FullName)
	assert.Nil(t, p.ImageURL)

	p, err = svc.SetImageURL(ctx, "user-1", "https://cdn.example/img.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", *p.ImageURL)
	assert.Equal(t, "Luis", *p.FullName)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), p.UpdatedAt)
}
