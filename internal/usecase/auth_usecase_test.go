package usecase

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/pkg/errors"
)

type fakeRestaurantRepo struct {
	session *entity.Session
	err     error
}

func (r *fakeRestaurantRepo) Login(_ context.Context, email, password string) (*entity.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	s := *r.session
	return &s, nil
}

func (r *fakeRestaurantRepo) Ping(context.Context) error { return nil }

type fakeFirebaseAuth struct {
	uid    string
	claims map[string]interface{}
	err    error
}

func (f *fakeFirebaseAuth) VerifyToken(_ context.Context, token string) (string, error) {
	return token, nil
}

func (f *fakeFirebaseAuth) GenerateToken(_ context.Context, uid string, claims map[string]interface{}) (string, error) {
	f.uid = uid
	f.claims = claims
	return "custom-" + uid, f.err
}

type fakeBoard struct {
	opened []string
	closed []string
}

func (b *fakeBoard) Open(s *entity.Session) error {
	b.opened = append(b.opened, s.RestaurantID)
	return nil
}

func (b *fakeBoard) Close(restaurantID string) {
	b.closed = append(b.closed, restaurantID)
}

func newAuthFixture() (*AuthUseCase, *fakeRestaurantRepo, *fakeFirebaseAuth, *fakeBoard, *memoryTokenRepo) {
	repo := &fakeRestaurantRepo{session: &entity.Session{
		RestaurantID:   "r1",
		RestaurantName: "Riko Arepas",
		Role:           "restaurant",
		BackendToken:   "backend-jwt",
	}}
	fb := &fakeFirebaseAuth{}
	board := &fakeBoard{}
	tokens := newMemoryTokenRepo("r1")
	return NewAuthUseCase(repo, tokens, fb, board, nil), repo, fb, board, tokens
}

func TestAuthUseCase_Login(t *testing.T) {
	uc, _, fb, board, _ := newAuthFixture()

	res, err := uc.Login(context.Background(), "  Caja@Riko.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "custom-r1", res.FirebaseToken)
	assert.Equal(t, "r1", res.Session.RestaurantID)

	assert.Equal(t, "r1", fb.uid)
	assert.Equal(t, "restaurant", fb.claims["rol"])
	assert.Equal(t, "Riko Arepas", fb.claims["restaurantName"])
	assert.Equal(t, []string{"r1"}, board.opened)

	session, err := uc.Session("r1")
	require.NoError(t, err)
	assert.Equal(t, "backend-jwt", session.BackendToken)
}

func TestAuthUseCase_LoginFailures(t *testing.T) {
	uc, repo, fb, board, _ := newAuthFixture()

	_, err := uc.Login(context.Background(), "", "secret")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	repo.err = errors.Unauthorized("Usuario o contraseña incorrectos.", nil)
	_, err = uc.Login(context.Background(), "caja@riko.com", "wrong")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	repo.err = nil
	fb.err = stderrors.New("no credentials")
	_, err = uc.Login(context.Background(), "caja@riko.com", "secret")
	assert.True(t, errors.Is(err, errors.CodeInternal))

	assert.Empty(t, board.opened)
	_, err = uc.Session("r1")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestAuthUseCase_LoginRateLimited(t *testing.T) {
	uc, _, _, _, _ := newAuthFixture()
	uc.rateLimiter = denyLimiter{denied: map[string]bool{"login": true}}

	_, err := uc.Login(context.Background(), "caja@riko.com", "secret")
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestAuthUseCase_SessionExpiry(t *testing.T) {
	uc, repo, _, board, _ := newAuthFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }
	repo.session.ExpiresAt = now.Add(time.Hour)

	_, err := uc.Login(context.Background(), "caja@riko.com", "secret")
	require.NoError(t, err)

	_, err = uc.Session("r1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = uc.Session("r1")
	assert.True(t, errors.Is(err, errors.CodeSessionExpired))
	assert.Equal(t, []string{"r1"}, board.closed)

	_, err = uc.Session("r1")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestAuthUseCase_Logout(t *testing.T) {
	uc, _, _, board, _ := newAuthFixture()
	_, err := uc.Login(context.Background(), "caja@riko.com", "secret")
	require.NoError(t, err)

	uc.Logout("r1")
	assert.Equal(t, []string{"r1"}, board.closed)
	_, err = uc.Session("r1")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestAuthUseCase_Devices(t *testing.T) {
	uc, _, _, _, tokens := newAuthFixture()

	require.NoError(t, uc.RegisterDevice(context.Background(), "r1", " fcm-token ", "Mozilla/5.0"))
	saved, _ := tokens.ListByRestaurant(context.Background(), "r1")
	require.Len(t, saved, 1)
	assert.Equal(t, "fcm-token", saved[0].Token)
	assert.Equal(t, "Mozilla/5.0", saved[0].UserAgent)
	assert.False(t, saved[0].CreatedAt.IsZero())

	err := uc.RegisterDevice(context.Background(), "r1", "  ", "")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	require.NoError(t, uc.UnregisterDevice(context.Background(), "r1", "fcm-token"))
	saved, _ = tokens.ListByRestaurant(context.Background(), "r1")
	assert.Empty(t, saved)
}
