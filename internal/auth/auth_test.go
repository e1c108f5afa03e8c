package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"bitwise74/web-starter/db"
	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeMailer struct {
	to   string
	link string
	sent int
}

func (f *fakeMailer) SendVerificationMail(_ context.Context, to, link string) error {
	f.to, f.link = to, link
	f.sent++
	return nil
}

// blockingMailer holds every send until release is closed
type blockingMailer struct {
	started chan struct{}
	release chan struct{}
	sent    int
}

func (b *blockingMailer) SendVerificationMail(ctx context.Context, _, _ string) error {
	close(b.started)

	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.sent++
	return nil
}

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	name := gonanoid.Must(12)
	conn, err := db.New("sqlite", "file:"+name+"?mode=memory&cache=shared", false)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	c := &clock{t: time.Now().UTC().Truncate(time.Second)}
	opts.Now = c.Now
	if opts.UpdateAge == 0 {
		opts.UpdateAge = DefaultUpdateAge
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}

	argon := &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	return &fixture{
		svc:   New(conn, argon, opts),
		db:    conn,
		clock: c,
	}
}

func (f *fixture) signUp(t *testing.T, email string) *SessionWithUser {
	t.Helper()

	sw, err := f.svc.SignUpEmail(context.Background(), SignUpInput{
		Name:     "Demo User",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	f.svc.Wait()

	return sw
}

func TestSignUpThenSignIn(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	up, err := f.svc.SignUpEmail(ctx, SignUpInput{
		Name:      "  Demo User ",
		Email:     "Demo@Example.com",
		Password:  "password123",
		IPAddress: "127.0.0.1",
		UserAgent: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo User", up.User.Name)
	assert.Equal(t, "demo@example.com", up.User.Email)
	assert.False(t, up.User.EmailVerified)
	assert.Equal(t, "127.0.0.1", up.Session.IPAddress)
	assert.Equal(t, f.clock.Now().Add(DefaultExpiresIn), up.Session.ExpiresAt)

	var account model.Account
	require.NoError(t, f.db.Where("user_id = ?", up.User.ID).First(&account).Error)
	assert.Equal(t, model.ProviderCredential, account.ProviderID)
	require.NotNil(t, account.Password)
	assert.NotEqual(t, "password123", *account.Password)

	in, err := f.svc.SignInEmail(ctx, SignInInput{Email: "demo@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, up.User.ID, in.User.ID)
	assert.NotEqual(t, up.Session.Token, in.Session.Token)

	got, err := f.svc.GetSession(ctx, in.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, up.User.ID, got.User.ID)
	assert.False(t, got.Refreshed)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t, Options{})
	f.signUp(t, "demo@example.com")

	_, err := f.svc.SignUpEmail(context.Background(), SignUpInput{
		Name:     "Someone Else",
		Email:    "DEMO@example.com",
		Password: "password456",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Equal(t, "User already exists", err.Error())
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name string
		in   SignUpInput
		err  error
	}{
		{"no name", SignUpInput{Email: "a@b.co", Password: "password123"}, ErrInvalidName},
		{"bad email", SignUpInput{Name: "A", Email: "nope", Password: "password123"}, ErrInvalidEmail},
		{"short password", SignUpInput{Name: "A", Email: "a@b.co", Password: "short"}, ErrPasswordTooShort},
		{"long password", SignUpInput{Name: "A", Email: "a@b.co", Password: strings.Repeat("x", 129)}, ErrPasswordTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SignUpEmail(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSignInFailuresLookAlike(t *testing.T) {
	f := newFixture(t, Options{})
	f.signUp(t, "demo@example.com")
	ctx := context.Background()

	_, wrongPassword := f.svc.SignInEmail(ctx, SignInInput{Email: "demo@example.com", Password: "password124"})
	_, unknownEmail := f.svc.SignInEmail(ctx, SignInInput{Email: "ghost@example.com", Password: "password123"})
	_, emptyPassword := f.svc.SignInEmail(ctx, SignInInput{Email: "demo@example.com"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidEmailOrPassword)
	assert.ErrorIs(t, unknownEmail, ErrInvalidEmailOrPassword)
	assert.ErrorIs(t, emptyPassword, ErrInvalidEmailOrPassword)
}

func TestGetSessionUnknownToken(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.GetSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSessionExpired(t *testing.T) {
	f := newFixture(t, Options{})
	sw := f.signUp(t, "demo@example.com")

	f.clock.Advance(DefaultExpiresIn + time.Second)

	_, err := f.svc.GetSession(context.Background(), sw.Session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var count int64
	require.NoError(t, f.db.Model(model.Session{}).Where("token = ?", sw.Session.Token).Count(&count).Error)
	assert.Zero(t, count, "expired session should be deleted on read")
}

func TestGetSessionSlidingExpiry(t *testing.T) {
	f := newFixture(t, Options{})
	sw := f.signUp(t, "demo@example.com")
	ctx := context.Background()

	f.clock.Advance(time.Hour)
	got, err := f.svc.GetSession(ctx, sw.Session.Token)
	require.NoError(t, err)
	assert.False(t, got.Refreshed)
	assert.True(t, sw.Session.ExpiresAt.Equal(got.Session.ExpiresAt))

	f.clock.Advance(2 * DefaultUpdateAge)
	got, err = f.svc.GetSession(ctx, sw.Session.Token)
	require.NoError(t, err)
	assert.True(t, got.Refreshed)
	assert.True(t, f.clock.Now().Add(DefaultExpiresIn).Equal(got.Session.ExpiresAt))

	var stored model.Session
	require.NoError(t, f.db.Where("token = ?", sw.Session.Token).First(&stored).Error)
	assert.True(t, got.Session.ExpiresAt.Equal(stored.ExpiresAt))
}

func TestSignOut(t *testing.T) {
	for name, cache := range map[string]SessionCache{"no cache": nil, "memory cache": NewMemoryCache()} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{Cache: cache})
			sw := f.signUp(t, "demo@example.com")
			ctx := context.Background()

			_, err := f.svc.GetSession(ctx, sw.Session.Token)
			require.NoError(t, err)

			require.NoError(t, f.svc.SignOut(ctx, sw.Session.Token))
			require.NoError(t, f.svc.SignOut(ctx, sw.Session.Token), "signing out twice is fine")

			_, err = f.svc.GetSession(ctx, sw.Session.Token)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestRevokeOtherSessions(t *testing.T) {
	f := newFixture(t, Options{Cache: NewMemoryCache()})
	ctx := context.Background()
	first := f.signUp(t, "demo@example.com")

	second, err := f.svc.SignInEmail(ctx, SignInInput{Email: "demo@example.com", Password: "password123"})
	require.NoError(t, err)

	sessions, err := f.svc.ListSessions(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, f.svc.RevokeOtherSessions(ctx, first.User.ID, second.Session.Token))

	_, err = f.svc.GetSession(ctx, first.Session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.GetSession(ctx, second.Session.Token)
	assert.NoError(t, err)
}

func TestRevokeSessionOfOtherUserIsNoop(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := f.signUp(t, "alice@example.com")
	bob := f.signUp(t, "bob@example.com")

	require.NoError(t, f.svc.RevokeSession(ctx, alice.User.ID, bob.Session.Token))

	_, err := f.svc.GetSession(ctx, bob.Session.Token)
	assert.NoError(t, err)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t, Options{Cache: NewMemoryCache()})
	ctx := context.Background()
	sw := f.signUp(t, "demo@example.com")

	name := "Ada Lovelace"
	image := "https://cdn.example.com/a.png"
	u, err := f.svc.UpdateUser(ctx, sw.User.ID, UpdateUserInput{Name: &name, Image: &image})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	require.NotNil(t, u.Image)
	assert.Equal(t, image, *u.Image)

	got, err := f.svc.GetSession(ctx, sw.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, name, got.User.Name, "cached session should see the new name")

	empty := ""
	u, err = f.svc.UpdateUser(ctx, sw.User.ID, UpdateUserInput{Image: &empty})
	require.NoError(t, err)
	assert.Nil(t, u.Image)

	blank := "  "
	_, err = f.svc.UpdateUser(ctx, sw.User.ID, UpdateUserInput{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = f.svc.UpdateUser(ctx, "missing", UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func verificationToken(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/verify-email", u.Path)

	return u.Query().Get("token")
}

func TestVerifyEmail(t *testing.T) {
	mailer := &fakeMailer{}
	f := newFixture(t, Options{Mailer: mailer})
	ctx := context.Background()
	sw := f.signUp(t, "demo@example.com")

	require.Equal(t, 1, mailer.sent)
	assert.Equal(t, "demo@example.com", mailer.to)
	token := verificationToken(t, mailer.link)

	u, err := f.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, sw.User.ID, u.ID)

	_, err = f.svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, f.svc.SendVerificationEmail(ctx, sw.User.ID), ErrEmailAlreadyVerified)
}

func TestVerifyEmailExpired(t *testing.T) {
	mailer := &fakeMailer{}
	f := newFixture(t, Options{Mailer: mailer})
	f.signUp(t, "demo@example.com")

	f.clock.Advance(DefaultVerificationTTL)

	_, err := f.svc.VerifyEmail(context.Background(), verificationToken(t, mailer.link))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignUpDoesNotWaitForMail(t *testing.T) {
	mailer := &blockingMailer{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, Options{Mailer: mailer})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.SignUpEmail(context.Background(), SignUpInput{
			Name:     "Demo User",
			Email:    "demo@example.com",
			Password: "password123",
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sign up blocked on the mailer")
	}

	<-mailer.started
	close(mailer.release)
	f.svc.Wait()

	assert.Equal(t, 1, mailer.sent)
}

func TestSendVerificationEmailWithoutMailer(t *testing.T) {
	f := newFixture(t, Options{})
	sw := f.signUp(t, "demo@example.com")

	assert.ErrorIs(t, f.svc.SendVerificationEmail(context.Background(), sw.User.ID), ErrMailDisabled)
}

func TestCleanupExpired(t *testing.T) {
	mailer := &fakeMailer{}
	f := newFixture(t, Options{Mailer: mailer})
	f.signUp(t, "alice@example.com")

	f.clock.Advance(DefaultExpiresIn + time.Minute)
	f.signUp(t, "bob@example.com")

	sessions, verifications, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, sessions)
	assert.EqualValues(t, 1, verifications)
}
