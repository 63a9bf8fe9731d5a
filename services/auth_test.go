package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/models"
	"placement/storage"
	"placement/utils"
)

type authFixture struct {
	svc    *AuthService
	store  *storage.MemoryStorage
	mailer *recordingMailer
	clock  *fakeClock
}

func newAuthFixture(opts AuthOptions) *authFixture {
	f := &authFixture{
		store:  storage.NewMemoryStorage(),
		mailer: &recordingMailer{},
		clock:  newClock(),
	}
	if opts.Now == nil {
		opts.Now = f.clock.Now
	}
	f.svc = NewAuthService(f.store, NewNotifier(f.mailer), opts)
	return f
}

func ada(code string) VerifyRequest {
	return VerifyRequest{Email: "a@b.com", Code: code, Name: "Ada", Role: models.RoleStudent}
}

func TestRequestThenVerify(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("042017")})
	ctx := context.Background()

	issued, err := f.svc.RequestCode(ctx, CodeRequest{Email: " A@B.com ", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, issued.EmailSent)
	assert.Empty(t, issued.DevCode)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), issued.ExpiresAt)

	sent := f.mailer.SentTo("a@b.com")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTML, "042017")
	assert.Contains(t, sent[0].HTML, "expire in 5 minutes")

	user, err := f.svc.VerifyCode(ctx, ada("042017"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsVerified)

	stored, err := f.store.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsVerified)
}

func TestVerifyWithoutCode(t *testing.T) {
	f := newAuthFixture(AuthOptions{})

	_, err := f.svc.VerifyCode(context.Background(), ada("123456"))
	assert.ErrorIs(t, err, ErrNoCodeIssued)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCodeIsSingleUse(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456")})
	ctx := context.Background()

	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	require.NoError(t, err)

	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.ErrorIs(t, err, ErrNoCodeIssued)
}

func TestMismatchKeepsCode(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456")})
	ctx := context.Background()

	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = f.svc.VerifyCode(ctx, ada("654321"))
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.NoError(t, err)
}

func TestExpiredCodeIsDeleted(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456")})
	ctx := context.Background()

	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)

	f.clock.Advance(5*time.Minute + time.Second)
	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.ErrorIs(t, err, ErrCodeExpired)

	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.ErrorIs(t, err, ErrNoCodeIssued)

	otp, err := f.store.GetLatestOTPByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, otp)
}

func TestCodeValidUntilExpiry(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456"), TTL: 10 * time.Minute})
	ctx := context.Background()

	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Contains(t, f.mailer.Sent()[0].HTML, "expire in 10 minutes")

	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.NoError(t, err)
}

func TestOnlyNewestCodeCounts(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("111111", "222222")})
	ctx := context.Background()
	req := CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent}

	_, err := f.svc.RequestCode(ctx, req)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.svc.RequestCode(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.VerifyCode(ctx, ada("111111"))
	assert.ErrorIs(t, err, ErrCodeMismatch)

	_, err = f.svc.VerifyCode(ctx, ada("222222"))
	assert.NoError(t, err)
}

func TestEmailFailureStillIssuesCode(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456"), ExposeCode: true})
	f.mailer.fail = true
	ctx := context.Background()

	issued, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.False(t, issued.EmailSent)
	assert.Equal(t, "123456", issued.DevCode)

	_, err = f.svc.VerifyCode(ctx, ada("123456"))
	assert.NoError(t, err)
}

func TestExistingUserKeepsNameAndRole(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456")})
	ctx := context.Background()
	existing := &models.User{Email: "a@b.com", Name: "Ada", Role: models.RoleAdmin}
	require.NoError(t, f.store.CreateUser(ctx, existing))

	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Mallory", Role: models.RoleStudent})
	require.NoError(t, err)

	user, err := f.svc.VerifyCode(ctx, VerifyRequest{Email: "a@b.com", Code: "123456", Name: "Mallory", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsVerified)
}

func TestRequestCodeRejectsBadInput(t *testing.T) {
	f := newAuthFixture(AuthOptions{})
	ctx := context.Background()

	cases := map[string]CodeRequest{
		"bad email": {Email: "not-an-email", Name: "Ada", Role: models.RoleStudent},
		"no name":   {Email: "a@b.com", Name: "  ", Role: models.RoleStudent},
		"bad role":  {Email: "a@b.com", Name: "Ada", Role: "teacher"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RequestCode(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
			var fields FieldErrors
			assert.True(t, errors.As(err, &fields))
		})
	}

	otp, err := f.store.GetLatestOTPByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, otp, "nothing is stored for invalid input")
	assert.Empty(t, f.mailer.Sent())
}

func TestConcurrentVerifyConsumesOnce(t *testing.T) {
	f := newAuthFixture(AuthOptions{Generate: codes("123456")})
	ctx := context.Background()
	_, err := f.svc.RequestCode(ctx, CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	require.NoError(t, err)

	var successes int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.VerifyCode(ctx, ada("123456")); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes)
}

func TestStorageFailureIsUpstream(t *testing.T) {
	svc := NewAuthService(brokenStorage{Storage: storage.NewMemoryStorage()}, NewNotifier(&recordingMailer{}), AuthOptions{})
	_, err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestCurrentUser(t *testing.T) {
	f := newAuthFixture(AuthOptions{})
	u := mustUser(f.store, "a@b.com", "Ada", models.RoleStudent)

	got, err := f.svc.CurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.CurrentUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

type stalledMailer struct{}

func (stalledMailer) Send(ctx context.Context, _ utils.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledMailDoesNotBlockRequestCode(t *testing.T) {
	svc := NewAuthService(storage.NewMemoryStorage(), NewNotifier(stalledMailer{}), AuthOptions{
		Generate:    codes("123456"),
		SendTimeout: 50 * time.Millisecond,
	})

	done := make(chan *CodeIssued, 1)
	go func() {
		issued, err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com", Name: "Ada", Role: models.RoleStudent})
		assert.NoError(t, err)
		done <- issued
	}()

	select {
	case issued := <-done:
		require.NotNil(t, issued)
		assert.False(t, issued.EmailSent)
	case <-time.After(2 * time.Second):
		t.Fatal("RequestCode did not return after the send timeout")
	}
}
