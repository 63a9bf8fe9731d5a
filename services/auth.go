package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"placement/metrics"
	"placement/models"
	"placement/storage"
	"placement/utils"
)

type AuthOptions struct {
	// TTL is the lifetime of an issued code. It is also the figure shown
	// in the email.
	TTL time.Duration
	// ExposeCode echoes the issued code back to the caller (development).
	ExposeCode bool
	// SendTimeout bounds the OTP email send. Defaults to 10s.
	SendTimeout time.Duration
	Now         func() time.Time
	Generate    func() (string, error)
}

// AuthService issues and verifies email one-time codes.
type AuthService struct {
	store    storage.Storage
	notifier *Notifier
	locks    *utils.KeyLock

	ttl         time.Duration
	exposeCode  bool
	sendTimeout time.Duration
	now         func() time.Time
	generate    func() (string, error)
}

func NewAuthService(store storage.Storage, notifier *Notifier, opts AuthOptions) *AuthService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Generate == nil {
		opts.Generate = utils.GenerateOTP
	}
	return &AuthService{
		store:      store,
		notifier:   notifier,
		locks:      utils.NewKeyLock(),
		ttl:         opts.TTL,
		exposeCode:  opts.ExposeCode,
		sendTimeout: opts.SendTimeout,
		now:         opts.Now,
		generate:    opts.Generate,
	}
}

type CodeRequest struct {
	Email string
	Name  string
	Role  models.Role
}

type CodeIssued struct {
	Email     string
	ExpiresAt time.Time
	EmailSent bool
	// DevCode is only set when the service exposes codes.
	DevCode string
}

type VerifyRequest struct {
	Email string
	Code  string
	Name  string
	Role  models.Role
}

func validateIdentity(email, name string, role models.Role) FieldErrors {
	errs := FieldErrors{}
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		errs["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(name) == "" {
		errs["name"] = "is required"
	}
	if !role.Valid() {
		errs["role"] = "must be student or admin"
	}
	return errs
}

// RequestCode stores a fresh code for the email and mails it. A failed
// delivery is reported in the result; the code stays usable.
func (s *AuthService) RequestCode(ctx context.Context, req CodeRequest) (*CodeIssued, error) {
	email := models.NormalizeEmail(req.Email)
	if errs := validateIdentity(email, req.Name, req.Role); len(errs) > 0 {
		return nil, errs
	}

	code, err := s.generate()
	if err != nil {
		return nil, upstream(err)
	}
	now := s.now()
	otp := &models.OTP{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateOTP(ctx, otp); err != nil {
		return nil, upstream(err)
	}
	metrics.OTPIssued()
	log.WithFields(log.Fields{"email": email, "expires_at": otp.ExpiresAt}).Info("otp issued")

	issued := &CodeIssued{Email: email, ExpiresAt: otp.ExpiresAt}
	content, err := utils.OTPEmail(strings.TrimSpace(req.Name), code, s.TTLMinutes())
	if err == nil {
		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err = s.notifier.Send(sendCtx, "otp", email, content)
		cancel()
	}
	issued.EmailSent = err == nil
	if err != nil {
		log.WithField("email", email).Warn("Email failed to send, but OTP was stored")
	}
	if s.exposeCode {
		issued.DevCode = code
	}
	return issued, nil
}

// TTLMinutes is the code lifetime rounded up to whole minutes.
func (s *AuthService) TTLMinutes() int {
	return int((s.ttl + time.Minute - 1) / time.Minute)
}

// VerifyCode checks the newest code for the email. A mismatch keeps the
// code for another try; an expired code is deleted. On success the code is
// consumed and the user is created or marked verified.
func (s *AuthService) VerifyCode(ctx context.Context, req VerifyRequest) (*models.User, error) {
	email := models.NormalizeEmail(req.Email)
	errs := validateIdentity(email, req.Name, req.Role)
	if len(req.Code) != 6 {
		errs["code"] = "must be 6 digits"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	unlock := s.locks.Lock(email)
	defer unlock()

	otp, err := s.store.GetLatestOTPByEmail(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	if otp == nil {
		metrics.OTPVerification("no_code")
		return nil, ErrNoCodeIssued
	}
	if otp.Code != req.Code {
		metrics.OTPVerification("mismatch")
		return nil, ErrCodeMismatch
	}
	if otp.Expired(s.now()) {
		metrics.OTPVerification("expired")
		if err := s.store.DeleteOTP(ctx, otp.ID); err != nil {
			return nil, upstream(err)
		}
		return nil, ErrCodeExpired
	}

	if err := s.store.DeleteOTP(ctx, otp.ID); err != nil {
		return nil, upstream(err)
	}

	user, err := s.resolveUser(ctx, email, strings.TrimSpace(req.Name), req.Role)
	if err != nil {
		return nil, err
	}
	metrics.OTPVerification("success")
	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("otp verified")
	return user, nil
}

func (s *AuthService) resolveUser(ctx context.Context, email, name string, role models.Role) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	if user == nil {
		user = &models.User{Email: email, Name: name, Role: role, IsVerified: true}
		err := s.store.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, upstream(err)
		}
		// Another verification for the same address created the user first.
		user, err = s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, upstream(err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	if user.IsVerified {
		return user, nil
	}
	verified := true
	updated, err := s.store.UpdateUser(ctx, user.ID, models.UserUpdate{IsVerified: &verified})
	if err != nil {
		return nil, upstream(err)
	}
	if updated == nil {
		return user, nil
	}
	return updated, nil
}

// CurrentUser loads the user a session points at.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
