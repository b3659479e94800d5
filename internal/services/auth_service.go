package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/cache"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/internal/sms"
	"metalhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Trial flags outlive any realistic device reuse window.
const trialFlagTTL = 365 * 24 * time.Hour

type AuthOptions struct {
	BcryptCost         int
	MaxLoginAttempts   int
	LoginAttemptWindow time.Duration
	OTPExpiry          time.Duration
	TrialDays          int
	Production         bool
}

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest, client dto.ClientInfo) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest, client dto.ClientInfo) (*dto.AuthResponse, error)
	SendWhatsAppOTP(ctx context.Context, db *gorm.DB, req *dto.WhatsAppOTPRequest) error
	VerifyOTP(ctx context.Context, db *gorm.DB, req *dto.VerifyOTPRequest, client dto.ClientInfo) (*dto.AuthResponse, error)
	// Logout revokes token for the rest of its lifetime.
	Logout(ctx context.Context, token string, claims *auth.Claims) error
	// ValidateSession rejects revoked tokens and users that are no longer active.
	ValidateSession(ctx context.Context, db *gorm.DB, token string, claims *auth.Claims) (*models.User, error)
}

type AuthServiceImpl struct {
	userRepo          repositories.UserRepository
	profileRepo       repositories.ProfileRepository
	activityRepo      repositories.LoginActivityRepository
	membershipService MembershipService
	store             *cache.Store
	tokens            *auth.TokenManager
	sender            sms.Sender
	opts              AuthOptions
	now               func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	activityRepo repositories.LoginActivityRepository,
	membershipService MembershipService,
	store *cache.Store,
	tokens *auth.TokenManager,
	sender sms.Sender,
	opts AuthOptions,
) AuthService {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = 5
	}
	if opts.LoginAttemptWindow <= 0 {
		opts.LoginAttemptWindow = 15 * time.Minute
	}
	if opts.OTPExpiry <= 0 {
		opts.OTPExpiry = 10 * time.Minute
	}
	if opts.TrialDays <= 0 {
		opts.TrialDays = 7
	}
	return &AuthServiceImpl{
		userRepo:          userRepo,
		profileRepo:       profileRepo,
		activityRepo:      activityRepo,
		membershipService: membershipService,
		store:             store,
		tokens:            tokens,
		sender:            sender,
		opts:              opts,
		now:               time.Now,
	}
}

// ==========================
// Registration
// ==========================

func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest, client dto.ClientInfo) (*dto.AuthResponse, error) {
	if req.Email == "" && req.Phone == "" {
		return nil, apperrors.ErrIdentityRequired
	}
	if req.Email != "" && req.Password == "" {
		return nil, apperrors.ErrPasswordRequiredForEmail
	}

	db = db.WithContext(ctx)
	if err := s.ensureIdentityFree(db, req.Email, req.Phone); err != nil {
		return nil, err
	}

	user := &models.User{
		Role:   req.Role,
		Status: models.UserStatusActive,
		// A channel that was never supplied counts as verified.
		EmailVerified: req.Email == "",
		PhoneVerified: req.Phone == "",
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.PasswordHash = &hash
	}

	trial := s.trialAvailable(ctx, client.DeviceFingerprint)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.userRepo.Create(tx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.identityConflict(db, req.Email, req.Phone)
		}
		return nil, apperrors.DatabaseError(err)
	}
	profile := &models.Profile{UserID: user.ID, FullName: req.FullName}
	if err := s.profileRepo.Create(tx, profile); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	var endDate *time.Time
	if trial {
		end := s.now().AddDate(0, 0, s.opts.TrialDays)
		endDate = &end
	}
	if _, err := s.membershipService.StartMembership(ctx, tx, user.ID, models.PlanFree, endDate); err != nil {
		return nil, err
	}
	if err := s.recordActivity(tx, user.ID, client, true); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if trial {
		if err := s.store.MarkTrialUsed(ctx, client.DeviceFingerprint, trialFlagTTL); err != nil {
			logger.CtxWithError(ctx, "failed to mark trial used", err)
		}
	}

	user.Profile = profile
	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "role", user.Role, "trial", trial)
	return s.issue(user)
}

func (s *AuthServiceImpl) ensureIdentityFree(db *gorm.DB, email, phone string) error {
	if email != "" {
		_, err := s.userRepo.FindByEmail(db, email)
		if err == nil {
			return apperrors.ErrEmailAlreadyExists
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.DatabaseError(err)
		}
	}
	if phone != "" {
		_, err := s.userRepo.FindByPhone(db, phone)
		if err == nil {
			return apperrors.ErrPhoneAlreadyExists
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.DatabaseError(err)
		}
	}
	return nil
}

// identityConflict names the identity a concurrent registration claimed
// between the pre-check and the insert.
func (s *AuthServiceImpl) identityConflict(db *gorm.DB, email, phone string) error {
	err := s.ensureIdentityFree(db, email, phone)
	if errors.Is(err, apperrors.ErrEmailAlreadyExists) || errors.Is(err, apperrors.ErrPhoneAlreadyExists) {
		return err
	}
	if email != "" {
		return apperrors.ErrEmailAlreadyExists
	}
	return apperrors.ErrPhoneAlreadyExists
}

// trialAvailable reports whether fingerprint may still start a trial. Cache
// failures withhold the trial.
func (s *AuthServiceImpl) trialAvailable(ctx context.Context, fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	used, err := s.store.TrialUsed(ctx, fingerprint)
	if err != nil {
		logger.CtxWithError(ctx, "trial lookup failed", err)
		return false
	}
	return !used
}

// ==========================
// Password login
// ==========================

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest, client dto.ClientInfo) (*dto.AuthResponse, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("password", "false").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}
	if user.PasswordHash == nil {
		metrics.LoginsTotal.WithLabelValues("password", "false").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, apperrors.ErrAccountInactive
	}

	attempts, err := s.store.LoginAttempts(ctx, client.IPAddress)
	if err != nil {
		return nil, apperrors.NewUnavailableError("auth", "Login temporarily unavailable", err)
	}
	if attempts >= s.opts.MaxLoginAttempts {
		return nil, apperrors.ErrTooManyLoginAttempts
	}

	if !auth.CheckPasswordHash(req.Password, *user.PasswordHash) {
		if _, err := s.store.RecordFailedLogin(ctx, client.IPAddress, s.opts.LoginAttemptWindow); err != nil {
			logger.CtxWithError(ctx, "failed to count login attempt", err)
		}
		if err := s.recordActivity(db, user.ID, client, false); err != nil {
			logger.CtxWithError(ctx, "failed to log login activity", err)
		}
		metrics.LoginsTotal.WithLabelValues("password", "false").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.store.ResetLoginAttempts(ctx, client.IPAddress); err != nil {
		logger.CtxWithError(ctx, "failed to reset login attempts", err)
	}
	if err := s.recordActivity(db, user.ID, client, true); err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("password", "true").Inc()
	return s.issue(user)
}

// ==========================
// WhatsApp OTP
// ==========================

func (s *AuthServiceImpl) SendWhatsAppOTP(ctx context.Context, db *gorm.DB, req *dto.WhatsAppOTPRequest) error {
	if _, err := s.userRepo.FindByPhone(db.WithContext(ctx), req.Phone); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrPhoneNotRegistered
		}
		return apperrors.DatabaseError(err)
	}

	code, err := generateOTP()
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.store.SaveOTP(ctx, req.Phone, code, s.opts.OTPExpiry); err != nil {
		return apperrors.NewUnavailableError("auth", "OTP storage unavailable", err)
	}

	minutes := int(s.opts.OTPExpiry / time.Minute)
	body := fmt.Sprintf("Your MetalHub verification code is: %s. Valid for %d minutes.", code, minutes)

	// Delivery failures are not surfaced; the code stays valid in the cache.
	if err := s.sender.Send(ctx, req.Phone, body); err != nil {
		logger.CtxWithError(ctx, "otp delivery failed", err)
	}
	if !s.opts.Production {
		logger.CtxDebug(ctx, "otp issued", "phone", req.Phone, "otp", code)
	}
	return nil
}

func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, db *gorm.DB, req *dto.VerifyOTPRequest, client dto.ClientInfo) (*dto.AuthResponse, error) {
	stored, err := s.store.OTP(ctx, req.Phone)
	if err != nil {
		return nil, apperrors.NewUnavailableError("auth", "OTP storage unavailable", err)
	}
	if stored == "" || stored != req.OTP {
		metrics.LoginsTotal.WithLabelValues("otp", "false").Inc()
		return nil, apperrors.ErrInvalidOTP
	}

	db = db.WithContext(ctx)
	user, err := s.userRepo.FindByPhone(db, req.Phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewBadRequestError("User not found")
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !user.IsActive() {
		return nil, apperrors.ErrAccountInactive
	}

	if err := s.userRepo.MarkPhoneVerified(db, user.ID); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	user.PhoneVerified = true

	if err := s.store.DeleteOTP(ctx, req.Phone); err != nil {
		logger.CtxWithError(ctx, "failed to delete otp", err)
	}
	if err := s.recordActivity(db, user.ID, client, true); err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("otp", "true").Inc()
	return s.issue(user)
}

// ==========================
// Sessions
// ==========================

func (s *AuthServiceImpl) Logout(ctx context.Context, token string, claims *auth.Claims) error {
	if err := s.store.Blacklist(ctx, token, claims.ExpiresIn(s.now())); err != nil {
		return apperrors.NewUnavailableError("auth", "Session store unavailable", err)
	}
	return nil
}

func (s *AuthServiceImpl) ValidateSession(ctx context.Context, db *gorm.DB, token string, claims *auth.Claims) (*models.User, error) {
	revoked, err := s.store.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, apperrors.NewUnavailableError("auth", "Session store unavailable", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(db.WithContext(ctx), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !user.IsActive() {
		return nil, apperrors.ErrAccountInactive
	}
	return user, nil
}

// ==========================
// Helpers
// ==========================

func (s *AuthServiceImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        dto.NewUserDTO(user),
	}, nil
}

func (s *AuthServiceImpl) recordActivity(db *gorm.DB, userID string, client dto.ClientInfo, success bool) error {
	activity := &models.LoginActivity{
		UserID:            userID,
		IPAddress:         client.IPAddress,
		DeviceFingerprint: client.DeviceFingerprint,
		Success:           success,
	}
	if err := s.activityRepo.Create(db, activity); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
