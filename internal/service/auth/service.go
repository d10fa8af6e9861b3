package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"teamtracker/internal/apperr"
	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/config"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/metrics"
	"teamtracker/pkg/util"

	"go.uber.org/zap"
)

const (
	MsgMissingCredentials = "Must include username and password."
	MsgInvalidCredentials = "Unable to log in with provided credentials."

	msgUsernameTaken = "A user with that username already exists."
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is inactive")
)

type Service struct {
	users     repository.UserStore
	blacklist repository.TokenBlacklist
	jwt       config.JWTConfig
	logger    *zap.Logger
}

func NewService(users repository.UserStore, blacklist repository.TokenBlacklist, jwtCfg config.JWTConfig, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		blacklist: blacklist,
		jwt:       jwtCfg,
		logger:    logger,
	}
}

type RegisterInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ProfileInput is always applied partially; absent fields are left unchanged.
type ProfileInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Register creates an active, non-privileged user and returns it with a fresh token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.TokenPair, error) {
	log := logger.WithTrace(ctx, s.logger)

	v := apperr.NewValidationError()
	if v.CheckRequired("username", in.Username, false, 150) && !apperr.IsUsername(*in.Username) {
		v.Add("username", apperr.MsgInvalidUsername)
	}
	if v.CheckRequired("email", in.Email, false, 254) && !apperr.IsEmail(*in.Email) {
		v.Add("email", apperr.MsgInvalidEmail)
	}
	v.CheckRequired("password", in.Password, false, 0)
	if in.FirstName != nil {
		v.CheckString("first_name", *in.FirstName, true, 150)
	}
	if in.LastName != nil {
		v.CheckString("last_name", *in.LastName, true, 150)
	}

	if _, ok := v.Fields["username"]; !ok {
		if err := s.checkUsernameFree(ctx, v, *in.Username, 0); err != nil {
			return nil, err
		}
	}
	if _, ok := v.Fields["email"]; !ok {
		if err := s.checkEmailFree(ctx, v, normalizeEmail(*in.Email), 0); err != nil {
			return nil, err
		}
	}
	if err := v.Err(); err != nil {
		metrics.IncrementAuthEvent("register", "invalid")
		return nil, err
	}

	hash, err := util.HashPassword(*in.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	u := &model.User{
		Username:     *in.Username,
		Email:        normalizeEmail(*in.Email),
		PasswordHash: hash,
		FirstName:    deref(in.FirstName),
		LastName:     deref(in.LastName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if verr := duplicateToValidation(err); verr != nil {
			return nil, verr
		}
		return nil, err
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, err
	}
	pair.User = u

	metrics.IncrementAuthEvent("register", "success")
	log.Info("User registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return pair, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenPair, error) {
	log := logger.WithTrace(ctx, s.logger)

	if username == "" || password == "" {
		metrics.IncrementAuthEvent("login", "invalid")
		return nil, apperr.Field(apperr.NonFieldErrors, MsgMissingCredentials)
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	// inactive accounts are indistinguishable from bad credentials
	if u == nil || !u.IsActive || !util.CheckPassword(password, u.PasswordHash) {
		metrics.IncrementAuthEvent("login", "failure")
		log.Info("Login rejected", zap.String("username", username))
		return nil, apperr.Field(apperr.NonFieldErrors, MsgInvalidCredentials)
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, err
	}
	pair.User = u

	metrics.IncrementAuthEvent("login", "success")
	log.Info("User logged in", zap.Int64("user_id", u.ID))
	return pair, nil
}

// Logout blacklists a refresh token. Malformed, expired, access-type and
// already blacklisted tokens all yield apperr.ErrInvalidToken.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	claims, err := util.ParseTyped(refresh, s.jwt.Secret, util.TokenTypeRefresh)
	if err != nil {
		metrics.IncrementAuthEvent("logout", "invalid")
		return apperr.ErrInvalidToken
	}

	revoked, err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		return err
	}
	if !revoked {
		metrics.IncrementAuthEvent("logout", "invalid")
		return apperr.ErrInvalidToken
	}

	metrics.IncrementAuthEvent("logout", "success")
	logger.WithTrace(ctx, s.logger).Info("Refresh token blacklisted",
		zap.Int64("user_id", claims.UserID),
		zap.String("jti", claims.ID),
	)
	return nil
}

// Refresh rotates a refresh token: the presented token is blacklisted and a
// new access and refresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refresh string) (*model.TokenPair, error) {
	claims, err := util.ParseTyped(refresh, s.jwt.Secret, util.TokenTypeRefresh)
	if err != nil {
		metrics.IncrementAuthEvent("refresh", "invalid")
		return nil, apperr.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.ErrInvalidToken
	}

	revoked, err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		return nil, err
	}
	if !revoked {
		metrics.IncrementAuthEvent("refresh", "invalid")
		return nil, apperr.ErrInvalidToken
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, err
	}
	metrics.IncrementAuthEvent("refresh", "success")
	return pair, nil
}

// Authenticate resolves the caller behind an access token.
func (s *Service) Authenticate(ctx context.Context, access string) (*model.User, error) {
	claims, err := util.ParseTyped(access, s.jwt.Secret, util.TokenTypeAccess)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*model.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := apperr.NewValidationError()
	if in.Username != nil && v.CheckString("username", *in.Username, false, 150) {
		if !apperr.IsUsername(*in.Username) {
			v.Add("username", apperr.MsgInvalidUsername)
		} else if err := s.checkUsernameFree(ctx, v, *in.Username, userID); err != nil {
			return nil, err
		}
	}
	if in.Email != nil && v.CheckString("email", *in.Email, false, 254) {
		if !apperr.IsEmail(*in.Email) {
			v.Add("email", apperr.MsgInvalidEmail)
		} else if err := s.checkEmailFree(ctx, v, normalizeEmail(*in.Email), userID); err != nil {
			return nil, err
		}
	}
	if in.FirstName != nil {
		v.CheckString("first_name", *in.FirstName, true, 150)
	}
	if in.LastName != nil {
		v.CheckString("last_name", *in.LastName, true, 150)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}

	if err := s.users.Update(ctx, u); err != nil {
		if verr := duplicateToValidation(err); verr != nil {
			return nil, verr
		}
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("Profile updated", zap.Int64("user_id", userID))
	return u, nil
}

func (s *Service) issuePair(userID int64) (*model.TokenPair, error) {
	access, _, err := util.GenerateJWT(userID, util.TokenTypeAccess, s.jwt.AccessTTL, s.jwt.Secret)
	if err != nil {
		return nil, err
	}
	refresh, _, err := util.GenerateJWT(userID, util.TokenTypeRefresh, s.jwt.RefreshTTL, s.jwt.Secret)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) checkUsernameFree(ctx context.Context, v *apperr.ValidationError, username string, excludeID int64) error {
	taken, err := s.users.ExistsUsername(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		v.Add("username", msgUsernameTaken)
	}
	return nil
}

func (s *Service) checkEmailFree(ctx context.Context, v *apperr.ValidationError, email string, excludeID int64) error {
	taken, err := s.users.ExistsEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		v.Add("email", apperr.AlreadyExists("user", "email"))
	}
	return nil
}

// duplicateToValidation covers the race where a unique value is claimed
// between the pre-check and the insert.
func duplicateToValidation(err error) error {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return nil
	}
	if dup.Field == "username" {
		return apperr.Field("username", msgUsernameTaken)
	}
	return apperr.Field(dup.Field, apperr.AlreadyExists("user", dup.Field))
}

// normalizeEmail lowercases the domain part only.
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
