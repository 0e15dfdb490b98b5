package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/tee-store-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileExists is returned when a profile is created twice for one identity or email
var ErrProfileExists = &Error{Kind: KindConflict, Code: "USER_EXISTS", Message: "A user with this Auth0 ID or email already exists"}

// ProfileUpdate holds the fields a user may change on their own profile
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileService manages storefront profiles and their roles
type ProfileService struct {
	db       *gorm.DB
	userInfo UserInfoProvider
	log      *zap.Logger
}

// NewProfileService creates a profile service
func NewProfileService(db *gorm.DB, userInfo UserInfoProvider, log *zap.Logger) *ProfileService {
	return &ProfileService{db: db, userInfo: userInfo, log: log}
}

// CreateFromToken creates the caller's profile from the identity provider.
// role comes from the token's custom claims and defaults to customer.
func (s *ProfileService) CreateFromToken(ctx context.Context, auth0ID, accessToken, role string) (models.Profile, error) {
	if auth0ID == "" {
		return models.Profile{}, ErrAuthRequired
	}

	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		s.log.Error("failed to fetch user info", zap.String("user_id", auth0ID), zap.Error(err))
		return models.Profile{}, UpstreamError("AUTH0_ERROR", err)
	}
	if info.Email == "" {
		return models.Profile{}, ValidationError("MISSING_EMAIL", "Email not provided by Auth0")
	}
	name := info.Name
	if name == "" {
		name = info.Nickname
	}
	if name == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}
	if role != models.RoleAdmin {
		role = models.RoleCustomer
	}

	profile := models.Profile{Auth0ID: auth0ID, Name: name, Email: info.Email, Role: role}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&profile)
	if res.Error != nil {
		s.log.Error("failed to create profile", zap.String("user_id", auth0ID), zap.Error(res.Error))
		return models.Profile{}, StoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Profile{}, ErrProfileExists
	}

	s.log.Info("profile created", zap.String("user_id", auth0ID), zap.String("role", role))
	return profile, nil
}

// Get returns the profile owned by auth0ID
func (s *ProfileService) Get(ctx context.Context, auth0ID string) (models.Profile, error) {
	if auth0ID == "" {
		return models.Profile{}, ErrAuthRequired
	}
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Profile{}, &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User profile not found. Please create a profile first."}
	}
	if err != nil {
		return models.Profile{}, StoreError(err)
	}
	return profile, nil
}

// Update changes the caller's name or email. Empty fields are left alone.
func (s *ProfileService) Update(ctx context.Context, auth0ID string, in ProfileUpdate) (models.Profile, error) {
	profile, err := s.Get(ctx, auth0ID)
	if err != nil {
		return models.Profile{}, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if email != profile.Email {
			var taken int64
			if err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("email = ? AND auth0_id <> ?", email, auth0ID).Count(&taken).Error; err != nil {
				return models.Profile{}, StoreError(err)
			}
			if taken > 0 {
				return models.Profile{}, &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "A user with this email already exists"}
			}
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(&profile).Updates(updates).Error; err != nil {
		s.log.Error("failed to update profile", zap.String("user_id", auth0ID), zap.Error(err))
		return models.Profile{}, StoreError(err)
	}
	return s.Get(ctx, auth0ID)
}

// IsAdmin reports whether auth0ID has an admin profile
func (s *ProfileService) IsAdmin(ctx context.Context, auth0ID string) (bool, error) {
	profile, err := s.Get(ctx, auth0ID)
	if KindOf(err) == KindNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.IsAdmin(), nil
}

// Lookup returns the caller's profile or nil when they have none
func (s *ProfileService) Lookup(ctx context.Context, auth0ID string) (*models.Profile, error) {
	if auth0ID == "" {
		return nil, nil
	}
	profile, err := s.Get(ctx, auth0ID)
	if KindOf(err) == KindNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
