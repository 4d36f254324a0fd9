package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trailside/authkit"
	"github.com/trailside/authkit/providers/credential"
)

// AutoMigrate runs database migrations for the authkit tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// Store implements credential.IdentityStore and the Google provider's
// UserResolver against a single users table.
type Store struct {
	db *gorm.DB
}

var _ credential.IdentityStore = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UserExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("counting users by email: %w", err)
	}
	return count > 0, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*authkit.CredentialUser, error) {
	var model UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user by email: %w", err)
	}
	return &authkit.CredentialUser{
		User:           modelToUser(&model),
		HashedPassword: model.HashedPassword,
	}, nil
}

func (s *Store) CreateUser(ctx context.Context, user credential.NewUser) error {
	model := &UserModel{
		ID:             uuid.NewString(),
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Provider:       authkit.CredentialProviderID,
		Extra:          JSONMap(user.Extra),
	}
	if name, ok := user.Extra["name"].(string); ok {
		model.Name = name
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	result := s.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("email = ?", email).
		Update("hashed_password", hashedPassword)
	if result.Error != nil {
		return fmt.Errorf("updating password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no user with email %q", email)
	}
	return nil
}

// ResolveUser looks up or creates the local user for an OAuth claim set.
// Matching is by email; a first-time sign-in creates the row with the
// profile fields from the claims.
func (s *Store) ResolveUser(ctx context.Context, claims authkit.Claims) (authkit.User, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return authkit.User{}, fmt.Errorf("claims carry no email")
	}

	var model UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = UserModel{
			ID:       uuid.NewString(),
			Email:    email,
			Provider: "oauth",
		}
		if name, ok := claims["name"].(string); ok {
			model.Name = name
		}
		if picture, ok := claims["picture"].(string); ok {
			model.Image = picture
		}
		if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
			return authkit.User{}, fmt.Errorf("creating user from claims: %w", err)
		}
	case err != nil:
		return authkit.User{}, fmt.Errorf("loading user by email: %w", err)
	}

	return modelToUser(&model), nil
}

func modelToUser(m *UserModel) authkit.User {
	return authkit.User{
		ID:    m.ID,
		Email: m.Email,
		Name:  m.Name,
		Image: m.Image,
		Role:  m.Role,
	}
}
