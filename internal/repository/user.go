package repository

import (
	"context"
	"errors"
	"strings"

	"mundotango/internal/cache"
	"mundotango/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserRepository covers the user lookups the REST surface does not.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]models.User, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
	Invalidate(ctx context.Context, id uint)
}

type userRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepository returns a UserRepository. rdb may be nil.
func NewUserRepository(db *gorm.DB, rdb *redis.Client) UserRepository {
	return &userRepository{db: db, rdb: rdb}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := cache.Aside(ctx, r.rdb, cache.UserKey(id), cache.UserTTL, func(ctx context.Context) (models.User, error) {
		var u models.User
		if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return u, models.NewNotFoundError("User", id)
			}
			return u, models.NewInternalError(err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", strings.TrimSpace(username))
}

// findOne returns nil, nil when nothing matches.
func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(where, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// SearchByPrefix matches active users whose username or name starts with
// prefix, case-insensitively.
func (r *userRepository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	pattern := escapeLike(strings.ToLower(prefix)) + "%"
	users := make([]models.User, 0, limit)
	err := r.db.WithContext(ctx).
		Select("id", "name", "username", "image_url").
		Where("is_active = ?", true).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("username asc").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (r *userRepository) Invalidate(ctx context.Context, id uint) {
	cache.Invalidate(ctx, r.rdb, cache.UserKey(id))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
