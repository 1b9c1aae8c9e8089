package models

import (
	"context"
	"errors"
	"strings"

	"places/apperr"
	"places/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type User struct {
	ID            uint64      `gorm:"primaryKey"`
	CreatedAt     int
	UpdatedAt     int
	Name          string      `gorm:"type:varchar(100);not null"`
	Email         string      `gorm:"type:varchar(150);index:uniq_email,unique;not null"`
	Password      string      `gorm:"type:varchar(72);not null"` // bcrypt digest
	ImagePath     string      `gorm:"type:varchar(250);not null"`
	ImageFilename string      `gorm:"type:varchar(100);not null"`
	Places        []UserPlace `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// UserPlace is one entry of a user's place list. It mirrors Place.CreatorID and is
// written in the same transaction as the Place row.
type UserPlace struct {
	UserID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	PlaceID uint64 `gorm:"primaryKey;autoIncrement:false;index"`
}

var (
	ErrUserNotFound = apperr.NotFound("Could not find user for provided id")
	ErrEmailTaken   = apperr.Validation("Could not create user, user already exists")
)

// NormalizeEmail is applied to every email before it is stored or looked up
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) PlaceIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Places))
	for _, p := range u.Places {
		ids = append(ids, p.PlaceID)
	}
	return ids
}

// CreateUser inserts u. commit runs inside the transaction after the insert, so a
// failing commit (e.g. the profile image could not be stored) discards the user.
func (r *Repo) CreateUser(ctx context.Context, u *User, commit func() error) error {
	u.Email = NormalizeEmail(u.Email)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			if db.IsDuplicateKey(err) {
				return ErrEmailTaken
			}
			return err
		}
		if commit != nil {
			return commit()
		}
		return nil
	})
	if err != nil {
		u.ID = 0
		if errors.Is(err, ErrEmailTaken) {
			return ErrEmailTaken
		}
		return apperr.Persistence("Signing up failed, please try again later", err)
	}
	return nil
}

// EmailTaken reports whether a user with this email exists
func (r *Repo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error
	if err != nil {
		return false, apperr.Persistence("Signing up failed, please try again later", err)
	}
	return count > 0, nil
}

func (r *Repo) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	u := User{}
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Could not find user for provided email")
	}
	if err != nil {
		return nil, apperr.Persistence("Logging in failed, please try again later", err)
	}
	return &u, nil
}

func (r *Repo) FindUserByID(ctx context.Context, id uint64) (*User, error) {
	u := User{}
	err := r.DB.WithContext(ctx).Preload("Places").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("Fetching user failed, please try again later", err)
	}
	return &u, nil
}

// ListUsers returns all users without their password digests. No users is not an error.
func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	err := r.DB.WithContext(ctx).Omit("password").Preload("Places").Order("id").Find(&users).Error
	if err != nil {
		return nil, apperr.Persistence("Fetching users failed, please try again later", err)
	}
	return users, nil
}
