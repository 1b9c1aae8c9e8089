package models

import (
	"context"
	"errors"

	"places/apperr"

	"github.com/zsefvlol/timezonemapper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Place struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   int
	UpdatedAt   int
	Title       string  `gorm:"type:varchar(200);not null"`
	Description string  `gorm:"type:text;not null"`
	Image       string  `gorm:"type:varchar(250);not null"`
	Address     string  `gorm:"type:varchar(250);not null"`
	Lat         float64 `gorm:"type:double;not null"`
	Lng         float64 `gorm:"type:double;not null"`
	TimeZone    string  `gorm:"type:varchar(64)"`
	CreatorID   uint64  `gorm:"index;not null"`
	Creator     User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

var (
	ErrPlaceNotFound     = apperr.NotFound("Could not find place for the provided id")
	ErrPlaceEditDenied   = apperr.Authorization("You are not allowed to edit this place")
	ErrPlaceDeleteDenied = apperr.Authorization("You are not allowed to delete this place")
)

const (
	errCreatePlace = "Creating place failed, please try again"
	errDeletePlace = "Something went wrong, could not delete place"
	errUpdatePlace = "Could not update place, please try again later"
	errFetchPlaces = "Fetching places failed, please try again later"
)

// SetLocation stores the coordinates and the time zone they fall in
func (p *Place) SetLocation(lat, lng float64) {
	p.Lat = lat
	p.Lng = lng
	p.TimeZone = timezonemapper.LatLngToTimezoneString(lat, lng)
}

// CreatePlace inserts p for creatorID and adds it to the creator's place list in one
// transaction. commit runs last inside the transaction; its error rolls both writes back.
func (r *Repo) CreatePlace(ctx context.Context, p *Place, creatorID uint64, commit func() error) error {
	var creator User
	err := r.DB.WithContext(ctx).Select("id").First(&creator, creatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return apperr.Persistence(errCreatePlace, err)
	}

	p.CreatorID = creator.ID
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		if err := tx.Create(&UserPlace{UserID: creator.ID, PlaceID: p.ID}).Error; err != nil {
			return err
		}
		if commit != nil {
			return commit()
		}
		return nil
	})
	if err != nil {
		p.ID = 0
		return apperr.Persistence(errCreatePlace, err)
	}
	return nil
}

// DeletePlace removes the place and its entry in the creator's place list in one
// transaction. The deleted place is returned so the caller can drop its image.
func (r *Repo) DeletePlace(ctx context.Context, placeID, requestingUserID uint64) (*Place, error) {
	place := Place{}
	err := r.DB.WithContext(ctx).Preload("Creator").First(&place, placeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, apperr.Persistence(errDeletePlace, err)
	}
	if place.CreatorID != requestingUserID {
		return nil, ErrPlaceDeleteDenied
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Place{}, place.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Deleted concurrently
			return ErrPlaceNotFound
		}
		return tx.Where("user_id = ? AND place_id = ?", place.CreatorID, place.ID).Delete(&UserPlace{}).Error
	})
	if errors.Is(err, ErrPlaceNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, apperr.Persistence(errDeletePlace, err)
	}
	return &place, nil
}

// UpdatePlace changes title and description only. It touches a single row, so no transaction.
func (r *Repo) UpdatePlace(ctx context.Context, placeID, requestingUserID uint64, title, description string) (*Place, error) {
	place, err := r.FindPlaceByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if place.CreatorID != requestingUserID {
		return nil, ErrPlaceEditDenied
	}
	place.Title = title
	place.Description = description
	err = r.DB.WithContext(ctx).Model(place).Updates(map[string]interface{}{
		"title":       title,
		"description": description,
	}).Error
	if err != nil {
		return nil, apperr.Persistence(errUpdatePlace, err)
	}
	return place, nil
}

func (r *Repo) FindPlaceByID(ctx context.Context, id uint64) (*Place, error) {
	place := Place{}
	err := r.DB.WithContext(ctx).First(&place, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("Something went wrong, could not find a place", err)
	}
	return &place, nil
}

// FindPlacesByCreator returns an empty slice for users without places (or unknown users)
func (r *Repo) FindPlacesByCreator(ctx context.Context, userID uint64) ([]Place, error) {
	places := []Place{}
	err := r.DB.WithContext(ctx).Where("creator_id = ?", userID).Order("id").Find(&places).Error
	if err != nil {
		return nil, apperr.Persistence(errFetchPlaces, err)
	}
	return places, nil
}
