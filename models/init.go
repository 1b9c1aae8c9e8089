package models

import (
	"gorm.io/gorm"
)

// Repo owns all queries for users and places
type Repo struct {
	DB *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Place{}, &UserPlace{})
}
