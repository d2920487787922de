package model

import (
	"errors"
	"fmt"
)

// Пользователи

type SocialMediaLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Whatsapp  string `json:"whatsapp,omitempty"`
}

type User struct {
	ID               ID                `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Contact          string            `json:"contact"`
	Rating           float64           `json:"rating"`
	TotalRatings     int               `json:"total_ratings"`
	DateOfBirth      string            `json:"date_of_birth,omitempty"`
	Location         string            `json:"location,omitempty"`
	IsBusiness       bool              `json:"is_business"`
	BusinessCategory string            `json:"business_category,omitempty"`
	SocialMediaLinks *SocialMediaLinks `json:"social_media_links,omitempty"`
	ProfileImage     string            `json:"profile_image,omitempty"`
	CreatedAt        Timestamp         `json:"created_at"`
	UpdatedAt        Timestamp         `json:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

var ErrRatingOutOfRange = errors.New("rating out of range")

// WithRating возвращает пользователя с пересчитанным средним рейтингом:
// (rating * total + submitted) / (total + 1).
func (u User) WithRating(submitted int) (User, error) {
	if submitted < MinRating || submitted > MaxRating {
		return u, fmt.Errorf("%w: %d", ErrRatingOutOfRange, submitted)
	}
	total := float64(u.TotalRatings)
	u.Rating = (u.Rating*total + float64(submitted)) / (total + 1)
	u.TotalRatings++
	return u, nil
}

var BusinessCategories = []string{
	"Fashion & Clothing",
	"Electronics & Gadgets",
	"Food & Beverages",
	"Beauty & Cosmetics",
	"Home & Garden",
	"Sports & Fitness",
	"Books & Media",
	"Handmade & Crafts",
	"Automotive",
	"Services",
	"Other",
}
