package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// TailorProfile - витрина портного, по которой строятся выборки мастеров.
type TailorProfile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ShopName        string
	FullName        string
	Bio             string
	City            string
	Specialization  string
	ExperienceYears int
	AverageRating   float64
	ReviewCount     int
	IsVerified      bool
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	Version         int64
}

type NewTailorParams struct {
	UserID          uuid.UUID
	ShopName        string
	FullName        string
	Bio             string
	City            string
	Specialization  string
	ExperienceYears int
}

func NewTailorProfile(p NewTailorParams, now time.Time) (*TailorProfile, error) {
	if p.UserID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "пользователь обязателен")
	}
	if strings.TrimSpace(p.ShopName) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название мастерской обязательно")
	}
	if p.ExperienceYears < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стаж не может быть отрицательным")
	}
	return &TailorProfile{
		ID:              uuid.New(),
		UserID:          p.UserID,
		ShopName:        strings.TrimSpace(p.ShopName),
		FullName:        strings.TrimSpace(p.FullName),
		Bio:             strings.TrimSpace(p.Bio),
		City:            strings.TrimSpace(p.City),
		Specialization:  strings.TrimSpace(p.Specialization),
		ExperienceYears: p.ExperienceYears,
		CreatedAt:       now,
	}, nil
}

func (t *TailorProfile) Verify(now time.Time) error {
	if t.IsVerified {
		return apperror.New(apperror.ErrCodeBusinessRule, "портной уже подтверждён")
	}
	t.IsVerified = true
	t.VerifiedAt = &now
	return nil
}

func (t *TailorProfile) EntityID() uuid.UUID { return t.ID }

func (t *TailorProfile) EntityVersion() int64 { return t.Version }

func (t *TailorProfile) SetEntityVersion(v int64) { t.Version = v }

func (t *TailorProfile) Clone() *TailorProfile {
	c := *t
	c.VerifiedAt = clonePtr(t.VerifiedAt)
	return &c
}
