package specification

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

const (
	TopRatedThreshold   = 4.0
	DefaultTopRatedTake = 10
)

type TailorSpec = Spec[*entity.TailorProfile]

var byRating = By(func(t *entity.TailorProfile) float64 { return t.AverageRating })

func verified(t *entity.TailorProfile) bool { return t.IsVerified }

func inCity(city string) func(*entity.TailorProfile) bool {
	city = strings.TrimSpace(city)
	return func(t *entity.TailorProfile) bool {
		return city == "" || strings.EqualFold(t.City, city)
	}
}

// VerifiedTailors - подтверждённые мастера, лучшие по рейтингу первыми.
func VerifiedTailors(city string, minExperience int) TailorSpec {
	return New(verified).
		Where(inCity(city)).
		Where(func(t *entity.TailorProfile) bool { return t.ExperienceYears >= minExperience }).
		OrderByDesc(byRating)
}

type TailorSearchParams struct {
	Term           string
	City           string
	Specialization string
	MinRating      *float64
	Page           int
	Size           int
}

// TailorSearch ищет подтверждённых мастеров по названию, имени и описанию.
func TailorSearch(p TailorSearchParams) TailorSpec {
	term := strings.ToLower(strings.TrimSpace(p.Term))
	spec := New(verified).
		Where(inCity(p.City)).
		Where(func(t *entity.TailorProfile) bool {
			if term == "" {
				return true
			}
			return strings.Contains(strings.ToLower(t.ShopName), term) ||
				strings.Contains(strings.ToLower(t.FullName), term) ||
				strings.Contains(strings.ToLower(t.Bio), term)
		})
	if specialization := strings.ToLower(strings.TrimSpace(p.Specialization)); specialization != "" {
		spec = spec.Where(func(t *entity.TailorProfile) bool {
			return strings.Contains(strings.ToLower(t.Specialization), specialization)
		})
	}
	if p.MinRating != nil {
		minRating := *p.MinRating
		spec = spec.Where(func(t *entity.TailorProfile) bool { return t.AverageRating >= minRating })
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return spec.OrderByDesc(byRating).Paginate(p.Page, p.Size)
}

// TopRatedTailors - мастера с рейтингом не ниже 4.0.
func TopRatedTailors(take int, city string) TailorSpec {
	if take <= 0 {
		take = DefaultTopRatedTake
	}
	return New(verified).
		Where(inCity(city)).
		Where(func(t *entity.TailorProfile) bool { return t.AverageRating >= TopRatedThreshold }).
		OrderByDesc(byRating).
		Page(0, take)
}

// NearbyTailors - подтверждённые мастера того же города. Без города
// соседей нет, поэтому пустой city ничего не находит.
func NearbyTailors(city string) TailorSpec {
	city = strings.TrimSpace(city)
	return New(verified).
		Where(func(t *entity.TailorProfile) bool { return city != "" && strings.EqualFold(strings.TrimSpace(t.City), city) }).
		OrderByDesc(byRating)
}

// PendingVerificationTailors - заявки на проверку в порядке поступления.
func PendingVerificationTailors() TailorSpec {
	return New(func(t *entity.TailorProfile) bool { return !t.IsVerified }).
		OrderByAsc(func(a, b *entity.TailorProfile) int { return a.CreatedAt.Compare(b.CreatedAt) })
}

// TailorCities - по одному подтверждённому мастеру на город, города по алфавиту.
func TailorCities() TailorSpec {
	return New(verified).
		Where(func(t *entity.TailorProfile) bool { return strings.TrimSpace(t.City) != "" }).
		OrderByAsc(ByFold(func(t *entity.TailorProfile) string { return t.City })).
		WithDistinct(func(t *entity.TailorProfile) any { return strings.ToLower(t.City) })
}

func TailorByUser(userID uuid.UUID) TailorSpec {
	return New[*entity.TailorProfile](nil).
		Key("user_id", userID, func(t *entity.TailorProfile) bool { return t.UserID == userID }).Page(0, 1)
}
