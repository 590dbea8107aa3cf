package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers/common"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/service"
)

// TailorHandler - витрина мастеров: поиск, профиль, регистрация и проверка.
type TailorHandler struct {
	svc *service.SettlementService
}

func NewTailorHandler(svc *service.SettlementService) *TailorHandler {
	return &TailorHandler{svc: svc}
}

// Search GET /api/tailors?q=&city=&specialization=&min_rating=&page=&size=
func (h *TailorHandler) Search(c *gin.Context) {
	page, size := common.GetPage(c, specification.DefaultPageSize)
	params := specification.TailorSearchParams{
		Term:           c.Query("q"),
		City:           c.Query("city"),
		Specialization: c.Query("specialization"),
		Page:           page,
		Size:           size,
	}
	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			common.Fail(c, apperror.Validationf("min_rating должен быть числом"))
			return
		}
		params.MinRating = &rating
	}

	h.run(c, specification.TailorSearch(params))
}

// TopRated GET /api/tailors/top?city=&take=
func (h *TailorHandler) TopRated(c *gin.Context) {
	take := common.ParseIntQuery(c, "take", specification.DefaultTopRatedTake)
	h.run(c, specification.TopRatedTailors(take, c.Query("city")))
}

// Verified GET /api/tailors/verified?city=&min_experience=
func (h *TailorHandler) Verified(c *gin.Context) {
	h.run(c, specification.VerifiedTailors(c.Query("city"), common.ParseIntQuery(c, "min_experience", 0)))
}

// Nearby GET /api/tailors/nearby?city=
func (h *TailorHandler) Nearby(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		common.Fail(c, apperror.New(apperror.ErrCodeValidation, "город обязателен"))
		return
	}
	h.run(c, specification.NearbyTailors(city))
}

// Cities GET /api/tailors/cities
func (h *TailorHandler) Cities(c *gin.Context) {
	tailors, err := h.svc.RunTailorSpecification(c.Request.Context(), specification.TailorCities())
	if err != nil {
		common.Fail(c, err)
		return
	}
	cities := make([]string, 0, len(tailors))
	for _, t := range tailors {
		cities = append(cities, t.City)
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"cities": cities})
}

// PendingVerification GET /api/admin/tailors/pending
func (h *TailorHandler) PendingVerification(c *gin.Context) {
	h.run(c, specification.PendingVerificationTailors())
}

func (h *TailorHandler) run(c *gin.Context, spec specification.TailorSpec) {
	tailors, err := h.svc.RunTailorSpecification(c.Request.Context(), spec)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Page(c, tailors, dto.NewTailorResponse)
}

// GetTailor GET /api/tailors/:id
func (h *TailorHandler) GetTailor(c *gin.Context) {
	tailorID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	found, err := h.svc.GetTailor(c.Request.Context(), tailorID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewTailorResponse(found))
}

// Register POST /api/tailors - профиль мастера для текущего пользователя.
func (h *TailorHandler) Register(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req dto.RegisterTailorRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	profile, err := h.svc.RegisterTailor(c.Request.Context(), entity.NewTailorParams{
		UserID:          userID,
		ShopName:        req.ShopName,
		FullName:        req.FullName,
		Bio:             req.Bio,
		City:            req.City,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondCreated(c, dto.NewTailorResponse(profile))
}

// Verify POST /api/admin/tailors/:id/verify
func (h *TailorHandler) Verify(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	tailorID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	verified, err := h.svc.VerifyTailor(c.Request.Context(), adminID, tailorID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewTailorResponse(verified))
}
