package tailor

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/unitofwork"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
)

// RegisterTailorUseCase создаёт витрину портного. У пользователя одна витрина.
type RegisterTailorUseCase struct {
	deps usecase.Deps
}

func NewRegisterTailorUseCase(deps usecase.Deps) *RegisterTailorUseCase {
	return &RegisterTailorUseCase{deps: deps}
}

func (uc *RegisterTailorUseCase) Execute(ctx context.Context, params entity.NewTailorParams) (*entity.TailorProfile, error) {
	profile, err := entity.NewTailorProfile(params, uc.deps.Now())
	if err != nil {
		return nil, err
	}

	err = unitofwork.Run(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Tailors().FindBySpec(ctx, specification.TailorByUser(params.UserID))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperror.ErrAlreadyExists
		}
		return repos.Tailors().Add(ctx, profile)
	})
	log := uc.deps.Log.WithField("user_id", params.UserID)
	if err != nil {
		logger.Failure(log, err, "tailor: витрина не создана")
		return nil, err
	}
	log.WithFields(logrus.Fields{"tailor_id": profile.ID, "shop": profile.ShopName}).Info("tailor: витрина создана")
	return profile, nil
}

type VerifyTailorUseCase struct {
	deps usecase.Deps
}

func NewVerifyTailorUseCase(deps usecase.Deps) *VerifyTailorUseCase {
	return &VerifyTailorUseCase{deps: deps}
}

func (uc *VerifyTailorUseCase) Execute(ctx context.Context, adminID, tailorID uuid.UUID) (*entity.TailorProfile, error) {
	profile, err := unitofwork.Do(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.TailorProfile, error) {
		profile, err := repos.Tailors().FindByID(ctx, tailorID)
		if err != nil {
			return nil, err
		}
		if err := profile.Verify(uc.deps.Now()); err != nil {
			return nil, err
		}
		if err := repos.Tailors().Update(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	})
	log := uc.deps.Log.WithFields(logrus.Fields{"tailor_id": tailorID, "user_id": adminID})
	if err != nil {
		logger.Failure(log, err, "tailor: подтверждение отклонено")
		return nil, err
	}
	log.Info("tailor: портной подтверждён")
	return profile, nil
}

type GetTailorUseCase struct {
	deps usecase.Deps
}

func NewGetTailorUseCase(deps usecase.Deps) *GetTailorUseCase {
	return &GetTailorUseCase{deps: deps}
}

func (uc *GetTailorUseCase) Execute(ctx context.Context, tailorID uuid.UUID) (*entity.TailorProfile, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) (*entity.TailorProfile, error) {
		return repos.Tailors().FindByID(ctx, tailorID)
	})
}

type QueryTailorsUseCase struct {
	deps usecase.Deps
}

func NewQueryTailorsUseCase(deps usecase.Deps) *QueryTailorsUseCase {
	return &QueryTailorsUseCase{deps: deps}
}

func (uc *QueryTailorsUseCase) Execute(ctx context.Context, spec specification.TailorSpec) ([]*entity.TailorProfile, error) {
	return unitofwork.Read(ctx, uc.deps.UoW, func(ctx context.Context, repos repository.Repositories) ([]*entity.TailorProfile, error) {
		return repos.Tailors().FindBySpec(ctx, spec)
	})
}
