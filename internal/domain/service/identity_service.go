package service

import (
	"context"

	"aeroclassifieds/internal/domain/entity"
)

type IdentityService interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
	GetProfile(ctx context.Context, uid string) (*entity.Profile, error)
}
