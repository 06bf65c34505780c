package service

import (
	"context"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	// ResolveActor loads the user and returns the actor the policy checks run against.
	ResolveActor(ctx context.Context, id string) (*repository.User, policy.Actor, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	if !validID(id) {
		return nil, notFound("user")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

func (s *userService) ResolveActor(ctx context.Context, id string) (*repository.User, policy.Actor, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	return user, ActorFor(user), nil
}

// ActorFor converts a stored user into a policy actor.
func ActorFor(user *repository.User) policy.Actor {
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return policy.Actor{UserID: user.ID, Roles: roles}
}
