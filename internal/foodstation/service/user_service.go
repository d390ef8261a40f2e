package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type RegisterUserRequest struct {
	ID          string     `json:"id,omitempty"`
	DisplayName string     `json:"display_name"`
	Role        types.Role `json:"role"`
	Token       string     `json:"token"`
}

type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

// Register creates a user. The raw token is hashed before it reaches the
// store. A missing id gets a generated uuid.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (types.User, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return types.User{}, fmt.Errorf("%w: display_name is required", types.ErrValidation)
	}
	if !req.Role.Valid() {
		return types.User{}, fmt.Errorf("%w: unknown role %q", types.ErrValidation, req.Role)
	}
	if strings.TrimSpace(req.Token) == "" {
		return types.User{}, fmt.Errorf("%w: token is required", types.ErrValidation)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	u := types.User{
		ID:          id,
		DisplayName: name,
		Role:        req.Role,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, store.UserRecord{
		User:           u,
		CredentialHash: types.HashCredential(req.Token),
	}); err != nil {
		return types.User{}, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (types.User, error) {
	return s.users.GetUser(ctx, strings.TrimSpace(userID))
}
