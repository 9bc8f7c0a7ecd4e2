package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Roles:        strings.Join(u.Roles, " "),
		Enabled:      u.Enabled,
		Locked:       u.Locked,
	})
	return mapConstraint(err)
}

func (r *usersRepo) SetUserStatus(ctx context.Context, userID string, enabled, locked bool) error {
	n, err := r.q.SetUserStatus(ctx, gen.SetUserStatusParams{
		Enabled: enabled,
		Locked:  locked,
		ID:      userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
