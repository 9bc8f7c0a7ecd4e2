package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store/drivers/sqlite/gen"
)

type clientsRepo struct {
	q *gen.Queries
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row, err := r.q.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return mapClient(row), nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	clients := make([]domain.Client, len(rows))
	for i, row := range rows {
		clients[i] = mapClient(row)
	}
	return clients, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	err := r.q.CreateClient(ctx, gen.CreateClientParams{
		ID:                          c.ID,
		Name:                        c.Name,
		SecretHash:                  mapStringNull(c.SecretHash),
		GrantTypes:                  joinGrants(c.GrantTypes),
		Scopes:                      strings.Join(c.Scopes, " "),
		AccessTokenValiditySeconds:  int64(c.AccessTokenValidity.Seconds()),
		RefreshTokenValiditySeconds: int64(c.RefreshTokenValidity.Seconds()),
		Enabled:                     c.Enabled,
	})
	return mapConstraint(err)
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountClients(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
