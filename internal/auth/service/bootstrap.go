package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/aussiebroadwan/tokentrust/pkg/idx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

var ErrBootstrapInvalid = errors.New("invalid bootstrap data")

// SeedResult counts what a seed run did. Generated maps client ids to
// secrets that were generated because the seed left them empty; they are
// only ever reported here.
type SeedResult struct {
	UsersCreated   int
	UsersSkipped   int
	ClientsCreated int
	ClientsSkipped int
	Generated      map[string]string
}

// BootstrapService seeds principals from a YAML file. Existing usernames
// and client ids are left untouched, so the seed is safe to re-run.
type BootstrapService struct {
	Store store.Store
}

// LoadBootstrapFile parses a seed file.
func LoadBootstrapFile(path string) (domain.BootstrapData, error) {
	var data domain.BootstrapData

	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read bootstrap file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse bootstrap file: %w", err)
	}
	return data, nil
}

// SeedFromFile loads path and seeds it.
func (s *BootstrapService) SeedFromFile(ctx context.Context, path string) (SeedResult, error) {
	data, err := LoadBootstrapFile(path)
	if err != nil {
		return SeedResult{}, err
	}
	return s.Seed(ctx, data)
}

// Seed creates every user and client in data that does not already exist,
// all in one transaction.
func (s *BootstrapService) Seed(ctx context.Context, data domain.BootstrapData) (SeedResult, error) {
	l := slogx.FromContext(ctx)
	res := SeedResult{Generated: map[string]string{}}

	if err := validateBootstrap(data); err != nil {
		return res, err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, bu := range data.Users {
			created, err := seedUser(ctx, tx, bu)
			if err != nil {
				return err
			}
			if created {
				res.UsersCreated++
			} else {
				res.UsersSkipped++
			}
		}

		for _, bc := range data.Clients {
			secret, created, err := seedClient(ctx, tx, bc)
			if err != nil {
				return err
			}
			if !created {
				res.ClientsSkipped++
				continue
			}
			res.ClientsCreated++
			if secret != "" {
				res.Generated[bc.ID] = secret
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	l.Info("bootstrap seed applied",
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
		slog.Int("clients_created", res.ClientsCreated),
		slog.Int("clients_skipped", res.ClientsSkipped),
	)
	return res, nil
}

func seedUser(ctx context.Context, tx store.Tx, bu domain.BootstrapUser) (bool, error) {
	_, err := tx.Users().GetUserByUsername(ctx, bu.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("lookup user %q: %w", bu.Username, err)
	}

	hash, err := cryptox.HashPassword(bu.Password)
	if err != nil {
		return false, fmt.Errorf("hash password for %q: %w", bu.Username, err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     bu.Username,
		Email:        bu.Email,
		Name:         bu.Name,
		PasswordHash: hash,
		Roles:        bu.Roles,
		Enabled:      enabledOrDefault(bu.Enabled),
		Locked:       bu.Locked,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Users().CreateUser(ctx, u); err != nil {
		return false, fmt.Errorf("create user %q: %w", bu.Username, err)
	}
	return true, nil
}

// seedClient returns the generated secret, if any.
func seedClient(ctx context.Context, tx store.Tx, bc domain.BootstrapClient) (string, bool, error) {
	_, err := tx.Clients().GetClientByID(ctx, bc.ID)
	if err == nil {
		return "", false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", false, fmt.Errorf("lookup client %q: %w", bc.ID, err)
	}

	secret, generated := bc.Secret, ""
	if secret == "" {
		if secret, err = cryptox.GenerateToken(cryptox.TokenSize256); err != nil {
			return "", false, fmt.Errorf("generate secret for %q: %w", bc.ID, err)
		}
		generated = secret
	}

	hash, err := cryptox.HashPassword(secret)
	if err != nil {
		return "", false, fmt.Errorf("hash secret for %q: %w", bc.ID, err)
	}

	grants := make([]domain.GrantType, 0, len(bc.GrantTypes))
	for _, g := range bc.GrantTypes {
		grants = append(grants, domain.ParseGrantType(g))
	}

	now := time.Now().UTC()
	c := domain.Client{
		ID:                   bc.ID,
		Name:                 bc.Name,
		SecretHash:           hash,
		GrantTypes:           grants,
		Scopes:               bc.Scopes,
		AccessTokenValidity:  time.Duration(bc.AccessTokenValiditySeconds) * time.Second,
		RefreshTokenValidity: time.Duration(bc.RefreshTokenValiditySeconds) * time.Second,
		Enabled:              enabledOrDefault(bc.Enabled),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := tx.Clients().CreateClient(ctx, c); err != nil {
		return "", false, fmt.Errorf("create client %q: %w", bc.ID, err)
	}
	return generated, true, nil
}

func validateBootstrap(data domain.BootstrapData) error {
	for i, u := range data.Users {
		if strings.TrimSpace(u.Username) == "" || u.Password == "" {
			return fmt.Errorf("%w: user %d needs a username and password", ErrBootstrapInvalid, i)
		}
	}
	for i, c := range data.Clients {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: client %d needs an id", ErrBootstrapInvalid, i)
		}
		for _, g := range c.GrantTypes {
			if domain.ParseGrantType(g) == domain.GrantUnsupported {
				return fmt.Errorf("%w: client %q has unsupported grant type %q", ErrBootstrapInvalid, c.ID, g)
			}
		}
	}
	return nil
}

func enabledOrDefault(b *bool) bool {
	return b == nil || *b
}
