package domain

// BootstrapData is the seed file loaded on first start. Passwords and
// secrets are plaintext here and hashed before storage.
type BootstrapData struct {
	Users   []BootstrapUser   `yaml:"users"`
	Clients []BootstrapClient `yaml:"clients"`
}

type BootstrapUser struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Email    string   `yaml:"email"`
	Name     string   `yaml:"name"`
	Roles    []string `yaml:"roles"`
	Enabled  *bool    `yaml:"enabled"` // defaults to true
	Locked   bool     `yaml:"locked"`
}

type BootstrapClient struct {
	ID                          string   `yaml:"id"`
	Name                        string   `yaml:"name"`
	Secret                      string   `yaml:"secret"` // generated when empty
	GrantTypes                  []string `yaml:"grant_types"`
	Scopes                      []string `yaml:"scopes"`
	AccessTokenValiditySeconds  int      `yaml:"access_token_validity_seconds"`
	RefreshTokenValiditySeconds int      `yaml:"refresh_token_validity_seconds"`
	Enabled                     *bool    `yaml:"enabled"` // defaults to true
}
