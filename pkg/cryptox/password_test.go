package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox-pepper")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4])
			require.NotEmpty(t, parts[5])

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2)
	require.NoError(t, VerifyPassword("samepassword", hash1))
	require.NoError(t, VerifyPassword("samepassword", hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		strings.Repeat("x", 10000),
	} {
		require.ErrorIs(t, VerifyPassword(wrong, hash), ErrPasswordMismatch, wrong)
	}
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword("test-password", tt.invalidHash)
			require.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

func TestPepper_PersistedAcrossReloads(t *testing.T) {
	before, err := GetPepper()
	require.NoError(t, err)

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	// Re-pointing at the same file reloads the same pepper.
	pepperMu.Lock()
	file := pepperFile
	pepperMu.Unlock()
	SetPepperPath(file)

	after, err := GetPepper()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.NoError(t, VerifyPassword("s3cret", hash))
}

func TestPepper_DifferentPepperRejects(t *testing.T) {
	pepperMu.Lock()
	original := pepperFile
	pepperMu.Unlock()
	t.Cleanup(func() { SetPepperPath(original) })

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	SetPepperPath(filepath.Join(t.TempDir(), "other-pepper"))
	require.ErrorIs(t, VerifyPassword("s3cret", hash), ErrPasswordMismatch)
}
