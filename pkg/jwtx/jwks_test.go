package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_PEM_RSA(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwk := NewRSAJWK("test-key-id", "sig", AlgorithmRS256, &privateKey.PublicKey)

	pemStr, err := jwk.PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)

	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	require.True(t, privateKey.PublicKey.Equal(parsedKey))
}

func TestJWK_RejectsNonRSA(t *testing.T) {
	_, err := JWK{Kty: "OKP", N: "abc", E: "AQAB"}.PEM()
	require.Error(t, err)

	_, err = JWK{Kty: "RSA"}.RSAPublicKey()
	require.Error(t, err)
}

func TestKeySet_PublicJWKS(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ks := NewKeySet()
	require.False(t, ks.IsReady())
	require.NoError(t, ks.AddPublicKey("k1", &privateKey.PublicKey))
	require.True(t, ks.IsReady())

	// Re-adding the same kid replaces the entry.
	require.NoError(t, ks.AddPublicKey("k1", &privateKey.PublicKey))

	jwks := ks.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "RS256", jwks.Keys[0].Alg)
	require.Equal(t, "sig", jwks.Keys[0].Use)

	raw, err := json.Marshal(jwks)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"kid":"k1"`)

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)

	only, err := ks.Only()
	require.NoError(t, err)
	require.True(t, privateKey.PublicKey.Equal(only))
}
