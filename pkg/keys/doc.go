// Package keys owns the RSA key material used to sign and verify tokens.
//
// A Provider loads PEM files (or wraps a freshly generated pair), runs a
// sign/verify self-test and hands back an immutable Material. Issuers load
// both halves; verifiers load only the public half. A Distributor copies the
// halves produced by the key generator to each dependent service.
package keys
