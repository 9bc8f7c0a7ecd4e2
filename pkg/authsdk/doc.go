/*
Package authsdk is a small client for the tokentrust issuer and the demo
resource service.

An SDKClient talks to unauthenticated endpoints and creates Sessions:

	client := authsdk.NewSDKClient("http://localhost:8080")
	client.ResourceURL = "http://localhost:8081"

	health, err := client.GetReadiness(ctx)

	// Machine to machine. No refresh token is issued for this grant.
	tok, err := client.ClientCredentialsGrant(ctx, "svc-a", "s3cret", nil)

	// End user. The session refreshes its access token before expiry.
	session, err := client.AuthenticateWithPassword(ctx, "", "", "alice", "secret", []string{"read"})

A Session carries the bearer token to the resource service:

	me, err := session.Me(ctx)
	items, err := session.ListResources(ctx)
	err = session.Revoke(ctx)

Errors returned by either service decode to *OAuth2Error, which carries the
RFC 6749 error string in Code and the service error code (for example
TOKEN-003) in ErrorCode.

The same types are used by the servers to write responses, so a handler can
reply with authsdk.ErrInvalidRequest.WriteError(w).
*/
package authsdk
