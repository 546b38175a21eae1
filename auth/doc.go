// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues capability tokens and record identifiers.

# Tokens

A token is the only credential in the system. Manage, observe and vote
tokens are 32 random bytes from crypto/rand, URL-safe base64 encoded
without padding (43 characters):

	issuer := auth.NewIssuer()
	tok, err := issuer.Issue()

Issuer is an interface so tests can inject deterministic tokens.

# IDs

Records use random UUIDs:

	id := auth.NewID()
*/
package auth
