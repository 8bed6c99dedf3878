// Package jwt signs and verifies HS512 JSON Web Tokens.
//
// It includes:
//   - Claims: registered claims plus identity, role, scope and purpose.
//   - Symmetric: an HS512 signer/verifier with an injectable clock and an
//     optional refresh window that replaces exp with iat + window.
//   - Context helpers for storing and retrieving authenticated claims.
package jwt
