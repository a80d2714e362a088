// Package auth implements the authentication and authorization core of the
// Edu Tech learning platform: password verification, JWT session issuance,
// the email-confirmation token workflow, and the middleware gates that
// protect the REST resources.
//
// Token namespaces:
//   - Session tokens are HS256 JWTs signed with the configured secret and
//     carry {account id, role, expiry}. They are stateless; validity is a
//     function of signature and expiry only.
//   - Confirmation tokens are signed under a purpose-derived key so a
//     session token can never be replayed as a confirmation token, and the
//     other way around, even though both descend from one configured secret.
//
// Request pipeline:
//   - AuthMiddleware.RequireAuth authenticates every request (CORS
//     preflights excepted), loads the account, and rejects sessions for
//     unconfirmed or deleted accounts before any handler runs.
//   - AuthMiddleware.RequireRoles composes after RequireAuth and restricts
//     a route to a whitelist of roles.
package auth
