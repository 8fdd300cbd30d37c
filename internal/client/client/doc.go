// Package client is the client side of the credential store.
//
// # Overview
//
//  1. CredentialStore is the transport-agnostic contract: register,
//     verify-otp, resend-otp, sign-in, verify-2fa, enable-2fa,
//     verify-2fa-setup, disable-2fa, delete-account, me and change-password.
//  2. HTTPClient implements it over the JSON API served under /api/auth.
//
// # Sign-in sentinels
//
// The store signals an outstanding second factor or onboarding step with
// the literal messages REQUIRES_2FA and REQUIRES_ONBOARDING. They are
// decoded once, here, into SignInResult kinds; nothing downstream compares
// message strings.
//
// # Error Handling
//
// Match with errors.Is / errors.As: ErrUnauthorized (session token rejected),
// ErrUnavailable (network, timeout or undecodable response), *APIError
// (server rejection carrying the user-facing message).
package client
