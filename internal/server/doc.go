// Package server provides the routing and OAuth callback handling behind `discog auth`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter, exchanges the code
// for tokens and sends exactly one result through a channel. Later callbacks are rejected.
//
// [CallbackServer] binds the redirect address (127.0.0.1:3000 by default), serves until the token arrives and is
// then shut down by the caller.
package server
