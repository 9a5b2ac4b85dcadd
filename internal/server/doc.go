// Package server provides HTTP routing, middleware, and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recovery] cover the web app's ambient concerns.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// Two flows share the handler:
//
//   - CLI: `spooty auth` starts a temporary HTTP server on the configured
//     host:port, handles the callback, and shuts the server down after
//     receiving the token.
//   - Web: the web app mounts the handler on its own router with
//     [OAuthHandler.SetRedirect] pointing back at the home page, and stores
//     the token in the browser session.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
