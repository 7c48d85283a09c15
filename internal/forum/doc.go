// Package forum is a REST client for the forum thread that mirrors campaign
// donations.
//
// Every request is sent under /api of the configured base URL and carries a
// short-lived HS256 bearer token naming the bot user. Statuses map to the
// package's sentinel errors (ErrNotFound, ErrBadRequest, ErrForbidden,
// ErrServer). Transport failures wrap common.ErrForumUnavailable and bodies
// that do not decode wrap common.ErrMalformedResponse.
package forum
