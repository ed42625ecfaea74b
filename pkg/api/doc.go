/*
Package api is Reddwarf's REST surface: CRUD + PATCH + WATCH handlers for
the four core kinds plus the supplemental Secret kind, routed with
go-chi/chi/v5.

Every handler is kind-agnostic: it operates on json.RawMessage through
pkg/store and a small per-kind registry (kinds.go) that supplies the
GVK, URL plural, and a validate function that decodes the payload into
its concrete Go type just long enough to run pkg/validation against it.
Errors from pkg/store/pkg/version are classified by internal/apierror
and rendered as the types.Status failure envelope.
*/
package api
