/*
Package rdlog is Reddwarf's structured logging setup: a thin wrapper
over github.com/rs/zerolog providing a global Logger, Init(Config), and
component child loggers. The component-tagging helpers are built around
this system's own identifiers: GVK, ResourceKey, commit ID.
*/
package rdlog
