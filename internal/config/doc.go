/*
Package config binds and loads reddwarfd/reddwarf-agent's startup
configuration: a flat set of cobra flags, one per setting, with no
config file or viper layer. Each string flag also has a REDDWARF_-prefixed
environment variable fallback, read only when the flag was left at its
default, so container deployments can be configured without a wrapper
script; boolean and duration flags are read from the command line only.
*/
package config
