/*
Package validation checks resource names and specs before they reach the
version store, returning *apierror.Error{Kind: KindInvalid} so the API
layer never has to re-derive a status code from a plain error string.

Name validation follows the DNS-1123 subdomain rule: dot-separated
labels of lowercase alphanumerics and '-', each starting and ending
with an alphanumeric, <= 253 characters overall. Dots are restricted
to label separators, so a validated name can never contain the NUL
byte pkg/kv's key encoding uses as its delimiter.
*/
package validation
