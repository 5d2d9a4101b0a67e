// Package api is the application facade: every operation the HTTP surface
// and the CLI expose goes through Service.
package api
