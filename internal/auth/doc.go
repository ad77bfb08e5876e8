// Package auth provides API key authentication middleware for the REST API.
package auth
