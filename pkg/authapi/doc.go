// Package authapi holds the wire types for the authentication service
// HTTP API plus a small client. The server handlers and consumers share
// these definitions so the contract lives in one place.
package authapi
