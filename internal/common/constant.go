// Package common contains shared constants, the error taxonomy and small
// helpers used across SparkDrive server components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT inside the Authorization header.
const BearerPrefix = "Bearer "

// RootPath is the canonical path of every user's root folder.
const RootPath = "/"
