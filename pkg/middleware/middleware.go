// Package middleware defines the shared middleware type.
package middleware

import "net/http"

type Middleware func(next http.Handler) http.Handler
