package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultAdminOrigins = []string{
	"http://localhost:3000", // local dev
	"https://admin.shopify.com",
}

// CORS applies the embedded admin UI origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultAdminOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

// PublicCORS allows any storefront origin to call the extension endpoint.
// Session tokens carry the tenant identity so the origin list stays open.
func PublicCORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler
}
