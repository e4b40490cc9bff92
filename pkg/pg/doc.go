// Package pg connects to PostgreSQL through pgxpool, applies embedded goose
// migrations and classifies driver errors for the storage layer.
package pg
