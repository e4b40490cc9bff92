// Package config loads typed configuration from environment variables.
//
// Every package that needs settings owns a Config struct with `env` tags
// (caarlos0/env) and the composition root calls Load for each of them.
// An optional .env file (joho/godotenv) is read once before the first parse.
package config
