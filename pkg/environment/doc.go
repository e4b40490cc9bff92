// Package environment names the deployment environment the service runs in
// and carries it through request contexts.
package environment
