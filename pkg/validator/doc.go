// Package validator composes small declarative rules into a single error.
//
//	err := validator.Apply(
//		validator.ValidEmail("username", req.Username),
//		validator.StrongPassword("password", req.Password, validator.DefaultPasswordPolicy()),
//	)
//
// Apply returns ValidationErrors listing every failed rule, or nil.
package validator
