package services

// WithResetDispatcher replaces the goroutine used for token issuance.
func WithResetDispatcher(dispatch func(func())) PasswordResetServiceOption {
	return func(s *passwordResetService) { s.dispatch = dispatch }
}
