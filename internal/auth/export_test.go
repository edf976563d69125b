package auth

import "time"

// Test hooks.
var (
	HashPassword   = hashPassword
	VerifyPassword = verifyPassword
)

func (s *Service) SetClock(now func() time.Time) { s.now = now }
