// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/ssh"
)

const (
	tokenCleanupInterval = 5 * time.Minute
	tokenContextKey      = "token"
)

// GenerateToken issues a new access token for label.
func (s *Server) GenerateToken(label string) (*Token, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.clock.Now()
	token := &Token{
		Value:     TokenValue(hex.EncodeToString(tokenBytes)),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		Label:     label,
	}

	s.tokenMu.Lock()
	s.tokens[token.Value] = token
	s.tokenMu.Unlock()

	s.logger.Debug("Generated token", "label", label, "expires", token.ExpiresAt)
	return token, nil
}

// ValidateToken returns the token if it exists and has not expired.
// Expired tokens are revoked on lookup.
func (s *Server) ValidateToken(value TokenValue) (*Token, bool) {
	if value.Validate() != nil {
		return nil, false
	}

	s.tokenMu.RLock()
	token, exists := s.tokens[value]
	s.tokenMu.RUnlock()
	if !exists {
		return nil, false
	}

	if s.clock.Now().After(token.ExpiresAt) {
		s.RevokeToken(value)
		return nil, false
	}
	return token, true
}

// RevokeToken invalidates a token.
func (s *Server) RevokeToken(value TokenValue) {
	s.tokenMu.Lock()
	delete(s.tokens, value)
	s.tokenMu.Unlock()
}

// RevokeTokensFor invalidates every token issued for label.
func (s *Server) RevokeTokensFor(label string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	for value, token := range s.tokens {
		if token.Label == label {
			delete(s.tokens, value)
		}
	}
}

// GetConnectionInfo issues a token for label and returns how to connect with it.
// It fails unless the server is running.
func (s *Server) GetConnectionInfo(label string) (*ConnectionInfo, error) {
	if !s.IsRunning() {
		return nil, fmt.Errorf("SSH server is not running (state: %s)", s.State())
	}

	token, err := s.GenerateToken(label)
	if err != nil {
		return nil, err
	}

	return &ConnectionInfo{
		Host:     s.cfg.Host,
		Port:     s.Port(),
		Token:    token.Value,
		User:     User,
		ExpireAt: token.ExpiresAt,
	}, nil
}

// pruneExpiredTokens removes every expired token and returns how many were removed.
func (s *Server) pruneExpiredTokens() int {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	now := s.clock.Now()
	removed := 0
	for value, token := range s.tokens {
		if now.After(token.ExpiresAt) {
			delete(s.tokens, value)
			removed++
		}
	}
	return removed
}

// cleanupExpiredTokens prunes tokens until the server context ends.
func (s *Server) cleanupExpiredTokens() {
	defer s.wg.Done()

	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.pruneExpiredTokens(); n > 0 {
				s.logger.Debug("Pruned expired tokens", "count", n)
			}
		}
	}
}

// passwordHandler accepts a password that is a live token.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	token, valid := s.ValidateToken(TokenValue(password))
	if !valid {
		s.logger.Warn("Invalid token authentication attempt", "user", ctx.User(), "remote", ctx.RemoteAddr())
		return false
	}

	ctx.SetValue(tokenContextKey, token)
	s.logger.Debug("Token authentication successful", "label", token.Label)
	return true
}

// publicKeyHandler rejects all public key authentication.
func (s *Server) publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return false
}
