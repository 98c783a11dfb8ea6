package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charlesng35/termfolio/pkg/crypto"
)

const (
	jwtSecretBytes     = 48
	encryptionKeyBytes = 32
	rootPasswordBytes  = 18
)

// ApplyRuntimeDefaults populates secrets that were left unset so a fresh
// deployment works without a config file. The returned map names which keys
// were generated; callers log the event without exposing values. A generated
// root password is the exception and is returned for one-time display.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)
	rootPassword := ""

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, "", fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	if strings.TrimSpace(cfg.Auth.EncryptionKey) == "" {
		key, err := generateHexKey(encryptionKeyBytes)
		if err != nil {
			return nil, "", fmt.Errorf("generate encryption key: %w", err)
		}
		cfg.Auth.EncryptionKey = key
		generated["auth.encryption_key"] = true
	}

	if strings.TrimSpace(cfg.Auth.RootPassword) == "" {
		password, err := crypto.GenerateToken(rootPasswordBytes)
		if err != nil {
			return nil, "", fmt.Errorf("generate root password: %w", err)
		}
		cfg.Auth.RootPassword = password
		rootPassword = password
		generated["auth.root_password"] = true
	}

	return generated, rootPassword, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
