package app

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

const secretLength = 32

// loadSigningSecret resolves the process-wide token signing secret. An
// explicit value from the environment wins; otherwise the secret file is
// read, and created with fresh entropy on first boot so restarts keep
// existing sessions valid.
func loadSigningSecret(cfg Config) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}

	path := filepath.Clean(cfg.SecretFile)
	if data, err := os.ReadFile(path); err == nil {
		if len(data) == 0 {
			return nil, fmt.Errorf("secret file %s exists but is empty", path)
		}
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read secret file %s: %w", path, err)
	}

	raw := make([]byte, secretLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	secret := []byte(base64.RawURLEncoding.EncodeToString(raw))

	if err := os.WriteFile(path, secret, 0600); err != nil {
		return nil, err
	}
	return secret, nil
}
