package config

type SecurityConfig interface {
	GetVaultSecret() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetVaultSecret is the passphrase stored passwords are sealed with. The
// default is only suitable for local development.
func (Security) GetVaultSecret() string {
	return GetEnv("VAULT_SECRET", "insecure-dev-secret")
}
