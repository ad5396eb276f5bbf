package config

type Config interface {
	EnvConfig
	CorsConfig
	BrowserConfig
	RefreshConfig
	SecurityConfig
	MailConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Browser
	Refresh
	Security
	Mail
}

func New() Config {
	return mainConfig{}
}
