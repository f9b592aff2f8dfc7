package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Security
}

func New() Config {
	return mainConfig{}
}
