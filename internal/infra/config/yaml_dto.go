package config

// YAMLConfig mirrors tether.yaml. Pointers distinguish "unset" from zero.
type YAMLConfig struct {
	Tether struct {
		API      YAMLAPI         `yaml:"api"`
		Store    YAMLStore       `yaml:"store"`
		Cache    YAMLCache       `yaml:"cache"`
		DB       YAMLDB          `yaml:"db"`
		Features map[string]bool `yaml:"features"`
		Log      YAMLLog         `yaml:"log"`
	} `yaml:"tether"`
}

type YAMLAPI struct {
	URL        string `yaml:"url"`
	Key        string `yaml:"key"`
	Timeout    string `yaml:"timeout"`
	MaxRetries *int   `yaml:"max_retries"`
	RateLimit  *int   `yaml:"rate_limit"`
}

type YAMLStore struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type YAMLCache struct {
	Driver    string `yaml:"driver"`
	TTL       string `yaml:"ttl"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   *int   `yaml:"redis_db"`
}

type YAMLDB struct {
	Host              string `yaml:"host"`
	Port              *int   `yaml:"port"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	Database          string `yaml:"database"`
	MaxConnections    *int   `yaml:"max_connections"`
	ConnectionTimeout string `yaml:"connection_timeout"`
}

type YAMLLog struct {
	Debug *bool  `yaml:"debug"`
	Dir   string `yaml:"dir"`
}
