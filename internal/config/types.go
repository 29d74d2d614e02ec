package config

type Target struct {
	Name      string            `hcl:",key"`
	BaseURL   string            `hcl:"baseURL"`
	Resources []string          `hcl:"resources"`
	Token     string            `hcl:"token"`
	Timeout   string            `hcl:"timeout"`
	Headers   map[string]string `hcl:"headers"`
}

type Config struct {
	Targets []Target `hcl:"target"`
}
