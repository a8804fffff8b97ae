package config

type GinConfig struct {
	Addr             string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins     []string `yaml:"allowOrigins" mapstructure:"allowOrigins"`
	AllowMethods     []string `yaml:"allowMethods" mapstructure:"allowMethods"`
	AllowHeaders     []string `yaml:"allowHeaders" mapstructure:"allowHeaders"`
	ExposeHeaders    []string `yaml:"exposeHeaders" mapstructure:"exposeHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials" mapstructure:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge" mapstructure:"maxAge"` // 单位: 秒
	CheckContestPath []string `yaml:"checkContestPath" mapstructure:"checkContestPath"`
}

func (GinConfig) Key() string {
	return "gin"
}

type MySQLConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

func (MySQLConfig) Key() string {
	return "mysql"
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type JWTConfig struct {
	JWTKey string `yaml:"jwtKey" mapstructure:"jwtKey"` // 与 controller 共享的验签密钥
}

func (JWTConfig) Key() string {
	return "jwt"
}

type MinIOConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	UseSSL   bool   `yaml:"useSSL" mapstructure:"useSSL"`
}

func (MinIOConfig) Key() string {
	return "minio"
}

type JudgeEngineConfig struct {
	BaseURL         string `yaml:"baseURL" mapstructure:"baseURL"`                 // 判题引擎地址
	CallbackBaseURL string `yaml:"callbackBaseURL" mapstructure:"callbackBaseURL"` // 本服务对判题引擎可见的回调地址
	AuthToken       string `yaml:"authToken" mapstructure:"authToken"`             // 回调鉴权 token
	TimeoutMs       int    `yaml:"timeoutMs" mapstructure:"timeoutMs"`             // 派发请求超时
	TestcaseBucket  string `yaml:"testcaseBucket" mapstructure:"testcaseBucket"`   // 测试用例所在 bucket
	TrackingTTLMs   int    `yaml:"trackingTTLMs" mapstructure:"trackingTTLMs"`     // 批次跟踪键的兜底过期时间
}

func (JudgeEngineConfig) Key() string {
	return "judgeEngine"
}
