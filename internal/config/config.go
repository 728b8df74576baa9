package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr   = ":3000"
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

// TenantConfig names one customer database. ConnectionID is the identifier
// the session cookie carries to route requests to the right connection.
type TenantConfig struct {
	ConnectionID string `mapstructure:"connectionID"`
	Dsn          string `mapstructure:"dsn"`
}

type SessionConfig struct {
	SessionMaxAge  time.Duration            `mapstructure:"sessionMaxAge"`
	CookieName     string                   `mapstructure:"cookieName"`
	CookieHttpOnly bool                     `mapstructure:"cookieHttpOnly"`
	CookieSecure   bool                     `mapstructure:"cookieSecure"`
	RoleTimeouts   map[string]time.Duration `mapstructure:"roleTimeouts"` // role name -> idle timeout
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type Config struct {
	Debug        bool           `mapstructure:"debug"`
	SiteName     string         `mapstructure:"siteName"`
	BaseURL      string         `mapstructure:"baseURL"`
	MasterKey    string         `mapstructure:"masterKey"`
	ListenAddr   string         `mapstructure:"listenAddr"`
	AllowOrigins []string       `mapstructure:"allowOrigins"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Session      SessionConfig  `mapstructure:"session"`
	Mail         MailConfig     `mapstructure:"mail"`
	MySQL        MySQLConfig    `mapstructure:"mysql"`
	Tenants      []TenantConfig `mapstructure:"tenants"`
}

func defaultRoleTimeouts() map[string]time.Duration {
	return map[string]time.Duration{
		model.RolUsuario:       params.DefaultUsuarioIdleTimeout,
		model.RolAdministrador: params.DefaultAdministradorIdleTimeout,
		model.RolSuperusuario:  params.DefaultSuperusuarioIdleTimeout,
	}
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Session.SessionMaxAge == 0 {
		c.Session.SessionMaxAge = DefaultCookieMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "session_id"
	}
	if c.Session.RoleTimeouts == nil {
		c.Session.RoleTimeouts = defaultRoleTimeouts()
	}
	for _, rol := range []string{model.RolUsuario, model.RolAdministrador, model.RolSuperusuario} {
		if c.Session.RoleTimeouts[rol] == 0 {
			c.Session.RoleTimeouts[rol] = defaultRoleTimeouts()[rol]
		}
	}
	for rol, timeout := range c.Session.RoleTimeouts {
		if model.RoleLevel(rol) == 0 {
			return fmt.Errorf("session.roleTimeouts: unknown role %q", rol)
		}
		if timeout <= 0 {
			return fmt.Errorf("session.roleTimeouts: non-positive timeout for role %q", rol)
		}
	}
	seen := make(map[string]bool)
	for _, tenant := range c.Tenants {
		if tenant.ConnectionID == "" || tenant.Dsn == "" {
			return fmt.Errorf("tenants: connectionID and dsn are required")
		}
		if seen[tenant.ConnectionID] {
			return fmt.Errorf("tenants: duplicate connectionID %q", tenant.ConnectionID)
		}
		seen[tenant.ConnectionID] = true
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
