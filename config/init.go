package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Конечная структура конфигурации приложения.
// Расширяем по мере роста проекта.
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`   // 0.0.0.0
		HTTPPort string `mapstructure:"http_port"` // 8080
	} `mapstructure:"server"`

	Database struct {
		Driver string `mapstructure:"driver"` // "mysql" | "postgres"
		DSN    string `mapstructure:"dsn"`    // если пусто — собираем из host/user/...

		Host     string `mapstructure:"host"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		Port     string `mapstructure:"port"`

		MaxOpenConns int `mapstructure:"max_open_conns"` // предел пула соединений
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"` // ключ подписи токенов
		TokenTTL  time.Duration `mapstructure:"token_ttl"`  // срок жизни токена

		// Первичный администратор: создаётся при пустой таблице пользователей.
		BootstrapUsername string `mapstructure:"bootstrap_username"`
		BootstrapPassword string `mapstructure:"bootstrap_password"`
	} `mapstructure:"auth"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // путь/префикс файла, пусто — только stdout
	} `mapstructure:"logs"`

	Permissions struct {
		// Роли, которым разрешено править чужие записи входа/выхода.
		TimeEditorRoles []int `mapstructure:"time_editor_roles"`
	} `mapstructure:"permissions"`
}

// Load читает конфиг из env/файла с дефолтами.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Дефолты (минимальный рабочий набор)
	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "8080")

	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.user", "kontor")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "kontor")
	viper.SetDefault("database.port", "3306")
	viper.SetDefault("database.max_open_conns", 10)

	viper.SetDefault("auth.jwt_secret", "CHANGE_ME")
	viper.SetDefault("auth.token_ttl", time.Hour)
	viper.SetDefault("auth.bootstrap_username", "")
	viper.SetDefault("auth.bootstrap_password", "")

	// Логи — дефолты
	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")
	viper.SetDefault("logs.file", "")

	viper.SetDefault("permissions.time_editor_roles", []int{1, 2})

	// Источник файла
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "kontor"))
		}
		viper.AddConfigPath("/etc/kontor")
	}

	// Чтение файла (опционально)
	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// DatabaseDSN возвращает явный DSN или собирает его из частей
// (совместимо с переменными DATABASE_HOST/USER/PASSWORD/NAME/PORT).
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "mysql":
		// user:pass@tcp(host:3306)/dbname?parseTime=true&charset=utf8mb4
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
	default:
		return ""
	}
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth.jwt_secret must be set (not empty and not CHANGE_ME)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}
