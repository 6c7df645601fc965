// Package config описывает файл настроек утилиты owdb.
package config

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	owdb "github.com/qbixus/owdb-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"strings"
)

var ErrInvalidConfig = errors.New("#CONFIG_INVALID")

const (
	DefaultDriver    = "sqlite"
	DefaultIsolation = "read-committed"
	DefaultLogLevel  = "info"
)

// Config - настройки подключения и журнала.
type Config struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	Isolation string `yaml:"isolation"`
	Log       Log    `yaml:"log"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// New дополняет c значениями по умолчанию и проверяет его. Повторный вызов на результате ничего не меняет.
//
// Для SQLite уровень изоляции по умолчанию - serializable: другого этот драйвер не предоставляет.
func New(c Config) (Config, error) {
	c.Driver = strings.TrimSpace(c.Driver)
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if strings.TrimSpace(c.DSN) == "" {
		return Config{}, fmt.Errorf("%w: dsn is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Isolation) == "" {
		c.Isolation = DefaultIsolation
		if c.Driver == DefaultDriver {
			c.Isolation = "serializable"
		}
	}
	if _, err := owdb.ParseIsolation(c.Isolation); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return Config{}, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// Parse разбирает YAML-документ настроек. Неизвестные поля считаются ошибкой.
func Parse(data []byte) (Config, error) {
	c, err := decode(data)
	if err != nil {
		return Config{}, err
	}
	return New(c)
}

func decode(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// Read разбирает файл настроек как есть, без значений по умолчанию и проверки.
// Нужен, чтобы поверх файла применить флаги и только потом вызвать New.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Load(path string) (Config, error) {
	c, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if c, err = New(c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// IsolationLevel возвращает уровень изоляции новых транзакций.
func (c Config) IsolationLevel() sql.IsolationLevel {
	level, err := owdb.ParseIsolation(c.Isolation)
	if err != nil {
		return sql.LevelDefault
	}
	return level
}

// Logger строит журнал zap: production-конфигурацию или, если задан log.development, development.
func (c Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
