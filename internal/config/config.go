package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("openweathermap.icon_url", "https://openweathermap.org/img/wn/%s.png")
	viper.SetDefault("openweathermap.timeout", "10s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("geolocation.permission_ttl", "30m")
	viper.SetDefault("geolocation.position_ttl", "2m")
	viper.SetDefault("geolocation.ip_lookup.enabled", true)
	viper.SetDefault("geolocation.ip_lookup.url", "http://ip-api.com/json/?fields=status,message,lat,lon")
	viper.SetDefault("geolocation.ip_lookup.timeout", "3s")
	viper.SetDefault("otel.service_name", "weather-now")
	viper.SetDefault("otel.collector_endpoint", "")
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Error finding project root, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Warnw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func getDuration(key string, fallback time.Duration) time.Duration {
	initConfig()
	durStr := viper.GetString(key)
	if durStr == "" {
		return fallback
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return fallback
	}
	return dur
}

func GetOpenWeatherApiUrl() string {
	initConfig()
	return viper.GetString("openweathermap.api_url")
}

// GetOpenWeatherIconUrl returns the icon URL template; %s is replaced by the icon id.
func GetOpenWeatherIconUrl() string {
	initConfig()
	return viper.GetString("openweathermap.icon_url")
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

// GetOpenWeatherTimeout bounds a single outbound weather request. Defaults to 10s.
func GetOpenWeatherTimeout() time.Duration {
	return getDuration("openweathermap.timeout", 10*time.Second)
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

// GetServerTimeoutDuration parses one of the server.* timeouts, falling back when unset or invalid.
func GetServerTimeoutDuration(key string, fallback time.Duration) time.Duration {
	dur, err := time.ParseDuration(GetServerTimeout(key))
	if err != nil {
		return fallback
	}
	return dur
}

// GetPermissionTTL is how long a registered device session lives. Defaults to 30m.
func GetPermissionTTL() time.Duration {
	return getDuration("geolocation.permission_ttl", 30*time.Minute)
}

// GetPositionTTL is how long a reported device position stays current. Defaults to 2m.
func GetPositionTTL() time.Duration {
	return getDuration("geolocation.position_ttl", 2*time.Minute)
}

func IsIPLookupEnabled() bool {
	initConfig()
	return viper.GetBool("geolocation.ip_lookup.enabled")
}

func GetIPLookupUrl() string {
	initConfig()
	return viper.GetString("geolocation.ip_lookup.url")
}

func GetIPLookupTimeout() time.Duration {
	return getDuration("geolocation.ip_lookup.timeout", 3*time.Second)
}

func GetOtelServiceName() string {
	initConfig()
	return viper.GetString("otel.service_name")
}

// GetOtelCollectorEndpoint returns the OTLP gRPC endpoint. Empty disables trace export.
func GetOtelCollectorEndpoint() string {
	initConfig()
	return viper.GetString("otel.collector_endpoint")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}
