package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Log         LogConfig
	Worker      WorkerConfig
	Mapbox      MapboxConfig
	Google      GoogleConfig
	Ranker      RankerConfig
	Geo         GeoConfig
	Nearest     NearestConfig
	Locations   LocationsConfig
	Session     SessionConfig
	Camera      CameraConfig
	Distance    string
	GeocoderSrc string
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	GeocodeCacheTTL time.Duration
	NearestCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
}

type MapboxConfig struct {
	AccessToken     string
	BaseURL         string
	MaxMatrixPoints int
	DrivingProfile  string
	RequestTimeout  int // seconds
}

type GoogleConfig struct {
	APIKey         string
	BaseURL        string
	UnitSystem     string
	TravelMode     string
	RequestTimeout int // seconds
}

type RankerConfig struct {
	BatchSize            int
	MaxConcurrentBatches int
	BatchTimeout         time.Duration
}

type GeoConfig struct {
	// CountryRestriction - ISO код страны, пустая строка отключает ограничение
	CountryRestriction string
	GeolocationTimeout time.Duration
	GeolocationMaxAge  time.Duration
}

type NearestConfig struct {
	EndpointURL    string
	DefaultLimit   int
	RequestTimeout time.Duration
}

type LocationsConfig struct {
	Source    string // postgres | xlsx
	XLSXPath  string
	XLSXSheet string
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type CameraConfig struct {
	FitPadding int
}

const (
	ProviderGoogle    = "google"
	ProviderMapbox    = "mapbox"
	ProviderHaversine = "haversine"

	SourcePostgres = "postgres"
	SourceXLSX     = "xlsx"
)

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env не обязателен, переменные окружения имеют приоритет
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("API_HOST"),
			Port:         viper.GetInt("API_PORT"),
			Env:          viper.GetString("API_ENV"),
			AllowOrigins: viper.GetString("API_ALLOW_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			GeocodeCacheTTL: time.Duration(viper.GetInt("GEOCODE_CACHE_TTL")) * time.Second,
			NearestCacheTTL: time.Duration(viper.GetInt("NEAREST_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
		},
		Mapbox: MapboxConfig{
			AccessToken:     viper.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:         viper.GetString("MAPBOX_BASE_URL"),
			MaxMatrixPoints: viper.GetInt("MAPBOX_MAX_MATRIX_POINTS"),
			DrivingProfile:  viper.GetString("MAPBOX_DRIVING_PROFILE"),
			RequestTimeout:  viper.GetInt("MAPBOX_REQUEST_TIMEOUT"),
		},
		Google: GoogleConfig{
			APIKey:         viper.GetString("GOOGLE_API_KEY"),
			BaseURL:        viper.GetString("GOOGLE_BASE_URL"),
			UnitSystem:     viper.GetString("GOOGLE_UNIT_SYSTEM"),
			TravelMode:     viper.GetString("GOOGLE_TRAVEL_MODE"),
			RequestTimeout: viper.GetInt("GOOGLE_REQUEST_TIMEOUT"),
		},
		Ranker: RankerConfig{
			BatchSize:            viper.GetInt("RANKER_BATCH_SIZE"),
			MaxConcurrentBatches: viper.GetInt("RANKER_MAX_CONCURRENT_BATCHES"),
			BatchTimeout:         time.Duration(viper.GetInt("RANKER_BATCH_TIMEOUT")) * time.Millisecond,
		},
		Geo: GeoConfig{
			CountryRestriction: strings.ToUpper(strings.TrimSpace(viper.GetString("GEO_COUNTRY_RESTRICTION"))),
			GeolocationTimeout: time.Duration(viper.GetInt("GEOLOCATION_TIMEOUT")) * time.Millisecond,
			GeolocationMaxAge:  time.Duration(viper.GetInt("GEOLOCATION_MAX_AGE")) * time.Millisecond,
		},
		Nearest: NearestConfig{
			EndpointURL:    viper.GetString("NEAREST_ENDPOINT_URL"),
			DefaultLimit:   viper.GetInt("NEAREST_DEFAULT_LIMIT"),
			RequestTimeout: time.Duration(viper.GetInt("NEAREST_REQUEST_TIMEOUT")) * time.Second,
		},
		Locations: LocationsConfig{
			Source:    strings.ToLower(viper.GetString("LOCATIONS_SOURCE")),
			XLSXPath:  viper.GetString("LOCATIONS_XLSX_PATH"),
			XLSXSheet: viper.GetString("LOCATIONS_XLSX_SHEET"),
		},
		Session: SessionConfig{
			IdleTTL:       time.Duration(viper.GetInt("SESSION_IDLE_TTL")) * time.Second,
			SweepInterval: time.Duration(viper.GetInt("SESSION_SWEEP_INTERVAL")) * time.Second,
		},
		Camera: CameraConfig{
			FitPadding: viper.GetInt("CAMERA_FIT_PADDING"),
		},
		Distance:    strings.ToLower(viper.GetString("DISTANCE_PROVIDER")),
		GeocoderSrc: strings.ToLower(viper.GetString("GEOCODER_PROVIDER")),
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults - значения по умолчанию, если переменные не заданы
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.AllowOrigins == "" {
		c.Server.AllowOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.GeocodeCacheTTL == 0 {
		c.Cache.GeocodeCacheTTL = 24 * time.Hour
	}
	if c.Cache.NearestCacheTTL == 0 {
		c.Cache.NearestCacheTTL = 5 * time.Minute
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "nearest-ranking-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 500 * time.Millisecond
	}
	if c.Mapbox.BaseURL == "" {
		c.Mapbox.BaseURL = "https://api.mapbox.com"
	}
	if c.Mapbox.MaxMatrixPoints == 0 {
		c.Mapbox.MaxMatrixPoints = 25
	}
	if c.Mapbox.DrivingProfile == "" {
		c.Mapbox.DrivingProfile = "mapbox/driving"
	}
	if c.Mapbox.RequestTimeout == 0 {
		c.Mapbox.RequestTimeout = 30
	}
	if c.Google.BaseURL == "" {
		c.Google.BaseURL = "https://maps.googleapis.com/maps/api"
	}
	if c.Google.UnitSystem == "" {
		c.Google.UnitSystem = "imperial"
	}
	if c.Google.TravelMode == "" {
		c.Google.TravelMode = "driving"
	}
	if c.Google.RequestTimeout == 0 {
		c.Google.RequestTimeout = 10
	}
	if c.Ranker.BatchSize == 0 {
		c.Ranker.BatchSize = 25
	}
	if c.Ranker.MaxConcurrentBatches == 0 {
		c.Ranker.MaxConcurrentBatches = 4
	}
	if c.Ranker.BatchTimeout == 0 {
		c.Ranker.BatchTimeout = 10 * time.Second
	}
	if c.Geo.GeolocationTimeout == 0 {
		c.Geo.GeolocationTimeout = 10 * time.Second
	}
	if c.Geo.GeolocationMaxAge == 0 {
		c.Geo.GeolocationMaxAge = 5 * time.Minute
	}
	if c.Nearest.DefaultLimit == 0 {
		c.Nearest.DefaultLimit = 3
	}
	if c.Nearest.RequestTimeout == 0 {
		c.Nearest.RequestTimeout = 15 * time.Second
	}
	if c.Locations.Source == "" {
		c.Locations.Source = SourcePostgres
	}
	if c.Locations.XLSXSheet == "" {
		c.Locations.XLSXSheet = "Locations"
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 30 * time.Minute
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = time.Minute
	}
	if c.Camera.FitPadding == 0 {
		c.Camera.FitPadding = 60
	}
	if c.Distance == "" {
		c.Distance = ProviderGoogle
	}
	if c.GeocoderSrc == "" {
		c.GeocoderSrc = c.Distance
		if c.Distance == ProviderHaversine {
			c.GeocoderSrc = ProviderGoogle
		}
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	switch c.Distance {
	case ProviderGoogle, ProviderMapbox, ProviderHaversine:
	default:
		return fmt.Errorf("unknown provider %q: expected %s, %s or %s",
			c.Distance, ProviderGoogle, ProviderMapbox, ProviderHaversine)
	}
	if c.GeocoderSrc != ProviderGoogle && c.GeocoderSrc != ProviderMapbox {
		return fmt.Errorf("unknown provider %q: expected %s or %s", c.GeocoderSrc, ProviderGoogle, ProviderMapbox)
	}
	if c.Locations.Source != SourcePostgres && c.Locations.Source != SourceXLSX {
		return fmt.Errorf("unknown locations source %q", c.Locations.Source)
	}
	if c.Locations.Source == SourceXLSX && c.Locations.XLSXPath == "" {
		return fmt.Errorf("LOCATIONS_XLSX_PATH is required for xlsx source")
	}
	if c.Ranker.BatchSize < 1 {
		return fmt.Errorf("RANKER_BATCH_SIZE must be positive")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN - строка подключения для pgx stdlib
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
