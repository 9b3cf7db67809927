package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Station  StationData  `yaml:"station" envconfig:"STATION"`
	Analysis AnalysisData `yaml:"analysis" envconfig:"ANALYSIS"`
	Period   PeriodData   `yaml:"period" envconfig:"PERIOD"`
	Paths    PathsData    `yaml:"paths" envconfig:"PATHS"`
	NOAA     NOAAData     `yaml:"noaa" envconfig:"NOAA"`
	Export   ExportData   `yaml:"export" envconfig:"EXPORT"`
	Storage  StorageData  `yaml:"storage" envconfig:"STORAGE"`
	Server   ServerData   `yaml:"server" envconfig:"SERVER"`
}

// StationData identifies the tide station. Latitude and longitude are only
// needed for the daylight column of the detailed export.
type StationData struct {
	ID        string   `yaml:"id" envconfig:"ID" validate:"required"`
	Name      string   `yaml:"name" envconfig:"NAME"`
	Latitude  *float64 `yaml:"latitude" envconfig:"LATITUDE" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `yaml:"longitude" envconfig:"LONGITUDE" validate:"omitempty,gte=-180,lte=180"`
	TimeZone  string   `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
}

// HasCoordinates reports whether both latitude and longitude are set
func (s StationData) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// AnalysisData holds the low tide analysis parameters
type AnalysisData struct {
	DayStartHour   int           `yaml:"day_start_hour" envconfig:"DAY_START_HOUR" validate:"gte=0,lte=23"`
	DayEndHour     int           `yaml:"day_end_hour" envconfig:"DAY_END_HOUR" validate:"gte=1,lte=24,gtfield=DayStartHour"`
	TidepoolTide   float64       `yaml:"tidepool_tide" envconfig:"TIDEPOOL_TIDE"`
	MaxNeighborGap time.Duration `yaml:"max_neighbor_gap" envconfig:"MAX_NEIGHBOR_GAP" validate:"gt=0"`
	EmptyMonths    string        `yaml:"empty_months" envconfig:"EMPTY_MONTHS" validate:"oneof=omit fill"`
}

// PeriodData is the year range requested from the API
type PeriodData struct {
	StartYear int `yaml:"start_year" envconfig:"START_YEAR" validate:"gte=1900,lte=2200"`
	EndYear   int `yaml:"end_year" envconfig:"END_YEAR" validate:"gtefield=StartYear,lte=2200"`
}

// PathsData holds input and output directories
type PathsData struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
}

// NOAAData configures the CO-OPS API client
type NOAAData struct {
	APIURL            string        `yaml:"api_url" envconfig:"API_URL" validate:"required,url"`
	Token             string        `yaml:"token" envconfig:"TOKEN"`
	TokenFile         string        `yaml:"token_file" envconfig:"TOKEN_FILE"`
	Product           string        `yaml:"product" envconfig:"PRODUCT" validate:"oneof=predictions water_level"`
	Datum             string        `yaml:"datum" envconfig:"DATUM" validate:"required"`
	Units             string        `yaml:"units" envconfig:"UNITS" validate:"oneof=english metric"`
	TimeZone          string        `yaml:"time_zone" envconfig:"TIME_ZONE" validate:"oneof=gmt lst lst_ldt"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Concurrency       int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=1,lte=8"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// ExportData controls the output files
type ExportData struct {
	Format    string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv json msgpack xlsx"`
	Precision int    `yaml:"precision" envconfig:"PRECISION" validate:"gte=0,lte=10"`
}

// StorageData selects the observation archive. Both empty disables it.
type StorageData struct {
	SQLitePath  string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"excluded_with=PostgresDSN"`
	PostgresDSN string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
}

// Enabled reports whether an archive backend is configured
func (s StorageData) Enabled() bool {
	return s.SQLitePath != "" || s.PostgresDSN != ""
}

// ServerData configures the REST server
type ServerData struct {
	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	Port       int    `yaml:"port" envconfig:"PORT" validate:"gte=0,lte=65535"`
	Cert       string `yaml:"cert" envconfig:"CERT"`
	Key        string `yaml:"key" envconfig:"KEY" validate:"required_with=Cert"`
}

// DefaultConfig returns the configuration used for any value a file or the
// environment leaves unset
func DefaultConfig() *ConfigData {
	return &ConfigData{
		Station: StationData{
			ID:       "9414131",
			Name:     "Pillar Point Harbor",
			TimeZone: "America/Los_Angeles",
		},
		Analysis: AnalysisData{
			DayStartHour:   10,
			DayEndHour:     16,
			TidepoolTide:   0.1,
			MaxNeighborGap: 16 * time.Hour,
			EmptyMonths:    "omit",
		},
		Period: PeriodData{
			StartYear: 2019,
			EndYear:   2024,
		},
		Paths: PathsData{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
		},
		NOAA: NOAAData{
			APIURL:            "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter",
			TokenFile:         "api_token",
			Product:           "predictions",
			Datum:             "MLLW",
			Units:             "english",
			TimeZone:          "lst_ldt",
			RequestsPerSecond: 2,
			Concurrency:       2,
			Timeout:           15 * time.Second,
		},
		Export: ExportData{
			Format:    "csv",
			Precision: 3,
		},
		Server: ServerData{
			Port: 8080,
		},
	}
}
