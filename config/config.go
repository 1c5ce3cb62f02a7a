package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
)

// DefaultPropertiesFile is read when FLIGHT_SCRAPER_PROPERTIES is unset
const DefaultPropertiesFile = "flight-scraper.properties"

// Config holds all application-level configuration
type Config struct {
	// Search
	Platform   string
	APIURL     string
	From       string
	To         string
	TripType   string
	Adults     int
	Children   string
	CabinClass string
	Sort       string
	StartDate  string // YYYY-MM-DD; first departure date of the grid

	// Date grid
	DaysRange  int
	ReturnDays int
	TopN       int
	PerDateCap int
	Limit      int // truncate ranked results; 0 keeps all

	// Transport
	Transport       string // "http" or "browser"
	Proxy           string
	DelayMinSeconds int
	DelayMaxSeconds int
	MaxRetries      int
	TimeoutSeconds  int

	// Output
	CSVFilePath string
	OutputDir   string
	NotifyTitle string

	// Database (empty disables)
	DatabaseURL string

	// Redis payload cache (empty address disables)
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLMinutes int

	// OpenSearch (no addresses disables)
	OpenSearchAddresses []string
	OpenSearchUser      string
	OpenSearchPass      string
	OpenSearchIndex     string

	// SFTP upload of the CSV (empty host disables)
	SFTPHost       string
	SFTPPort       int
	SFTPUser       string
	SFTPPass       string
	SFTPRemoteDir  string
	SFTPKnownHosts string

	// Notifications
	ServerChanEnabled bool
	ServerChanKey     string
	TelegramEnabled   bool
	TelegramToken     string
	TelegramChatID    string
	EmailEnabled      bool
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	EmailTo           []string

	// Cron spec for daemon mode; empty runs once
	Schedule string
}

// Load reads .env, then the properties file, then the environment.
// Environment variables win over the properties file, which wins over defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("FLIGHT_SCRAPER_PROPERTIES")
	if path == "" {
		path = DefaultPropertiesFile
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit properties file; a missing file is not an error
func LoadFrom(propertiesPath string) (*Config, error) {
	src := source{}
	if propertiesPath != "" {
		if _, err := os.Stat(propertiesPath); err == nil {
			p, err := properties.LoadFile(propertiesPath, properties.UTF8)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", propertiesPath, err)
			}
			src.props = p
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", propertiesPath, err)
		}
	}

	cfg := &Config{
		Platform:   src.getEnv("PLATFORM", "booking"),
		APIURL:     src.getEnv("API_URL", "https://flights.booking.com/api/flights/"),
		From:       src.getEnv("SEARCH_FROM", "PEK.AIRPORT"),
		To:         src.getEnv("SEARCH_TO", "PAR.CITY"),
		TripType:   src.getEnv("SEARCH_TYPE", "ROUNDTRIP"),
		Adults:     src.getEnvInt("SEARCH_ADULTS", 1),
		Children:   src.getEnv("SEARCH_CHILDREN", ""),
		CabinClass: src.getEnv("SEARCH_CABIN_CLASS", "ECONOMY"),
		Sort:       src.getEnv("SEARCH_SORT", "CHEAPEST"),
		StartDate:  src.getEnv("SEARCH_DEPART", ""),

		DaysRange:  src.getEnvInt("DAYS_RANGE", 10),
		ReturnDays: src.getEnvInt("RETURN_DAYS", 36),
		TopN:       src.getEnvInt("TOP_N", 5),
		PerDateCap: src.getEnvInt("PER_DATE_CAP", 5),
		Limit:      src.getEnvInt("RESULT_LIMIT", 0),

		Transport:       strings.ToLower(src.getEnv("TRANSPORT", "http")),
		Proxy:           src.getEnv("PROXY_URL", ""),
		DelayMinSeconds: src.getEnvInt("DELAY_MIN_SECONDS", 1),
		DelayMaxSeconds: src.getEnvInt("DELAY_MAX_SECONDS", 10),
		MaxRetries:      src.getEnvInt("MAX_RETRIES", 3),
		TimeoutSeconds:  src.getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),

		CSVFilePath: src.getEnv("CSV_FILE_PATH", "output/multi_date_flights.csv"),
		OutputDir:   src.getEnv("OUTPUT_DIR", "output"),
		NotifyTitle: src.getEnv("NOTIFY_TITLE", "Cheapest flights"),

		DatabaseURL: src.getEnv("DATABASE_URL", ""),

		RedisAddr:       src.getEnv("REDIS_ADDR", ""),
		RedisPassword:   src.getEnv("REDIS_PASSWORD", ""),
		RedisDB:         src.getEnvInt("REDIS_DB", 0),
		CacheTTLMinutes: src.getEnvInt("CACHE_TTL_MINUTES", 60),

		OpenSearchAddresses: src.getEnvList("OPENSEARCH_ADDRESSES"),
		OpenSearchUser:      src.getEnv("OPENSEARCH_USERNAME", ""),
		OpenSearchPass:      src.getEnv("OPENSEARCH_PASSWORD", ""),
		OpenSearchIndex:     src.getEnv("OPENSEARCH_INDEX", "flight-results"),

		SFTPHost:       src.getEnv("SFTP_HOST", ""),
		SFTPPort:       src.getEnvInt("SFTP_PORT", 22),
		SFTPUser:       src.getEnv("SFTP_USER", ""),
		SFTPPass:       src.getEnv("SFTP_PASS", ""),
		SFTPRemoteDir:  src.getEnv("SFTP_REMOTE_DIR", "/"),
		SFTPKnownHosts: src.getEnv("SFTP_KNOWN_HOSTS", ""),

		ServerChanEnabled: src.getEnvBool("SERVER_CHAN_ENABLE", true),
		ServerChanKey:     src.getEnv("SERVER_CHAN_KEY", ""),
		TelegramEnabled:   src.getEnvBool("TELEGRAM_ENABLE", false),
		TelegramToken:     src.getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    src.getEnv("TELEGRAM_CHAT_ID", ""),
		EmailEnabled:      src.getEnvBool("EMAIL_ENABLE", false),
		SMTPHost:          src.getEnv("SMTP_HOST", ""),
		SMTPPort:          src.getEnvInt("SMTP_PORT", 587),
		SMTPUser:          src.getEnv("SMTP_USER", ""),
		SMTPPass:          src.getEnv("SMTP_PASS", ""),
		EmailTo:           src.getEnvList("EMAIL_TO"),

		Schedule: src.getEnv("SCHEDULE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make every run fail
func (c *Config) Validate() error {
	var problems []string
	if c.APIURL == "" {
		problems = append(problems, "API_URL is empty")
	}
	if c.Transport != "http" && c.Transport != "browser" {
		problems = append(problems, fmt.Sprintf("TRANSPORT must be http or browser, got %q", c.Transport))
	}
	if c.DelayMinSeconds < 0 || c.DelayMaxSeconds < c.DelayMinSeconds {
		problems = append(problems, fmt.Sprintf("invalid delay range %d-%d", c.DelayMinSeconds, c.DelayMaxSeconds))
	}
	if c.Adults < 1 {
		problems = append(problems, "SEARCH_ADULTS must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SearchQuery returns the provider query parameters shared by every date;
// depart/return are set per date window.
func (c *Config) SearchQuery() url.Values {
	q := url.Values{}
	q.Set("type", c.TripType)
	q.Set("adults", strconv.Itoa(c.Adults))
	q.Set("cabinClass", c.CabinClass)
	q.Set("children", c.Children)
	q.Set("from", c.From)
	q.Set("to", c.To)
	if c.Sort != "" {
		q.Set("sort", c.Sort)
	}
	return q
}

type source struct {
	props *properties.Properties
}

func (s source) lookup(key string) (string, bool) {
	if val := os.Getenv(key); val != "" {
		return val, true
	}
	if s.props != nil {
		if val, ok := s.props.Get(key); ok && val != "" {
			return val, true
		}
	}
	return "", false
}

func (s source) getEnv(key, defaultVal string) string {
	if val, ok := s.lookup(key); ok {
		return val
	}
	return defaultVal
}

func (s source) getEnvInt(key string, defaultVal int) int {
	if val, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return defaultVal
}

func (s source) getEnvBool(key string, defaultVal bool) bool {
	if val, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

func (s source) getEnvList(key string) []string {
	val, ok := s.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
