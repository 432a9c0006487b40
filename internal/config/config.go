package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Supabase SupabaseConfig
	Printing PrintingConfig
	FedEx    FedExConfig
	Polling  PollingConfig
}

// ServerConfig holds options for the local admin HTTP surface.
type ServerConfig struct {
	Port string
}

// StoreConfig identifies this installation and the export drop folder it watches.
type StoreConfig struct {
	Name             string // "yakima" or "toppenish"
	WatchFolder      string
	FilePattern      string // inventory export name filter
	SalesFilePattern string
	OutputDir        string // rendered order documents and shipping labels
}

// SupabaseConfig contains credentials for the remote store REST API.
type SupabaseConfig struct {
	URL string
	Key string
}

// PrintingConfig controls automatic printing of rendered order documents.
type PrintingConfig struct {
	Enabled         bool
	PrinterName     string
	GhostscriptPath string // optional override; auto-detected when empty
}

// FedExConfig holds carrier API credentials and per-location shipper profiles.
type FedExConfig struct {
	APIKey        string
	SecretKey     string
	AccountNumber string
	Sandbox       bool
	Shippers      map[string]ShipperProfile // keyed by location name
}

// ShipperProfile is the carrier "from" address for one fulfillment location.
type ShipperProfile struct {
	Company string
	Contact string
	Street  string
	City    string
	State   string
	Zip     string
	Phone   string
}

// PollingConfig holds worker loop settings.
type PollingConfig struct {
	IntervalSeconds int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	interval, err := strconv.Atoi(getenvWithDefault("POLL_INTERVAL_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("ADMIN_PORT", "8750"),
		},
		Store: StoreConfig{
			Name:             os.Getenv("STORE_NAME"),
			WatchFolder:      os.Getenv("WATCH_FOLDER"),
			FilePattern:      getenvWithDefault("INVENTORY_FILE_PATTERN", "Inventory"),
			SalesFilePattern: getenvWithDefault("SALES_FILE_PATTERN", "Sales by Transaction"),
			OutputDir:        getenvWithDefault("OUTPUT_DIR", "order_pdfs"),
		},
		Supabase: SupabaseConfig{
			URL: os.Getenv("SUPABASE_URL"),
			Key: os.Getenv("SUPABASE_KEY"),
		},
		Printing: PrintingConfig{
			Enabled:         getenvWithDefault("ENABLE_PRINTER", "false") == "true",
			PrinterName:     os.Getenv("PRINTER_NAME"),
			GhostscriptPath: os.Getenv("GHOSTSCRIPT_PATH"),
		},
		FedEx: FedExConfig{
			APIKey:        os.Getenv("FEDEX_API_KEY"),
			SecretKey:     os.Getenv("FEDEX_SECRET_KEY"),
			AccountNumber: os.Getenv("FEDEX_ACCOUNT_NUMBER"),
			Sandbox:       getenvWithDefault("FEDEX_USE_SANDBOX", "false") == "true",
			Shippers: map[string]ShipperProfile{
				"Yakima":    shipperFromEnv("YAKIMA"),
				"Toppenish": shipperFromEnv("TOPPENISH"),
			},
		},
		Polling: PollingConfig{
			IntervalSeconds: interval,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("ADMIN_PORT must be provided")
	}

	switch {
	case c.Supabase.URL == "":
		return errors.New("SUPABASE_URL must be provided")
	case c.Supabase.Key == "":
		return errors.New("SUPABASE_KEY must be provided")
	}

	if c.Store.WatchFolder == "" {
		return errors.New("WATCH_FOLDER must be provided")
	}

	if c.Store.FilePattern == "" {
		return errors.New("INVENTORY_FILE_PATTERN must not be empty")
	}

	if c.Store.OutputDir == "" {
		return errors.New("OUTPUT_DIR must not be empty")
	}

	if c.Printing.Enabled && c.Printing.PrinterName == "" {
		return errors.New("PRINTER_NAME must be provided when ENABLE_PRINTER is true")
	}

	if c.Polling.IntervalSeconds <= 0 {
		return errors.New("POLL_INTERVAL_SECONDS must be positive")
	}

	// FedEx credentials are optional; label issuance short-circuits with a
	// configuration error when they are missing.

	return nil
}

func shipperFromEnv(location string) ShipperProfile {
	prefix := "FEDEX_SHIPPER_" + location + "_"
	return ShipperProfile{
		Company: os.Getenv(prefix + "COMPANY"),
		Contact: os.Getenv(prefix + "CONTACT"),
		Street:  os.Getenv(prefix + "STREET"),
		City:    os.Getenv(prefix + "CITY"),
		State:   os.Getenv(prefix + "STATE"),
		Zip:     os.Getenv(prefix + "ZIP"),
		Phone:   os.Getenv(prefix + "PHONE"),
	}
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
