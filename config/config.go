package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Quicket ticketing platform. Email/password drive the browser bot;
	// the API key and user token authenticate the REST API.
	QuicketEmail     string
	QuicketPassword  string
	QuicketAPIKey    string
	QuicketUserToken string

	// Paycloud card terminal gateway. Keys are PEM encoded.
	PaycloudBaseURL          string
	PaycloudAppID            string
	PaycloudPrivateKey       string
	PaycloudGatewayPublicKey string
	PaycloudMerchantNo       string
	PaycloudTerminals        []string // terminal serial numbers to reconcile

	// Loyverse cloud POS
	LoyverseAPIKey  string
	LoyverseStoreID string

	// Aronium local POS ledger
	AroniumDBPath string

	// Inventory sync: gazebo ticket types mapped to Loyverse variants,
	// plus the walk-in visitor stock item and its daily capacity.
	GazeboVariants   map[string]string
	VisitorVariantID string
	VisitorCapacity  int

	// Reporting timezone for "today" computations
	Timezone string

	// Admin web surface
	ListenAddr string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		QuicketEmail:     os.Getenv("QUICKET_EMAIL"),
		QuicketPassword:  os.Getenv("QUICKET_PASSWORD"),
		QuicketAPIKey:    os.Getenv("QUICKET_API_KEY"),
		QuicketUserToken: os.Getenv("QUICKET_USER_TOKEN"),

		PaycloudBaseURL:          os.Getenv("PAYCLOUD_BASE_URL"),
		PaycloudAppID:            os.Getenv("PAYCLOUD_APP_ID"),
		PaycloudPrivateKey:       os.Getenv("PAYCLOUD_APP_PRIVATE_KEY"),
		PaycloudGatewayPublicKey: os.Getenv("PAYCLOUD_GATEWAY_PUBLIC_KEY"),
		PaycloudMerchantNo:       os.Getenv("PAYCLOUD_MERCHANT_NO"),

		LoyverseAPIKey:  os.Getenv("LOYVERSE_API_KEY"),
		LoyverseStoreID: os.Getenv("LOYVERSE_STORE_ID"),

		AroniumDBPath: os.Getenv("ARONIUM_DB_PATH"),

		VisitorVariantID: os.Getenv("VISITOR_VARIANT_ID"),

		Timezone:   os.Getenv("PARK_TIMEZONE"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Comma-separated terminal serial numbers
	if terminals := os.Getenv("PAYCLOUD_TERMINALS"); terminals != "" {
		for _, sn := range strings.Split(terminals, ",") {
			sn = strings.TrimSpace(sn)
			if sn != "" {
				config.PaycloudTerminals = append(config.PaycloudTerminals, sn)
			}
		}
	}

	// Comma-separated "Ticket Type=variant_id" pairs
	if pairs := os.Getenv("GAZEBO_VARIANTS"); pairs != "" {
		config.GazeboVariants = make(map[string]string)
		for _, pair := range strings.Split(pairs, ",") {
			name, variantID, found := strings.Cut(strings.TrimSpace(pair), "=")
			if !found || name == "" || variantID == "" {
				return nil, fmt.Errorf("invalid GAZEBO_VARIANTS entry %q", pair)
			}
			config.GazeboVariants[name] = variantID
		}
	}

	if capacity := os.Getenv("VISITOR_CAPACITY"); capacity != "" {
		parsed, err := strconv.Atoi(capacity)
		if err != nil {
			return nil, fmt.Errorf("invalid VISITOR_CAPACITY %q: %w", capacity, err)
		}
		config.VisitorCapacity = parsed
	}

	if config.PaycloudBaseURL == "" {
		config.PaycloudBaseURL = "https://open.paycloud.africa/api/entry/"
	}
	if config.Timezone == "" {
		config.Timezone = "Africa/Johannesburg"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
