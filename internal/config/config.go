package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Trello struct {
	APIKey      string   `mapstructure:"api_key"`
	APIToken    string   `mapstructure:"api_token"`
	BoardID     string   `mapstructure:"board_id"`
	BoardIDs    []string `mapstructure:"board_ids"`
	ListID      string   `mapstructure:"list_id"`
	BaseURL     string   `mapstructure:"base_url"`
	PageSize    int      `mapstructure:"page_size"`
	CallbackURL string   `mapstructure:"callback_url"`
}

type Adpiler struct {
	APIKey       string `mapstructure:"api_key"`
	ClientID     string `mapstructure:"client_id"`
	CampaignID   string `mapstructure:"campaign_id"`
	CampaignsURL string `mapstructure:"campaigns_url"`
	CreativesURL string `mapstructure:"creatives_url"`
}

type Output struct {
	ClientsDir string `mapstructure:"clients_dir"`
	UploadLog  string `mapstructure:"upload_log"`
}

type S3 struct {
	Endpoint     string `mapstructure:"endpoint"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	Prefix       string `mapstructure:"prefix"`
}

// Enabled reports whether artifacts should be mirrored to a bucket.
func (s S3) Enabled() bool { return s.Bucket != "" }

// Config holds all configuration (file + env overrides)
type Config struct {
	Trello  Trello  `mapstructure:"trello"`
	Adpiler Adpiler `mapstructure:"adpiler"`
	Output  Output  `mapstructure:"output"`
	S3      S3      `mapstructure:"s3"`

	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`

	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	Metrics struct {
		PushgatewayURL string `mapstructure:"pushgateway_url"`
	} `mapstructure:"metrics"`

	Server struct {
		Port      string `mapstructure:"port"`
		QueueSize int    `mapstructure:"queue_size"`
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var envBindings = map[string][]string{
	"trello.api_key":          {"TRELLO_KEY", "TRELLO_API_KEY"},
	"trello.api_token":        {"TRELLO_TOKEN"},
	"trello.board_id":         {"TRELLO_BOARD_ID"},
	"trello.list_id":          {"TRELLO_LIST_ID"},
	"trello.base_url":         {"TRELLO_BASE_URL"},
	"trello.page_size":        {"TRELLO_PAGE_SIZE"},
	"trello.callback_url":     {"TRELLO_CALLBACK_URL"},
	"adpiler.api_key":         {"ADPILER_API_KEY"},
	"adpiler.client_id":       {"ADPILER_CLIENT_ID"},
	"adpiler.campaign_id":     {"ADPILER_CAMPAIGN_ID"},
	"adpiler.campaigns_url":   {"ADPILER_CAMPAIGNS_URL"},
	"adpiler.creatives_url":   {"ADPILER_CREATIVES_URL"},
	"output.clients_dir":      {"CLIENTS_DIR"},
	"output.upload_log":       {"UPLOAD_LOG"},
	"http.timeout":            {"HTTP_TIMEOUT"},
	"store.path":              {"STORE_PATH"},
	"s3.endpoint":             {"S3_ENDPOINT"},
	"s3.bucket":               {"S3_BUCKET"},
	"s3.region":               {"S3_REGION"},
	"s3.access_key":           {"S3_ACCESS_KEY"},
	"s3.secret_key":           {"S3_SECRET_KEY"},
	"s3.use_path_style":       {"S3_USE_PATH_STYLE"},
	"s3.prefix":               {"S3_PREFIX"},
	"metrics.pushgateway_url": {"PUSHGATEWAY_URL"},
	"server.port":             {"PORT"},
	"server.queue_size":       {"QUEUE_SIZE"},
	"log.level":               {"LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trello.base_url", "https://api.trello.com/1")
	v.SetDefault("adpiler.campaigns_url", "https://api.adpiler.com/v1/campaigns")
	v.SetDefault("adpiler.creatives_url", "https://platform.adpiler.com/api/v1/creatives")
	v.SetDefault("output.clients_dir", "clients")
	v.SetDefault("output.upload_log", "upload-log.json")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("store.path", "adpiler-sync.db")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.queue_size", 64)
	v.SetDefault("log.level", "debug")
}

// Load reads config.toml from the working directory (or file, when set) and
// overlays the environment. A missing config file is not an error.
func Load(file string) (Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if len(cfg.Trello.BoardIDs) == 0 && cfg.Trello.BoardID != "" {
		cfg.Trello.BoardIDs = []string{cfg.Trello.BoardID}
	}
	cfg.Trello.BaseURL = strings.TrimRight(cfg.Trello.BaseURL, "/")
	return cfg, nil
}

type fieldCheck struct {
	key   string
	value string
}

func missing(checks ...fieldCheck) error {
	var keys []string
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			keys = append(keys, c.key)
		}
	}
	if len(keys) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ValidateSync checks what the metadata sync needs. The board id is only
// required for a board-wide run.
func (c Config) ValidateSync(singleCard bool) error {
	checks := []fieldCheck{
		{"trello.api_key", c.Trello.APIKey},
		{"trello.api_token", c.Trello.APIToken},
		{"adpiler.api_key", c.Adpiler.APIKey},
		{"adpiler.campaigns_url", c.Adpiler.CampaignsURL},
		{"output.clients_dir", c.Output.ClientsDir},
	}
	if !singleCard {
		checks = append(checks, fieldCheck{"trello.board_id", c.Trello.BoardID})
	}
	return missing(checks...)
}

func (c Config) ValidateUpload() error {
	return missing(
		fieldCheck{"trello.api_key", c.Trello.APIKey},
		fieldCheck{"trello.api_token", c.Trello.APIToken},
		fieldCheck{"trello.list_id", c.Trello.ListID},
		fieldCheck{"adpiler.api_key", c.Adpiler.APIKey},
		fieldCheck{"adpiler.client_id", c.Adpiler.ClientID},
		fieldCheck{"adpiler.campaign_id", c.Adpiler.CampaignID},
		fieldCheck{"adpiler.creatives_url", c.Adpiler.CreativesURL},
		fieldCheck{"output.upload_log", c.Output.UploadLog},
	)
}

func (c Config) ValidateServe() error {
	if err := c.ValidateSync(true); err != nil {
		return err
	}
	if err := missing(fieldCheck{"trello.callback_url", c.Trello.CallbackURL}); err != nil {
		return err
	}
	if len(c.Trello.BoardIDs) == 0 {
		return errors.New("trello.board_ids is not configured properly")
	}
	return nil
}
