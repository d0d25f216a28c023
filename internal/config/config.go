package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Automation struct {
		IntervalMinutes int    `yaml:"interval_minutes"` // scheduled run cadence
		SendEmails      bool   `yaml:"send_emails"`      // false = dry-run (verify only)
		SendDelayMillis int    `yaml:"send_delay_millis"`
		SearchTitle     string `yaml:"search_title"`
		SearchLocation  string `yaml:"search_location"`
		CandidateCount  int    `yaml:"candidate_count"`
	} `yaml:"automation"`

	Providers struct {
		Hunter struct {
			APIKey string `yaml:"api_key"` // keyring fallback, see internal/secrets
		} `yaml:"hunter"`
		RocketReach struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"rocketreach"`
		SendGrid struct {
			APIKey    string `yaml:"api_key"`
			FromEmail string `yaml:"from_email"`
			FromName  string `yaml:"from_name"`
		} `yaml:"sendgrid"`
	} `yaml:"providers"`

	Engage struct {
		Enabled     bool   `yaml:"enabled"`
		IMAPHost    string `yaml:"imap_host"`
		IMAPPort    int    `yaml:"imap_port"`
		Username    string `yaml:"username"`
		AppPassword string `yaml:"app_password"`
		Mailbox     string `yaml:"mailbox"`
	} `yaml:"engage"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 38491
	}
	if c.Automation.IntervalMinutes == 0 {
		c.Automation.IntervalMinutes = 30
	}
	if c.Automation.SendDelayMillis == 0 {
		c.Automation.SendDelayMillis = 1000
	}
	if c.Automation.CandidateCount == 0 {
		c.Automation.CandidateCount = 3
	}
	if c.Automation.SearchTitle == "" {
		c.Automation.SearchTitle = "Founding Engineer"
	}
	if c.Automation.SearchLocation == "" {
		c.Automation.SearchLocation = "Bangalore"
	}
	if c.Engage.Mailbox == "" {
		c.Engage.Mailbox = "INBOX"
	}
}

// applyEnv overlays .env / process environment on top of the YAML file.
// Env wins so deployments can keep keys out of the config file entirely.
func (c *Config) applyEnv() {
	_ = godotenv.Load() // best-effort; absent .env is fine

	if v := os.Getenv("HUNTER_API_KEY"); v != "" {
		c.Providers.Hunter.APIKey = v
	}
	if v := os.Getenv("ROCKETREACH_API_KEY"); v != "" {
		c.Providers.RocketReach.APIKey = v
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		c.Providers.SendGrid.APIKey = v
	}
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		c.Providers.SendGrid.FromEmail = v
	}
	if v := os.Getenv("FROM_NAME"); v != "" {
		c.Providers.SendGrid.FromName = v
	}
	if v := os.Getenv("SEND_EMAILS"); v != "" {
		c.Automation.SendEmails = v == "true"
	}
	if v := os.Getenv("EMAIL_SEND_DELAY"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Automation.SendDelayMillis = ms
		}
	}
}
