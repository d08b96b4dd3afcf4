package main

import (
	"github.com/spf13/cobra"

	"github.com/rflorenc/pipedrive-person-sync/internal/config"
	"github.com/rflorenc/pipedrive-person-sync/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options holds the global CLI flags. Empty values leave the config file
// and environment untouched.
type options struct {
	configFile    string
	envFile       string
	mappingFile   string
	inputFile     string
	logLevel      string
	apiKey        string
	companyDomain string
	baseURL       string
	listen        string
	dryRun        bool
}

var (
	opts options
	log  = logger.New()
)

var rootCmd = &cobra.Command{
	Use:   "personsync",
	Short: "Sync a local record into a Pipedrive person",
	Long: `Reads an input document, maps it to Pipedrive person fields and
upserts the person: an existing person with the same name is updated,
otherwise a new person is created.

Running without a subcommand is the same as "personsync sync".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "Path to config file (YAML)")
	f.StringVar(&opts.envFile, "env-file", ".env", "Path to .env file with PIPEDRIVE_* variables")
	f.StringVar(&opts.mappingFile, "mapping", "", "Path to the field mapping table (JSON or YAML)")
	f.StringVar(&opts.inputFile, "input", "", "Path to the input document (JSON)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&opts.apiKey, "api-key", "", "Pipedrive API token (overrides "+config.EnvAPIKey+")")
	f.StringVar(&opts.companyDomain, "company-domain", "", "Pipedrive company domain (overrides "+config.EnvCompanyDomain+")")
	f.StringVar(&opts.baseURL, "base-url", "", "Pipedrive API root (default https://<domain>.pipedrive.com/api/v1)")

	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the payload without contacting Pipedrive")
}

// loadConfig builds the Config from file, environment and flags, in that
// order of precedence, and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(opts.configFile, opts.envFile)
	if err != nil {
		return nil, err
	}

	setIfSet(&cfg.MappingFile, opts.mappingFile)
	setIfSet(&cfg.InputFile, opts.inputFile)
	setIfSet(&cfg.LogLevel, opts.logLevel)
	setIfSet(&cfg.APIKey, opts.apiKey)
	setIfSet(&cfg.CompanyDomain, opts.companyDomain)
	setIfSet(&cfg.BaseURL, opts.baseURL)
	setIfSet(&cfg.Listen, opts.listen)

	log.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func setIfSet(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
