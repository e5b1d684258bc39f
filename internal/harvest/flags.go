package harvest

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/review-harvester/internal/common"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/urfave/cli/v2"
)

// CommonFlags are shared by every command that touches stored runs.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output-dir",
			Value:   "harvest-results",
			Usage:   "Directory for run outputs and branch snapshots",
			EnvVars: []string{"HARVEST_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "SQLite database path (default: next to the binary)",
			EnvVars: []string{"HARVEST_DB"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log every pagination step",
		},
	}
}

// Flags returns the flags of the harvest command.
func Flags() []cli.Flag {
	def := models.DefaultHarvestConfig()
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "company",
			Usage:   "Company name to search for",
			EnvVars: []string{"HARVEST_COMPANY"},
		},
		&cli.StringFlag{
			Name:    "city",
			Value:   def.City,
			Usage:   "City to search in",
			EnvVars: []string{"HARVEST_CITY"},
		},
		&cli.IntFlag{
			Name:    "max-branches",
			Value:   def.MaxBranches,
			Usage:   "Maximum number of branches to process",
			EnvVars: []string{"HARVEST_MAX_BRANCHES"},
		},
		&cli.IntFlag{
			Name:    "max-reviews",
			Value:   def.MaxReviewsPerBranch,
			Usage:   "Maximum number of reviews per branch",
			EnvVars: []string{"HARVEST_MAX_REVIEWS"},
		},
		&cli.IntFlag{
			Name:    "stall-threshold",
			Value:   def.StallThreshold,
			Usage:   "Consecutive reveals without new reviews before a branch is considered complete",
			EnvVars: []string{"HARVEST_STALL_THRESHOLD"},
		},
		&cli.DurationFlag{
			Name:    "settle-delay",
			Value:   def.SettleDelay,
			Usage:   "Wait after each scroll before counting reviews",
			EnvVars: []string{"HARVEST_SETTLE_DELAY"},
		},
		&cli.DurationFlag{
			Name:    "nav-delay",
			Value:   def.NavigationDelay,
			Usage:   "Wait after navigation and after opening the reviews tab",
			EnvVars: []string{"HARVEST_NAV_DELAY"},
		},
		&cli.DurationFlag{
			Name:    "discovery-timeout",
			Value:   def.DiscoveryTimeout,
			Usage:   "How long to wait for the branch list",
			EnvVars: []string{"HARVEST_DISCOVERY_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "section-timeout",
			Value:   def.SectionTimeout,
			Usage:   "How long to wait for a branch's reviews tab",
			EnvVars: []string{"HARVEST_SECTION_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "lang",
			Value:   def.Language,
			Usage:   "Stopword language: russian, english or auto",
			EnvVars: []string{"HARVEST_LANG"},
		},
		&cli.Float64Flag{
			Name:    "branch-rate",
			Usage:   "Maximum branch navigations per second (0 = unlimited)",
			EnvVars: []string{"HARVEST_BRANCH_RATE"},
		},
		&cli.BoolFlag{
			Name:    "headless",
			Value:   def.Headless,
			Usage:   "Run the browser without a window",
			EnvVars: []string{"HARVEST_HEADLESS"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Value:   def.BaseURL,
			Usage:   "Listing service root",
			EnvVars: []string{"HARVEST_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "YAML file with selector overrides",
			EnvVars: []string{"HARVEST_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "Write Prometheus metrics to this textfile when the run ends",
			EnvVars: []string{"HARVEST_METRICS_FILE"},
		},
	}
	return append(flags, CommonFlags()...)
}

// NewLogger builds the JSON stderr logger for a command.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ConfigFromContext builds and validates a HarvestConfig from flags.
func ConfigFromContext(c *cli.Context) (models.HarvestConfig, error) {
	cfg := models.DefaultHarvestConfig()
	cfg.Company = c.String("company")
	if cfg.Company == "" && c.NArg() > 0 {
		cfg.Company = c.Args().First()
	}
	cfg.City = c.String("city")
	cfg.MaxBranches = c.Int("max-branches")
	cfg.MaxReviewsPerBranch = c.Int("max-reviews")
	cfg.StallThreshold = c.Int("stall-threshold")
	cfg.SettleDelay = c.Duration("settle-delay")
	cfg.NavigationDelay = c.Duration("nav-delay")
	cfg.DiscoveryTimeout = c.Duration("discovery-timeout")
	cfg.SectionTimeout = c.Duration("section-timeout")
	cfg.Language = c.String("lang")
	cfg.BranchRate = c.Float64("branch-rate")
	cfg.Headless = c.Bool("headless")

	baseURL, err := common.ValidateBaseURL(c.String("base-url"))
	if err != nil {
		return cfg, err
	}
	cfg.BaseURL = baseURL

	if path := c.String("config"); path != "" {
		fc, err := models.LoadFileConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg.Selectors = fc.Selectors.Merge(models.DefaultSelectors())
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
