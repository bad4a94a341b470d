// Command montaze runs the Montáže EPS site and offers a few admin helpers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/montaze"
)

// version is set at build time via ldflags.
var version = "dev"

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "montaze",
	Short:         "Montáže EPS website, inquiry API and admin dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (yaml, toml or json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// envBindings maps config keys to the environment variables read for them,
// first match wins.
var envBindings = map[string][]string{
	"name":              {"MONTAZE_SITE_NAME"},
	"url":               {"MONTAZE_SITE_URL"},
	"description":       {"MONTAZE_SITE_DESCRIPTION"},
	"pages":             {"MONTAZE_PAGES"},
	"addr":              {"MONTAZE_ADDR"},
	"databasepath":      {"MONTAZE_DATABASE_PATH"},
	"staticdir":         {"MONTAZE_STATIC_DIR"},
	"timezone":          {"MONTAZE_TIMEZONE"},
	"adminpassword":     {"MONTAZE_ADMIN_PASSWORD"},
	"sessionsecret":     {"MONTAZE_SESSION_SECRET"},
	"adminapitoken":     {"MONTAZE_ADMIN_API_TOKEN"},
	"cookiesecure":      {"MONTAZE_COOKIE_SECURE"},
	"verceltoken":       {"MONTAZE_VERCEL_TOKEN", "VERCEL_API_TOKEN"},
	"vercelprojectid":   {"MONTAZE_VERCEL_PROJECT_ID", "VERCEL_PROJECT_ID"},
	"vercelteamid":      {"MONTAZE_VERCEL_TEAM_ID", "VERCEL_TEAM_ID"},
	"analyticsbaseurl":  {"MONTAZE_ANALYTICS_BASE_URL"},
	"analyticscachettl": {"MONTAZE_ANALYTICS_CACHE_TTL"},
	"loadtimeout":       {"MONTAZE_LOAD_TIMEOUT"},
	"loginlimit":        {"MONTAZE_LOGIN_LIMIT"},
	"submissionlimit":   {"MONTAZE_SUBMISSION_LIMIT"},
	"loglevel":          {"MONTAZE_LOG_LEVEL"},
	"logfile":           {"MONTAZE_LOG_FILE"},
	"logmaxsizemb":      {"MONTAZE_LOG_MAX_SIZE_MB"},
	"logmaxbackups":     {"MONTAZE_LOG_MAX_BACKUPS"},
	"logmaxagedays":     {"MONTAZE_LOG_MAX_AGE_DAYS"},
}

// loadConfig reads the optional config file and the environment into a
// SiteConfig. Unset values are filled in by montaze.New.
func loadConfig() (montaze.SiteConfig, error) {
	v := viper.New()

	v.SetDefault("addr", ":3000")
	v.SetDefault("databasepath", "data/inquiries.db")
	v.SetDefault("staticdir", "public")
	v.SetDefault("loglevel", "info")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return montaze.SiteConfig{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
		if err := v.ReadInConfig(); err != nil {
			return montaze.SiteConfig{}, fmt.Errorf("config: read %s: %w", flagConfig, err)
		}
	}

	var cfg montaze.SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return montaze.SiteConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
