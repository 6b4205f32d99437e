package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultLocations = "US-RI,US-HI,US-FL,US-OH"
	defaultModes     = "FT4,FT8"
	defaultWindow    = "5m"
)

// criteriaFile is the YAML shape of CRITERIA_FILE:
//
//	locations: [US-RI, US-HI]
//	modes: [FT4, FT8]
//	recency_window: 10m
type criteriaFile struct {
	Locations     []string `yaml:"locations"`
	Modes         []string `yaml:"modes"`
	RecencyWindow string   `yaml:"recency_window"`
}

// LoadDotEnv loads variables from the given .env files without overriding
// the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// loadCriteria builds the interest criteria from CRITERIA_FILE when set,
// otherwise from WANTED_LOCATIONS, WANTED_MODES, and RECENCY_WINDOW.
func loadCriteria() (domain.Criteria, error) {
	if path := os.Getenv("CRITERIA_FILE"); path != "" {
		return loadCriteriaFile(path)
	}
	return buildCriteria(
		splitList(sharedcfg.EnvOrDefault("WANTED_LOCATIONS", defaultLocations)),
		splitList(sharedcfg.EnvOrDefault("WANTED_MODES", defaultModes)),
		sharedcfg.EnvOrDefault("RECENCY_WINDOW", defaultWindow),
		"WANTED_LOCATIONS", "WANTED_MODES", "RECENCY_WINDOW",
	)
}

func loadCriteriaFile(path string) (domain.Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("read CRITERIA_FILE: %w", err)
	}
	var f criteriaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Criteria{}, fmt.Errorf("parse CRITERIA_FILE %s: %w", path, err)
	}
	if f.RecencyWindow == "" {
		f.RecencyWindow = defaultWindow
	}
	return buildCriteria(f.Locations, f.Modes, f.RecencyWindow,
		"CRITERIA_FILE locations", "CRITERIA_FILE modes", "CRITERIA_FILE recency_window")
}

func buildCriteria(locations, modes []string, window string, locName, modeName, windowName string) (domain.Criteria, error) {
	regions := make([]domain.Region, 0, len(locations))
	for _, s := range locations {
		r, err := domain.ParseRegion(s)
		if err != nil {
			return domain.Criteria{}, fmt.Errorf("invalid %s: %w", locName, err)
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		return domain.Criteria{}, fmt.Errorf("%s must name at least one region", locName)
	}

	ms := make([]domain.Mode, 0, len(modes))
	for _, s := range modes {
		m, err := domain.ParseMode(s)
		if err != nil {
			return domain.Criteria{}, fmt.Errorf("invalid %s: %w", modeName, err)
		}
		ms = append(ms, m)
	}
	if len(ms) == 0 {
		return domain.Criteria{}, fmt.Errorf("%s must name at least one mode", modeName)
	}

	d, err := time.ParseDuration(window)
	if err != nil || d <= 0 {
		return domain.Criteria{}, fmt.Errorf("invalid %s", windowName)
	}

	return domain.NewCriteria(regions, ms, d)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseCriteria builds criteria from comma-separated location and mode
// lists and a duration string, as accepted on the command line.
func ParseCriteria(locations, modes, window string) (domain.Criteria, error) {
	return buildCriteria(splitList(locations), splitList(modes), window, "locations", "modes", "recency window")
}
