package site

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yml
var builtinProfiles embed.FS

// ProfileCache holds the site profiles: the built-in ones, overridden or
// extended by <sitesDir>/<name>.yml files.
type ProfileCache struct {
	sitesDir string
	cache    map[string]*Profile
	mu       sync.RWMutex
}

func NewProfileCache(sitesDir string) *ProfileCache {
	return &ProfileCache{
		sitesDir: sitesDir,
		cache:    make(map[string]*Profile),
	}
}

func (pc *ProfileCache) Run() error {
	builtins, err := fs.Glob(builtinProfiles, "profiles/*.yml")
	if err != nil {
		return fmt.Errorf("failed to list built-in profiles: %w", err)
	}

	for _, file := range builtins {
		data, err := builtinProfiles.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read built-in profile %s: %w", file, err)
		}
		if _, err := pc.store(profileName(file), data); err != nil {
			return fmt.Errorf("built-in profile %s: %w", file, err)
		}
	}

	if pc.sitesDir == "" {
		return nil
	}
	if _, err := os.Stat(pc.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		profile, err := pc.LoadProfile(profileName(file))
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Site profile loaded", "site", profile.Name, "page_size", profile.PageSize, "sections", len(profile.Sections))
	}

	return nil
}

func (pc *ProfileCache) LoadProfile(name string) (*Profile, error) {
	file := filepath.Join(pc.sitesDir, name+".yml")

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	profile, err := pc.store(name, data)
	if err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", file, err)
	}

	return profile, nil
}

func (pc *ProfileCache) GetProfile(name string) (*Profile, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	profile, ok := pc.cache[name]
	if !ok {
		return nil, fmt.Errorf("site profile with name '%s' not found", name)
	}
	return profile, nil
}

func (pc *ProfileCache) GetProfileCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

func (pc *ProfileCache) store(name string, data []byte) (*Profile, error) {
	profile, err := parseProfile(data)
	if err != nil {
		return nil, err
	}
	profile.Name = name

	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[name] = profile

	return profile, nil
}

func parseProfile(data []byte) (*Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if profile.PageSize == 0 {
		profile.PageSize = 20
	}

	return &profile, nil
}

func validateProfile(profile *Profile) error {
	if profile.SearchURL == "" {
		return fmt.Errorf("search URL is required")
	}
	for _, placeholder := range []string{"{query}", "{section}", "{offset}"} {
		if !strings.Contains(profile.SearchURL, placeholder) {
			return fmt.Errorf("search URL must contain %s", placeholder)
		}
	}

	if profile.PageSize < 0 {
		return fmt.Errorf("page size must be positive")
	}

	requiredSelectors := map[string]string{
		"total_indicator": profile.Selectors.TotalIndicator,
		"results_list":    profile.Selectors.ResultsList,
		"title":           profile.Selectors.Title,
		"link":            profile.Selectors.Link,
	}

	for name, selector := range requiredSelectors {
		if selector == "" {
			return fmt.Errorf("selector %s is required", name)
		}
	}

	if len(profile.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}

	return nil
}

func profileName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".yml")
}
