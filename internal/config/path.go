package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "kafka-lens"

// FindConfigPath returns KAFKA_LENS_CONFIG when set, else the first existing file of the
// search path. When none exists a default file is written to ./config.yml.
func FindConfigPath() string {
	if p := os.Getenv("KAFKA_LENS_CONFIG"); p != "" {
		return p
	}

	candidates := searchPath()
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	createPath := "./config.yml"
	if err := WriteConfig(createPath, Defaults()); err == nil {
		return createPath
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return createPath
}

func searchPath() []string {
	names := []string{"config.yml", "config.yaml"}
	var candidates []string
	for _, n := range names {
		candidates = append(candidates, "./"+n)
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(appdata, appDir, n))
			}
		}
		if home != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(home, appDir, n))
			}
		}
		return candidates
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(xdg, appDir, n))
		}
	}
	if home != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(home, ".config", appDir, n))
			candidates = append(candidates, filepath.Join(home, "."+appDir, n))
		}
	}
	for _, n := range names {
		candidates = append(candidates, filepath.Join("/etc", appDir, n))
	}
	return candidates
}
