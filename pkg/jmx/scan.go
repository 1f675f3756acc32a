package jmx

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mon-tools/jmx-supervisor/pkg/logging"

	"gopkg.in/yaml.v3"
)

// ConfigDocument is the parsed representation of one check configuration
// file. Instances stays untyped so classification can reject non-sequence
// shapes itself instead of failing the whole parse.
type ConfigDocument struct {
	InitConfig map[string]interface{}
	Instances  interface{}
}

// ScannedCheck is one configuration file that parsed successfully.
type ScannedCheck struct {
	// Name is the check name: the file name up to the first dot.
	Name string

	// FileName is the base file name, which is what the collector is told
	// to load.
	FileName string

	Document ConfigDocument
}

// ScanConfigDir parses every *.yaml file in confDir. Files that fail to
// parse, or parse to an empty document, are skipped with a diagnostic; they
// never enter classification.
func ScanConfigDir(confDir string, logger logging.Logger) []ScannedCheck {
	pattern := filepath.Join(confDir, "*.yaml")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		logger.Errorf("Unable to enumerate config files, pattern: %s, error: %v", pattern, err)
		return nil
	}
	// Glob order is not guaranteed stable across platforms; sort so the
	// first-found-wins tie-breaks downstream are deterministic.
	sort.Strings(paths)

	var checks []ScannedCheck
	for _, path := range paths {
		fileName := filepath.Base(path)
		checkName := strings.SplitN(fileName, ".", 2)[0]

		document, ok := parseConfigFile(path, logger)
		if !ok {
			continue
		}

		checks = append(checks, ScannedCheck{
			Name:     checkName,
			FileName: fileName,
			Document: document,
		})
	}

	return checks
}

func parseConfigFile(path string, logger logging.Logger) (ConfigDocument, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("Unable to read config in %s: %v", path, err)
		return ConfigDocument{}, false
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logger.Errorf("Unable to parse yaml config in %s: %v", path, err)
		return ConfigDocument{}, false
	}
	if len(raw) == 0 {
		logger.Errorf("Unable to parse yaml config in %s: document is empty", path)
		return ConfigDocument{}, false
	}

	document := ConfigDocument{
		Instances: raw["instances"],
	}
	if initConfig, ok := raw["init_config"].(map[string]interface{}); ok {
		document.InitConfig = initConfig
	}

	return document, true
}
