package jmx

import (
	"github.com/mon-tools/jmx-supervisor/pkg/logging"
)

// Check names that always require the external collector, even without an
// is_jmx flag in their init section.
var collectorChecks = map[string]struct{}{
	"activemq":    {},
	"activemq_58": {},
	"cassandra":   {},
	"jmx":         {},
	"solr":        {},
	"tomcat":      {},
}

// OutcomeKind discriminates the classification result.
type OutcomeKind int

const (
	// OutcomeNotApplicable means the check does not use the external
	// collector at all.
	OutcomeNotApplicable OutcomeKind = iota

	// OutcomeEligible means the check uses the collector and its
	// configuration is structurally valid.
	OutcomeEligible

	// OutcomeInvalid means the check uses the collector but its
	// configuration is broken; Reason says how.
	OutcomeInvalid
)

// Outcome is the classification result for one configuration document.
// Exactly one of the kinds applies; JavaBinPath/JavaOptions are only
// meaningful for eligible checks.
type Outcome struct {
	Kind        OutcomeKind
	Reason      string
	JavaBinPath string
	JavaOptions string
}

func notApplicable() Outcome {
	return Outcome{Kind: OutcomeNotApplicable}
}

func invalid(reason string) Outcome {
	return Outcome{Kind: OutcomeInvalid, Reason: reason}
}

// Classify decides whether the document describes a collector check, and if
// so whether it is structurally valid. With a non-empty allowList only
// membership in the list makes a check eligible; otherwise the init
// section's is_jmx flag or a known check name does.
func Classify(document ConfigDocument, checkName string, allowList []string, logger logging.Logger) Outcome {
	initConfig := document.InitConfig

	if len(allowList) > 0 {
		if !containsString(allowList, checkName) {
			return notApplicable()
		}
	} else if !isTruthy(initConfig["is_jmx"]) {
		if _, known := collectorChecks[checkName]; !known {
			return notApplicable()
		}
	}

	instances, ok := document.Instances.([]interface{})
	if !ok || len(instances) == 0 {
		return invalid("You need to have at least one instance defined in the YAML file for this check")
	}

	for _, raw := range instances {
		instance, ok := raw.(map[string]interface{})
		if !ok {
			return invalid("Each instance should be a dictionary")
		}
		if instance["host"] == nil {
			return invalid("A host must be specified")
		}
		if _, ok := instance["port"].(int); !ok {
			return invalid("A numeric port must be specified")
		}

		conf := instance["conf"]
		if conf == nil && initConfig != nil {
			conf = initConfig["conf"]
		}
		if conf == nil {
			// Degraded but legal: only basic JVM metrics get collected.
			logger.Warnf("Check %s has an instance without a 'conf' section, only basic JVM metrics will be collected", checkName)
			continue
		}

		filters, ok := conf.([]interface{})
		if !ok || len(filters) == 0 {
			return invalid("'conf' section should be a list of configurations")
		}
		for _, rawFilter := range filters {
			filter, ok := rawFilter.(map[string]interface{})
			if !ok || filter["include"] == nil {
				return invalid("Each configuration must have an 'include' section")
			}
			if _, ok := filter["include"].(map[string]interface{}); !ok {
				return invalid("'include' section must be a dictionary")
			}
		}
	}

	return Outcome{
		Kind:        OutcomeEligible,
		JavaBinPath: resolveJavaSetting(initConfig, instances, "java_bin_path"),
		JavaOptions: resolveJavaSetting(initConfig, instances, "java_options"),
	}
}

// resolveJavaSetting prefers the init section's value; otherwise the first
// non-empty value across instances wins and later ones are ignored.
func resolveJavaSetting(initConfig map[string]interface{}, instances []interface{}, key string) string {
	if value := asString(initConfig[key]); value != "" {
		return value
	}
	for _, raw := range instances {
		instance, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if value := asString(instance[key]); value != "" {
			return value
		}
	}
	return ""
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

func isTruthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

func containsString(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
