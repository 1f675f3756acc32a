package jmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mon-tools/jmx-supervisor/pkg/logging"
)

func instanceMap(pairs map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{
		"host": "localhost",
		"port": 7199,
	}
	for k, v := range pairs {
		m[k] = v
	}
	return m
}

func TestClassify_KnownCheckName(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{instanceMap(nil)},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	assert.Equal(t, OutcomeEligible, outcome.Kind)
}

func TestClassify_UnknownCheckName(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{instanceMap(nil)},
	}

	outcome := Classify(document, "postgres", nil, logging.NewNopLogger())

	assert.Equal(t, OutcomeNotApplicable, outcome.Kind)
}

func TestClassify_IsJmxFlag(t *testing.T) {
	document := ConfigDocument{
		InitConfig: map[string]interface{}{"is_jmx": true},
		Instances:  []interface{}{instanceMap(nil)},
	}

	outcome := Classify(document, "mycustomcheck", nil, logging.NewNopLogger())

	assert.Equal(t, OutcomeEligible, outcome.Kind)
}

func TestClassify_AllowListOverridesEverything(t *testing.T) {
	document := ConfigDocument{
		InitConfig: map[string]interface{}{"is_jmx": true},
		Instances:  []interface{}{instanceMap(nil)},
	}
	logger := logging.NewNopLogger()

	// In the list: eligible even though the name is unknown.
	outcome := Classify(document, "mycustomcheck", []string{"mycustomcheck"}, logger)
	assert.Equal(t, OutcomeEligible, outcome.Kind)

	// Not in the list: not applicable even though is_jmx is set and the
	// name is a known collector check.
	outcome = Classify(document, "cassandra", []string{"tomcat"}, logger)
	assert.Equal(t, OutcomeNotApplicable, outcome.Kind)
}

func TestClassify_NoInstances(t *testing.T) {
	tests := []struct {
		name      string
		instances interface{}
	}{
		{"absent", nil},
		{"empty list", []interface{}{}},
		{"not a list", "instances as a scalar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			document := ConfigDocument{Instances: tt.instances}

			outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

			require.Equal(t, OutcomeInvalid, outcome.Kind)
			assert.Contains(t, outcome.Reason, "at least one instance")
		})
	}
}

func TestClassify_InstanceNotAMapping(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{"just a string"},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeInvalid, outcome.Kind)
	assert.Contains(t, outcome.Reason, "should be a dictionary")
}

func TestClassify_MissingHost(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{map[string]interface{}{"port": 7199}},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeInvalid, outcome.Kind)
	assert.Equal(t, "A host must be specified", outcome.Reason)
}

func TestClassify_NonIntegerPort(t *testing.T) {
	tests := []struct {
		name string
		port interface{}
	}{
		{"numeric string", "7199"},
		{"absent", nil},
		{"float", 7199.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := map[string]interface{}{"host": "localhost"}
			if tt.port != nil {
				instance["port"] = tt.port
			}
			document := ConfigDocument{Instances: []interface{}{instance}}

			outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

			require.Equal(t, OutcomeInvalid, outcome.Kind)
			assert.Equal(t, "A numeric port must be specified", outcome.Reason)
		})
	}
}

func TestClassify_MissingConfIsDegradedButLegal(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{instanceMap(nil)},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	assert.Equal(t, OutcomeEligible, outcome.Kind)
}

func TestClassify_ConfValidation(t *testing.T) {
	validFilter := map[string]interface{}{
		"include": map[string]interface{}{"domain": "java.lang"},
	}

	tests := []struct {
		name    string
		conf    interface{}
		kind    OutcomeKind
		inWords string
	}{
		{"valid", []interface{}{validFilter}, OutcomeEligible, ""},
		{"empty list", []interface{}{}, OutcomeInvalid, "list of configurations"},
		{"not a list", "oops", OutcomeInvalid, "list of configurations"},
		{"element without include", []interface{}{map[string]interface{}{"exclude": "x"}}, OutcomeInvalid, "'include' section"},
		{"element not a mapping", []interface{}{"oops"}, OutcomeInvalid, "'include' section"},
		{"include not a mapping", []interface{}{map[string]interface{}{"include": "oops"}}, OutcomeInvalid, "must be a dictionary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			document := ConfigDocument{
				Instances: []interface{}{instanceMap(map[string]interface{}{"conf": tt.conf})},
			}

			outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

			require.Equal(t, tt.kind, outcome.Kind)
			if tt.inWords != "" {
				assert.Contains(t, outcome.Reason, tt.inWords)
			}
		})
	}
}

func TestClassify_ConfFallsBackToInitSection(t *testing.T) {
	// A broken conf in the init section is picked up by instances that
	// have none of their own.
	document := ConfigDocument{
		InitConfig: map[string]interface{}{"conf": []interface{}{}},
		Instances:  []interface{}{instanceMap(nil)},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeInvalid, outcome.Kind)
	assert.Contains(t, outcome.Reason, "list of configurations")
}

func TestClassify_FirstOffendingInstanceShortCircuits(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{
			map[string]interface{}{"port": 7199}, // missing host
			map[string]interface{}{"host": "h"}, // missing port
		},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeInvalid, outcome.Kind)
	assert.Equal(t, "A host must be specified", outcome.Reason)
}

func TestClassify_JavaSettingsInitWins(t *testing.T) {
	document := ConfigDocument{
		InitConfig: map[string]interface{}{
			"java_bin_path": "/opt/java/bin/java",
			"java_options":  "-Xmx64m",
		},
		Instances: []interface{}{
			instanceMap(map[string]interface{}{"java_bin_path": "/ignored", "java_options": "-ignored"}),
		},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeEligible, outcome.Kind)
	assert.Equal(t, "/opt/java/bin/java", outcome.JavaBinPath)
	assert.Equal(t, "-Xmx64m", outcome.JavaOptions)
}

func TestClassify_JavaSettingsFirstInstanceWins(t *testing.T) {
	document := ConfigDocument{
		Instances: []interface{}{
			instanceMap(nil),
			instanceMap(map[string]interface{}{"java_bin_path": "/first"}),
			instanceMap(map[string]interface{}{"java_bin_path": "/second"}),
		},
	}

	outcome := Classify(document, "cassandra", nil, logging.NewNopLogger())

	require.Equal(t, OutcomeEligible, outcome.Kind)
	assert.Equal(t, "/first", outcome.JavaBinPath)
	assert.Equal(t, "", outcome.JavaOptions)
}
