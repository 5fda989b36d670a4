package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

const (
	envPrefix       = "CORRAX"
	envKeySeparator = "_"
)

// documentSchema is a minimal JSON Schema gate applied before mapstructure
// decoding: it rejects a document with the wrong shape (e.g. "stages" as
// a list instead of a table) with a schema error rather than a confusing
// mapstructure decode failure, mirroring the upfront gojsonschema pass
// the teacher runs over UAST documents before deeper validation.
const documentSchema = `{
  "type": "object",
  "properties": {
    "version": {"type": "integer"},
    "preset": {"type": "string"},
    "stages": {"type": "object", "additionalProperties": {"type": "boolean"}},
    "overrides": {"type": "object", "additionalProperties": {"type": "object"}}
  },
  "additionalProperties": false
}`

// LoadDocument reads a declarative v1 configuration document from path,
// schema-validates its shape, decodes it, and checks version/stage/field
// names. It does not itself build a ValidatedConfig; combine the
// returned Document's preset and override layer with NewBuilder.
func LoadDocument(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read document: %w", err)
	}

	raw := v.AllSettings()

	// Unknown top-level keys are reported ahead of the schema gate so the
	// error carries field-name suggestions.
	for key := range raw {
		if !knownDocumentKeys[key] {
			return nil, &UnknownFieldError{Field: key, Suggestions: nearestStrings(key, documentTopLevelKeys, 3)}
		}
	}

	schemaResult, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("config: schema validation: %w", err)
	}

	if !schemaResult.Valid() {
		msgs := make([]string, 0, len(schemaResult.Errors()))
		for _, e := range schemaResult.Errors() {
			msgs = append(msgs, e.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(msgs, "; "))
	}

	var doc Document

	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("config: decode document: %w", err)
	}

	if err := ValidateDocument(raw, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// EnvOverride builds an override layer by reading `<PREFIX>__STAGE__FIELD`
// environment variables for every known field path, e.g.
// CORRAX__TAINT__MAX_DEPTH for "taint.max_depth". Values are read with
// os.Getenv directly rather than viper.AutomaticEnv: viper's default
// prefix-join inserts a single underscore between prefix and key, which
// cannot reproduce the double-underscore boundary this format requires
// without per-field BindEnv calls, so a direct lookup is both simpler and
// exact.
func EnvOverride() (override, error) {
	o := override{stages: map[StageID]bool{}}

	for _, path := range knownFieldPaths {
		stage, field, ok := strings.Cut(path, ".")
		if !ok {
			continue
		}

		envVar := envPrefix + envKeySeparator + envKeySeparator +
			strings.ToUpper(stage) + envKeySeparator + envKeySeparator + strings.ToUpper(field)

		raw, set := os.LookupEnv(envVar)
		if !set {
			continue
		}

		value, err := parseEnvValue(path, raw)
		if err != nil {
			return override{}, err
		}

		if err := assignOverrideField(&o, stage, field, value); err != nil {
			return override{}, err
		}
	}

	for _, stage := range allStages {
		envVar := envPrefix + envKeySeparator + envKeySeparator + "STAGES" +
			envKeySeparator + envKeySeparator + strings.ToUpper(string(stage))

		raw, set := os.LookupEnv(envVar)
		if !set {
			continue
		}

		o.stages[stage] = raw == "true" || raw == "1"
	}

	return o, nil
}

// parseEnvValue converts an environment variable's string value to the
// type the field path expects (bool, int, or float), since env vars
// carry no type information of their own.
func parseEnvValue(path, raw string) (any, error) {
	switch path {
	case "taint.field_sensitive", "taint.use_points_to", "taint.relaxed_return_flow",
		"pta.field_sensitive", "lexical.enabled":
		return raw == "true" || raw == "1", nil
	case "clone.similarity_threshold", "parallel.max_failures_fraction":
		var f float64
		if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
			return nil, fmt.Errorf("config: env %s: %w", path, err)
		}

		return f, nil
	case "pta.mode":
		return raw, nil
	default:
		var i int
		if _, err := fmt.Sscanf(raw, "%d", &i); err != nil {
			return nil, fmt.Errorf("config: env %s: %w", path, err)
		}

		return i, nil
	}
}

// ErrDocumentNotFound names a missing optional document, as distinct
// from a malformed one. Nothing in this package returns it: LoadDocument
// reports a missing file as a wrapped "config: read document" error.
var ErrDocumentNotFound = errors.New("config: document not found")
