package sovdevlogger

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/norwegianredcross/sovdevlogger/secret"
)

const (
	defaultFileDir      = "./logs/"
	defaultFileMaxBytes = 52_428_800 // 50 MiB
	defaultFileBackups  = 5
	defaultServiceVer   = "1.0.0"
)

// runConfig is the immutable, per-Initialize run configuration
// produced by resolveConfig. It is consulted by the fan-out engine but
// never re-read from the environment between Initialize calls.
type runConfig struct {
	consoleEnabled bool
	fileEnabled    bool
	fileDir        string
	fileMaxBytes   int64
	fileBackups    int

	hasOTLP             bool
	otlpEndpoint        string
	otlpLogsEndpoint    string
	otlpTracesEndpoint  string
	otlpMetricsEndpoint string
	otlpHeaders         map[string]string

	deploymentEnvironment string
	fallbackServiceVer    string
	devExporter           string
}

// resolveConfig reads the fixed set of recognized environment
// variables once and applies the documented smart defaults. It never
// fails: malformed values are warned about and replaced with the
// documented default.
func resolveConfig() runConfig {
	endpoints := map[string]string{
		"OTEL_EXPORTER_OTLP_ENDPOINT":         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT":    os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"),
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT":  os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT": os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
	}
	hasOTLP := false
	for _, v := range endpoints {
		if strings.TrimSpace(v) != "" {
			hasOTLP = true
			break
		}
	}

	consoleEnabled := parseTriStateConsole("LOG_TO_CONSOLE", !hasOTLP)
	fileEnabled := parseBoolEnv("LOG_TO_FILE", false)

	fileDir := strings.TrimRight(strings.TrimSpace(os.Getenv("LOG_FILE_PATH")), " \t")
	if fileDir == "" {
		fileDir = defaultFileDir
	}

	fileMaxBytes := parseIntEnv("LOG_FILE_MAX_BYTES", defaultFileMaxBytes)
	fileBackups := parseIntEnv("LOG_FILE_BACKUP_COUNT", defaultFileBackups)

	headers := map[string]string{}
	if raw := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")); raw != "" {
		parsed := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			warn("Invalid OTEL_EXPORTER_OTLP_HEADERS value, proceeding with no headers")
		} else {
			headers = expandHeaderValues(parsed)
		}
	}

	deploymentEnvironment := strings.TrimSpace(os.Getenv("DEPLOYMENT_ENVIRONMENT"))
	if deploymentEnvironment == "" {
		deploymentEnvironment = "development"
	}

	devExporter := strings.ToLower(strings.TrimSpace(os.Getenv("SOVDEV_DEV_EXPORTER")))
	switch devExporter {
	case "", "none", "stdout", "prometheus":
		// recognized
	default:
		warn(fmt.Sprintf("Invalid SOVDEV_DEV_EXPORTER value %q, using none", devExporter))
		devExporter = "none"
	}

	if !consoleEnabled && !fileEnabled && !hasOTLP {
		warn("All log transports disabled")
	}

	return runConfig{
		consoleEnabled:         consoleEnabled,
		fileEnabled:            fileEnabled,
		fileDir:                fileDir,
		fileMaxBytes:           int64(fileMaxBytes),
		fileBackups:            fileBackups,
		hasOTLP:                hasOTLP,
		otlpEndpoint:           strings.TrimSpace(endpoints["OTEL_EXPORTER_OTLP_ENDPOINT"]),
		otlpLogsEndpoint:       firstNonEmpty(endpoints["OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"], endpoints["OTEL_EXPORTER_OTLP_ENDPOINT"]),
		otlpTracesEndpoint:     firstNonEmpty(endpoints["OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"], endpoints["OTEL_EXPORTER_OTLP_ENDPOINT"]),
		otlpMetricsEndpoint:    firstNonEmpty(endpoints["OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"], endpoints["OTEL_EXPORTER_OTLP_ENDPOINT"]),
		otlpHeaders:            headers,
		deploymentEnvironment:  deploymentEnvironment,
		fallbackServiceVer:     firstNonEmpty(strings.TrimSpace(os.Getenv("SERVICE_VERSION")), defaultServiceVer),
		devExporter:            devExporter,
	}
}

// parseTriStateConsole parses LOG_TO_CONSOLE, which additionally
// accepts "auto" (and unset) to mean "the smart default".
func parseTriStateConsole(name string, smartDefault bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "", "auto":
		return smartDefault
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		warn(fmt.Sprintf("Invalid %s value %q, using auto", name, value))
		return smartDefault
	}
}

// parseBoolEnv parses a strict boolean environment variable, warning
// and falling back to def on any value other than the accepted set.
func parseBoolEnv(name string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if value == "" {
		return def
	}
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		warn(fmt.Sprintf("Invalid value %q for %s, using default: %t", value, name, def))
		return def
	}
}

// parseIntEnv parses an integer environment variable, warning and
// falling back to def on a malformed (non-integer) value. Negative
// values are accepted literally.
func parseIntEnv(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warn(fmt.Sprintf("Invalid value %q for %s, using default: %d", raw, name, def))
		return def
	}
	return v
}

// expandHeaderValues strictly expands "${VAR}" references in each OTLP
// header value, so operators can write
// {"Authorization": "Bearer ${OTLP_TOKEN}"} instead of a literal
// credential in OTEL_EXPORTER_OTLP_HEADERS. A header whose reference
// cannot be resolved is dropped with a warning rather than shipped
// with an empty value.
func expandHeaderValues(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		expanded, err := secret.ExpandEnvStrict(value)
		if err != nil {
			warn(fmt.Sprintf("OTLP header %q references an unset environment variable, dropping it: %v", key, err))
			continue
		}
		out[key] = expanded
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// warn writes a greppable one-line diagnostic to the process error
// stream. It is the module's own meta-diagnostic channel, distinct
// from the canonical records it emits on behalf of callers.
func warn(msg string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}
