// Package config loads and validates the service's flat key=value
// configuration file (spec §6). Grounded on the teacher's
// internal/config/parser.go (line-oriented scanning into a typed struct) and
// internal/config/validator.go (a process-wide validator.v10 instance used
// for schema checks plus hand-written cross-field rules validator cannot
// express).
package config

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// Config holds the parsed service configuration (spec §6's key table).
type Config struct {
	PlanRuleDir string `validate:"required"`
	PlanRuleLog string `validate:"required"`

	HostGRPCAddress string `validate:"required,hostname_port"`

	HermesEnable      bool
	HermesGRPCAddress string `validate:"required_if=HermesEnable true,omitempty,hostname_port"`
	HermesTable       string `validate:"required_if=HermesEnable true"`
	HermesTLS         bool
	HermesTLSCACert   string `validate:"required_if=HermesTLS true"`
	HermesTLSDomain   string `validate:"required_if=HermesTLS true"`
}

// Load reads, parses, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, streamyerrors.NewConfigError(path, "Configuration is not available", err)
	}
	defer f.Close()

	raw, err := parseKeyValues(f)
	if err != nil {
		return nil, err
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKeyValues scans a flat "key = value" file, skipping blank lines and
// lines whose first non-blank character is "#".
func parseKeyValues(r io.Reader) (map[string]string, error) {
	raw := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, streamyerrors.NewConfigError("", "malformed configuration line: expected key = value, got "+line, nil)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return raw, nil
}

func fromRaw(raw map[string]string) (*Config, error) {
	cfg := &Config{
		PlanRuleDir:       raw["plan.rule_dir"],
		PlanRuleLog:       raw["plan.rule_log"],
		HostGRPCAddress:   raw["host.grpc.address"],
		HermesGRPCAddress: raw["hermes.grpc.address"],
		HermesTable:       raw["hermes.table"],
		HermesTLSCACert:   raw["hermes.grpc.tls.ca_cert"],
		HermesTLSDomain:   raw["hermes.grpc.tls.domain"],
	}

	enable, err := parseYesNo("hermes.enable", raw["hermes.enable"])
	if err != nil {
		return nil, err
	}
	cfg.HermesEnable = enable

	tls, err := parseYesNo("hermes.grpc.tls", raw["hermes.grpc.tls"])
	if err != nil {
		return nil, err
	}
	cfg.HermesTLS = tls

	return cfg, nil
}

func parseYesNo(key, value string) (bool, error) {
	switch value {
	case "", "no":
		return false, nil
	case "yes":
		return true, nil
	default:
		return false, streamyerrors.NewConfigError(key, "expected yes or no, got "+value, nil)
	}
}

// Validate runs the validator.v10 struct-tag checks and then re-checks the
// TLS domain/cert pairing explicitly. Rule directories are checked for
// presence only; whether they exist on disk is not checked.
func Validate(cfg *Config) error {
	if cfg == nil {
		return streamyerrors.NewConfigError("config", "configuration is nil", nil)
	}
	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	if cfg.HermesTLS && (cfg.HermesTLSCACert == "" || cfg.HermesTLSDomain == "") {
		return streamyerrors.NewConfigError("hermes.grpc.tls", "ca_cert and domain are both required when tls is enabled", nil)
	}
	return nil
}

func convertValidationError(err error) error {
	if ves, ok := err.(validator.ValidationErrors); ok {
		fe := ves[0]
		return streamyerrors.NewConfigError(fe.Namespace(), "failed validation for tag '"+fe.Tag()+"'", nil)
	}
	return streamyerrors.NewConfigError("config", err.Error(), err)
}
