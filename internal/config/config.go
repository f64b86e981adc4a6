package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	verifier "github.com/microai-paygate/verifier"
)

// EnvPrefix prefixes every environment override: PAYGATE_SERVER_PORT -> server.port.
const EnvPrefix = "PAYGATE_"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Log         LogConfig         `koanf:"log"`
	Domain      DomainConfig      `koanf:"domain"`
	Chains      ChainsConfig      `koanf:"chains"`
	Correlation CorrelationConfig `koanf:"correlation"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	CORS        CORSConfig        `koanf:"cors"`
}

type ServerConfig struct {
	Host             string `koanf:"host"`
	Port             int    `koanf:"port"`
	Router           string `koanf:"router"`
	ReadTimeoutSecs  int    `koanf:"readtimeoutsecs"`
	WriteTimeoutSecs int    `koanf:"writetimeoutsecs"`
	IdleTimeoutSecs  int    `koanf:"idletimeoutsecs"`
	MaxBodyBytes     int64  `koanf:"maxbodybytes"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DomainConfig struct {
	Name              string `koanf:"name"`
	Version           string `koanf:"version"`
	VerifyingContract string `koanf:"verifyingcontract"`
}

type ChainsConfig struct {
	// Allowed is a comma-separated list of chain ids or well-known network
	// names. Empty allows every chain.
	Allowed string `koanf:"allowed"`
}

type CorrelationConfig struct {
	OmitFallback bool `koanf:"omitfallback"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type CORSConfig struct {
	AllowOrigins string `koanf:"alloworigins"`
}

// Router names accepted by server.router.
const (
	RouterChi = "chi"
	RouterGin = "gin"
)

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.host":              "0.0.0.0",
		"server.port":              3002,
		"server.router":            RouterChi,
		"server.readtimeoutsecs":   15,
		"server.writetimeoutsecs":  30,
		"server.idletimeoutsecs":   60,
		"server.maxbodybytes":      1 << 20,
		"log.level":                "info",
		"log.format":               "json",
		"domain.name":              verifier.DefaultDomain.Name,
		"domain.version":           verifier.DefaultDomain.Version,
		"domain.verifyingcontract": verifier.DefaultDomain.VerifyingContract.Hex(),
		"chains.allowed":           "",
		"correlation.omitfallback": false,
		"metrics.enabled":          true,
		"cors.alloworigins":        "",
	}, "."), nil)

	// YAML files are optional; a file that exists must parse.
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	// Environment variables override everything
	_ = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"_", ".",
		)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Router {
	case RouterChi, RouterGin:
	default:
		errs = append(errs, fmt.Errorf("server.router %q: want %q or %q", c.Server.Router, RouterChi, RouterGin))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.maxbodybytes must be positive"))
	}
	if _, err := c.VerifierDomain(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AllowedChainIDs(); err != nil {
		errs = append(errs, err)
	}
	for _, origin := range c.AllowOrigins() {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("cors.alloworigins: bad origin %q", origin))
		}
	}
	return errors.Join(errs...)
}

// Addr returns the listen address host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VerifierDomain converts the domain section into a validated DomainConfig.
func (c *Config) VerifierDomain() (verifier.DomainConfig, error) {
	d := verifier.DomainConfig{
		Name:    c.Domain.Name,
		Version: c.Domain.Version,
	}
	if c.Domain.VerifyingContract != "" {
		if !common.IsHexAddress(c.Domain.VerifyingContract) {
			return verifier.DomainConfig{}, fmt.Errorf("domain.verifyingcontract %q is not an address", c.Domain.VerifyingContract)
		}
		d.VerifyingContract = common.HexToAddress(c.Domain.VerifyingContract)
	}
	if err := d.Validate(); err != nil {
		return verifier.DomainConfig{}, err
	}
	return d, nil
}

// AllowedChainIDs parses chains.allowed. Entries are decimal chain ids or
// well-known network names such as "base-sepolia".
func (c *Config) AllowedChainIDs() ([]uint64, error) {
	var ids []uint64
	for _, entry := range splitList(c.Chains.Allowed) {
		if id, err := strconv.ParseUint(entry, 10, 64); err == nil {
			ids = append(ids, id)
			continue
		}
		chain, ok := verifier.LookupNetwork(entry)
		if !ok {
			return nil, fmt.Errorf("chains.allowed: unknown chain %q", entry)
		}
		ids = append(ids, chain.ChainID)
	}
	return ids, nil
}

// AllowOrigins parses cors.alloworigins.
func (c *Config) AllowOrigins() []string {
	return splitList(c.CORS.AllowOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
