package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/observability/logging"
	telemetry "setprotocol/observability/otel"
	"setprotocol/sdk/setprotocol"
)

const defaultRPCURL = "http://127.0.0.1:8545"

// Config is the on-disk configuration shared by setctl and set-gateway.
type Config struct {
	RPCURL            string  `toml:"RPCURL"`
	ChainID           uint64  `toml:"ChainID"`
	Network           string  `toml:"Network"`
	DeploymentFile    string  `toml:"DeploymentFile"`
	KeystorePath      string  `toml:"KeystorePath"`
	PassphraseEnv     string  `toml:"PassphraseEnv"`
	GasLimit          uint64  `toml:"GasLimit"`
	GasPrice          string  `toml:"GasPrice"`
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
	DisablePreflight  bool    `toml:"DisablePreflight"`
	LogLevel          string  `toml:"LogLevel"`
	LogFile           string  `toml:"LogFile"`
	Environment       string  `toml:"Environment"`
	JournalPath       string  `toml:"JournalPath"`

	Addresses Addresses `toml:"addresses"`
	Telemetry Telemetry `toml:"telemetry"`
	Gateway   Gateway   `toml:"gateway"`
}

// Addresses lists the protocol deployments as hex strings. Blank entries are
// filled from the deployment manifest when one is configured.
type Addresses struct {
	Core                       string `toml:"Core" yaml:"core"`
	TransferProxy              string `toml:"TransferProxy" yaml:"transfer_proxy"`
	Vault                      string `toml:"Vault" yaml:"vault"`
	RebalanceAuctionModule     string `toml:"RebalanceAuctionModule" yaml:"rebalance_auction_module"`
	RebalancingSetTokenFactory string `toml:"RebalancingSetTokenFactory" yaml:"rebalancing_set_token_factory"`
	SetTokenFactory            string `toml:"SetTokenFactory" yaml:"set_token_factory"`
	ProtocolViewer             string `toml:"ProtocolViewer" yaml:"protocol_viewer"`
}

// Telemetry configures OTLP export.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	// SampleRatio is the fraction of root spans exported.
	SampleRatio float64 `toml:"SampleRatio"`
}

// Gateway configures the read-only HTTP gateway. Timeouts are in seconds.
type Gateway struct {
	ListenAddress     string `toml:"ListenAddress"`
	ReadHeaderTimeout int    `toml:"ReadHeaderTimeout"`
	ReadTimeout       int    `toml:"ReadTimeout"`
	WriteTimeout      int    `toml:"WriteTimeout"`
	IdleTimeout       int    `toml:"IdleTimeout"`
	// RequestsPerMinute limits each client address. Zero disables limiting.
	RequestsPerMinute float64  `toml:"RequestsPerMinute"`
	Burst             int      `toml:"Burst"`
	AllowedOrigins    []string `toml:"AllowedOrigins"`
	LogRequests       bool     `toml:"LogRequests"`
}

// Load loads the configuration from path, writing a default file first when
// none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)
	if cfg.DeploymentFile != "" {
		deploymentPath := cfg.DeploymentFile
		if !filepath.IsAbs(deploymentPath) {
			deploymentPath = filepath.Join(filepath.Dir(path), deploymentPath)
		}
		deployments, err := LoadDeployments(deploymentPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyDeployment(deployments); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		cfg.RPCURL = defaultRPCURL
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.PassphraseEnv) == "" {
		cfg.PassphraseEnv = "SET_KEYSTORE_PASSPHRASE"
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if strings.TrimSpace(cfg.Gateway.ListenAddress) == "" {
		cfg.Gateway.ListenAddress = ":8088"
	}
	if cfg.Gateway.ReadHeaderTimeout <= 0 {
		cfg.Gateway.ReadHeaderTimeout = 5
	}
	if cfg.Gateway.ReadTimeout <= 0 {
		cfg.Gateway.ReadTimeout = 15
	}
	if cfg.Gateway.WriteTimeout <= 0 {
		cfg.Gateway.WriteTimeout = 30
	}
	if cfg.Gateway.IdleTimeout <= 0 {
		cfg.Gateway.IdleTimeout = 60
	}
	if cfg.Gateway.RequestsPerMinute > 0 && cfg.Gateway.Burst <= 0 {
		cfg.Gateway.Burst = 10
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Network:     "local",
		ChainID:     1337,
		JournalPath: filepath.Join(filepath.Dir(path), "journal.db"),
	}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// GasPriceWei parses GasPrice. A blank value yields nil so the node's
// suggestion is used.
func (c *Config) GasPriceWei() (*big.Int, error) {
	raw := strings.TrimSpace(c.GasPrice)
	if raw == "" {
		return nil, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid GasPrice %q", c.GasPrice)
	}
	return value, nil
}

// ProtocolAddresses parses the configured deployments. Blank entries stay
// zero.
func (c *Config) ProtocolAddresses() (setprotocol.Addresses, error) {
	var out setprotocol.Addresses
	fields := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"Core", c.Addresses.Core, &out.Core},
		{"TransferProxy", c.Addresses.TransferProxy, &out.TransferProxy},
		{"Vault", c.Addresses.Vault, &out.Vault},
		{"RebalanceAuctionModule", c.Addresses.RebalanceAuctionModule, &out.RebalanceAuctionModule},
		{"RebalancingSetTokenFactory", c.Addresses.RebalancingSetTokenFactory, &out.RebalancingSetTokenFactory},
		{"SetTokenFactory", c.Addresses.SetTokenFactory, &out.SetTokenFactory},
		{"ProtocolViewer", c.Addresses.ProtocolViewer, &out.ProtocolViewer},
	}
	for _, field := range fields {
		addr, err := contracts.ParseOptionalAddress("addresses."+field.name, field.value)
		if err != nil {
			return setprotocol.Addresses{}, err
		}
		*field.dst = addr
	}
	return out, nil
}

// Session converts the file configuration into the options of an SDK session.
func (c *Config) Session() (setprotocol.Config, error) {
	addrs, err := c.ProtocolAddresses()
	if err != nil {
		return setprotocol.Config{}, err
	}
	gasPrice, err := c.GasPriceWei()
	if err != nil {
		return setprotocol.Config{}, err
	}
	session := setprotocol.Config{
		RPCURL:            c.RPCURL,
		Addresses:         addrs,
		GasLimit:          c.GasLimit,
		GasPrice:          gasPrice,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		DisablePreflight:  c.DisablePreflight,
	}
	if c.ChainID != 0 {
		session.ChainID = new(big.Int).SetUint64(c.ChainID)
	}
	return session, nil
}

// LogOptions returns the logging settings for the command line tools.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, File: c.LogFile}
}

// TelemetryConfig returns the OTLP settings for service.
func (c *Config) TelemetryConfig(service string) telemetry.Config {
	return telemetry.Config{
		ServiceName: service,
		Environment: c.Environment,
		Endpoint:    c.Telemetry.Endpoint,
		Insecure:    c.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(c.Telemetry.Headers),
		Traces:      c.Telemetry.Traces,
		Metrics:     c.Telemetry.Metrics,
		SampleRatio: c.Telemetry.SampleRatio,
	}
}
