package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"dexgraph/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Flush    FlushConfig    `mapstructure:"flush"`
	Ethereum EthereumConfig `mapstructure:"ethereum"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FlushConfig governs the snapshot flush cadence.
type FlushConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// EthereumConfig covers on-chain data access.
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ProtocolConfig fixes the exchange deployment the engine aggregates.
// Values are immutable after Load; traversal order of Whitelist is
// significant for price derivation.
type ProtocolConfig struct {
	FactoryAddress       string   `mapstructure:"factory_address"`
	RouterAddress        string   `mapstructure:"router_address"`
	WrappedNativeAddress string   `mapstructure:"wrapped_native_address"`
	StablePairAddress    string   `mapstructure:"stable_pair_address"`
	Whitelist            []string `mapstructure:"whitelist"`
	StakingPools         []string `mapstructure:"staking_pools"`

	// MinimumLiquidityNative is the native-asset reserve a pair must
	// exceed before it qualifies as a price reference.
	MinimumLiquidityNative float64 `mapstructure:"minimum_liquidity_native"`
	// MinimumUSDNewPairs is the combined-reserve USD floor applied to
	// pairs with fewer than five liquidity providers.
	MinimumUSDNewPairs float64 `mapstructure:"minimum_usd_new_pairs"`
	// BootstrapLockAmount is the raw liquidity-token amount minted to the
	// zero address on pair creation and excluded from bookkeeping.
	BootstrapLockAmount int64 `mapstructure:"bootstrap_lock_amount"`
	// LiquidityTokenDecimals is the decimal precision of pair liquidity tokens.
	LiquidityTokenDecimals int32 `mapstructure:"liquidity_token_decimals"`
}

// IngestConfig tunes the log ingestion pipeline.
type IngestConfig struct {
	StartBlock   uint64        `mapstructure:"start_block"`
	BatchSize    uint64        `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Confirms     uint64        `mapstructure:"confirms"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Protocol.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dexgraph")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("flush.interval", "30s")
	v.SetDefault("flush.align_to_bucket", false)
	v.SetDefault("flush.advisory_lock_key", int64(0x64657867))
	v.SetDefault("flush.startup_delay", "0s")

	v.SetDefault("ethereum.request_timeout", "10s")

	v.SetDefault("protocol.wrapped_native_address", "0xd00ae08403B9bbb9124bB305C09058E32C39A48c")
	v.SetDefault("protocol.stable_pair_address", "0x6fa3DF2D2C73E47010497FdcaE3ec2773A4f8dbB")
	v.SetDefault("protocol.whitelist", []string{
		"0xd00ae08403B9bbb9124bB305C09058E32C39A48c", // wrapped native
		"0xAA9344D903ef9034612e8221C0e0eF3B744A42BF",
		"0x598d84C62B6a9Af2FcF6DA1D9Bff52f9dd7D8226",
		"0x8E18dEF819C5C50937e883dD9ecc5B6783224aC7",
		"0xFf2Ebd79c0948C8fE69b96434915ABC03Ebb5c37",
		"0x8BAb1Be3571a54e8dB6b975eb39ceDE251A1C6dF",
	})
	v.SetDefault("protocol.staking_pools", []string{
		"0xa1ae93d4c9c4271297653cf654d0b4d5105d8251",
		"0xcfb90b451d0f2ff417820d3a79b95f12ee001e03",
		"0x25a3887a3faf119aa6420268305db0aafbe31b12",
		"0x3e6b8a36bf6de077bbba89d93f3cd6b7dba6acc4",
		"0xc1ddc5a427465ffb913cf247a92dde84443a252d",
		"0xcb9bd879f44b00b3223ebc2347aa7c97b470c3a5",
		"0x0a6e5bfe21b7612f1841e4956e7964a8ae8380e7",
	})
	v.SetDefault("protocol.minimum_liquidity_native", 1.0)
	v.SetDefault("protocol.minimum_usd_new_pairs", 10.0)
	v.SetDefault("protocol.bootstrap_lock_amount", int64(1000))
	v.SetDefault("protocol.liquidity_token_decimals", int32(18))

	v.SetDefault("ingest.batch_size", uint64(2000))
	v.SetDefault("ingest.poll_interval", "3s")
	v.SetDefault("ingest.confirms", uint64(0))

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// normalize lowercases every configured address so entity ids compare
// byte-for-byte regardless of checksum casing in the config file.
func (p *ProtocolConfig) normalize() {
	p.FactoryAddress = strings.ToLower(p.FactoryAddress)
	p.RouterAddress = strings.ToLower(p.RouterAddress)
	p.WrappedNativeAddress = strings.ToLower(p.WrappedNativeAddress)
	p.StablePairAddress = strings.ToLower(p.StablePairAddress)
	for i, a := range p.Whitelist {
		p.Whitelist[i] = strings.ToLower(a)
	}
	for i, a := range p.StakingPools {
		p.StakingPools[i] = strings.ToLower(a)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Flush.Interval <= 0 {
		return fmt.Errorf("flush.interval must be greater than zero")
	}
	if c.Protocol.WrappedNativeAddress == "" {
		return fmt.Errorf("protocol.wrapped_native_address is required")
	}
	if len(c.Protocol.Whitelist) == 0 {
		return fmt.Errorf("protocol.whitelist must not be empty")
	}
	if c.Protocol.MinimumLiquidityNative < 0 {
		return fmt.Errorf("protocol.minimum_liquidity_native cannot be negative")
	}
	if c.Protocol.MinimumUSDNewPairs < 0 {
		return fmt.Errorf("protocol.minimum_usd_new_pairs cannot be negative")
	}
	if c.Protocol.LiquidityTokenDecimals < 0 || c.Protocol.LiquidityTokenDecimals > 36 {
		return fmt.Errorf("protocol.liquidity_token_decimals out of range")
	}
	if c.Ingest.BatchSize == 0 {
		return fmt.Errorf("ingest.batch_size must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
