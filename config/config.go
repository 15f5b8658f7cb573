package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type RPCConfig struct {
	Host    string
	Timeout time.Duration
}

func (c *RPCConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Host    string `yaml:"host"`
		Timeout string `yaml:"timeout"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return fmt.Errorf("can't parse rpc timeout: %w", err)
	}
	c.Host = raw.Host
	c.Timeout = timeout
	return nil
}

type ChainConfig struct {
	RPC     *RPCConfig `yaml:"rpc"`
	ChainID string     `yaml:"chain_id"`
}

type BridgeSideConfig struct {
	ChainName string       `yaml:"chain"`
	Chain     *ChainConfig `yaml:"-"`
}

type BridgeConfig struct {
	ID                  string            `yaml:"-"`
	L1                  *BridgeSideConfig `yaml:"l1"`
	L2                  *BridgeSideConfig `yaml:"l2"`
	PortalAddress       string            `yaml:"portal_address"`
	OutputOracleAddress string            `yaml:"output_oracle_address"`
	DepositGasLimit     uint64            `yaml:"deposit_gas_limit"`
	WithdrawGasLimit    uint64            `yaml:"withdraw_gas_limit"`
	TxSignerKey         string            `yaml:"tx_signer_key"`
}

func (c *BridgeConfig) Portal() common.Address {
	return common.HexToAddress(c.PortalAddress)
}

func (c *BridgeConfig) OutputOracle() common.Address {
	return common.HexToAddress(c.OutputOracleAddress)
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type PriceFeedConfig struct {
	URL                string
	Timeout            time.Duration
	NativeTokenAddress string
}

func (c *PriceFeedConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		URL                string `yaml:"url"`
		Timeout            string `yaml:"timeout"`
		NativeTokenAddress string `yaml:"native_token_address"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return fmt.Errorf("can't parse price feed timeout: %w", err)
	}
	if raw.NativeTokenAddress != "" && !common.IsHexAddress(raw.NativeTokenAddress) {
		return fmt.Errorf("invalid native token address %q", raw.NativeTokenAddress)
	}
	c.URL = raw.URL
	c.Timeout = timeout
	c.NativeTokenAddress = raw.NativeTokenAddress
	return nil
}

// NativeToken is the price feed identifier of the chain-native asset. The
// zero address stands for the native coin itself.
func (c *PriceFeedConfig) NativeToken() common.Address {
	return common.HexToAddress(c.NativeTokenAddress)
}

type MonitorConfig struct {
	PollInterval time.Duration
}

func (c *MonitorConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		PollInterval string `yaml:"poll_interval"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	interval, err := time.ParseDuration(raw.PollInterval)
	if err != nil {
		return fmt.Errorf("can't parse poll interval: %w", err)
	}
	c.PollInterval = interval
	return nil
}

type Config struct {
	Chains    map[string]*ChainConfig  `yaml:"chains"`
	Bridges   map[string]*BridgeConfig `yaml:"bridges"`
	DBConfig  *DBConfig                `yaml:"postgres"`
	Presenter *PresenterConfig         `yaml:"presenter"`
	PriceFeed *PriceFeedConfig         `yaml:"price_feed"`
	Monitor   *MonitorConfig           `yaml:"monitor"`
	LogLevel  string                   `yaml:"log_level"`
}

func (cfg *Config) process() error {
	for id, bridge := range cfg.Bridges {
		bridge.ID = id
		for _, side := range [2]*BridgeSideConfig{bridge.L1, bridge.L2} {
			if side == nil {
				return fmt.Errorf("bridge %s is missing a side config", id)
			}
			chain, ok := cfg.Chains[side.ChainName]
			if !ok {
				return fmt.Errorf("bridge %s references unknown chain %s", id, side.ChainName)
			}
			side.Chain = chain
		}
		if !common.IsHexAddress(bridge.PortalAddress) {
			return fmt.Errorf("bridge %s has invalid portal address %q", id, bridge.PortalAddress)
		}
		if !common.IsHexAddress(bridge.OutputOracleAddress) {
			return fmt.Errorf("bridge %s has invalid output oracle address %q", id, bridge.OutputOracleAddress)
		}
	}
	if cfg.DBConfig == nil {
		return fmt.Errorf("missing postgres section")
	}
	if cfg.Presenter == nil {
		return fmt.Errorf("missing presenter section")
	}
	if cfg.PriceFeed == nil {
		return fmt.Errorf("missing price_feed section")
	}
	if cfg.Monitor == nil {
		return fmt.Errorf("missing monitor section")
	}
	return nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	blob = []byte(os.ExpandEnv(string(blob)))
	cfg := new(Config)
	if err := decodeStrictYaml(blob, cfg); err != nil {
		return nil, err
	}
	if err := cfg.process(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
