package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dbkchain/bridge-service/config"
)

const testCfg = `
chains:
  mainnet:
    rpc:
      host: https://mainnet.infura.io/v3/${INFURA_PROJECT_KEY}
      timeout: 30s
    chain_id: 1
  dbk:
    rpc:
      host: https://rpc.dbkchain.io
      timeout: 20s
    chain_id: 20240603
bridges:
  dbk:
    l1:
      chain: mainnet
    l2:
      chain: dbk
    portal_address: 0x63CA00232F471bE2A3Bf3C4e95Bc1d2B3EA5DB92
    output_oracle_address: 0x0341bb689CF5a6c8d2e751B19f8b38a210bD8258
    deposit_gas_limit: 100000
    withdraw_gas_limit: 100000
    tx_signer_key: ${BRIDGE_SIGNER_KEY}
postgres:
  user: test_user
  password: test_password
  host: test_host
  port: 5432
  database: test_db
price_feed:
  url: https://api.example.org/v1
  timeout: 10s
  native_token_address: 0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE
monitor:
  poll_interval: 30s
log_level: info
presenter:
  host: 0.0.0.0:3333
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	t.Setenv("BRIDGE_SIGNER_KEY", "abcd")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	mainnetChainCfg := &config.ChainConfig{
		RPC: &config.RPCConfig{
			Host:    "https://mainnet.infura.io/v3/12345678",
			Timeout: 30 * time.Second,
		},
		ChainID: "1",
	}
	dbkChainCfg := &config.ChainConfig{
		RPC: &config.RPCConfig{
			Host:    "https://rpc.dbkchain.io",
			Timeout: 20 * time.Second,
		},
		ChainID: "20240603",
	}
	require.Equal(t, &config.Config{
		Chains: map[string]*config.ChainConfig{
			"mainnet": mainnetChainCfg,
			"dbk":     dbkChainCfg,
		},
		Bridges: map[string]*config.BridgeConfig{
			"dbk": {
				ID: "dbk",
				L1: &config.BridgeSideConfig{
					ChainName: "mainnet",
					Chain:     mainnetChainCfg,
				},
				L2: &config.BridgeSideConfig{
					ChainName: "dbk",
					Chain:     dbkChainCfg,
				},
				PortalAddress:       "0x63CA00232F471bE2A3Bf3C4e95Bc1d2B3EA5DB92",
				OutputOracleAddress: "0x0341bb689CF5a6c8d2e751B19f8b38a210bD8258",
				DepositGasLimit:     100000,
				WithdrawGasLimit:    100000,
				TxSignerKey:         "abcd",
			},
		},
		DBConfig: &config.DBConfig{
			User:     "test_user",
			Password: "test_password",
			Host:     "test_host",
			Port:     5432,
			DB:       "test_db",
		},
		Presenter: &config.PresenterConfig{
			Host: "0.0.0.0:3333",
		},
		PriceFeed: &config.PriceFeedConfig{
			URL:                "https://api.example.org/v1",
			Timeout:            10 * time.Second,
			NativeTokenAddress: "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
		},
		Monitor: &config.MonitorConfig{
			PollInterval: 30 * time.Second,
		},
		LogLevel: "info",
	}, cfg)

	require.Equal(t, common.HexToAddress("0x63CA00232F471bE2A3Bf3C4e95Bc1d2B3EA5DB92"), cfg.Bridges["dbk"].Portal())
}

//nolint:paralleltest
func TestReadConfigUnknownChain(t *testing.T) {
	blob := []byte(`
chains:
  mainnet:
    rpc:
      host: http://localhost:8545
      timeout: 10s
    chain_id: 1
bridges:
  dbk:
    l1:
      chain: mainnet
    l2:
      chain: dbk
    portal_address: 0x63CA00232F471bE2A3Bf3C4e95Bc1d2B3EA5DB92
    output_oracle_address: 0x0341bb689CF5a6c8d2e751B19f8b38a210bD8258
`)
	_, err := config.ReadConfigWithEnv(blob)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown chain")
}

// withoutSection drops a top-level yaml section with all of its nested keys.
func withoutSection(cfg, name string) string {
	lines := strings.Split(cfg, "\n")
	res := make([]string, 0, len(lines))
	skip := false
	for _, line := range lines {
		if strings.HasPrefix(line, name+":") {
			skip = true
			continue
		}
		if skip && line != "" && !strings.HasPrefix(line, " ") {
			skip = false
		}
		if !skip {
			res = append(res, line)
		}
	}
	return strings.Join(res, "\n")
}

//nolint:paralleltest
func TestReadConfigMissingSection(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	t.Setenv("BRIDGE_SIGNER_KEY", "abcd")
	for _, section := range []string{"postgres", "presenter", "price_feed", "monitor"} {
		_, err := config.ReadConfigWithEnv([]byte(withoutSection(testCfg, section)))
		require.Error(t, err, section)
		require.Contains(t, err.Error(), "missing "+section+" section")
	}
}
