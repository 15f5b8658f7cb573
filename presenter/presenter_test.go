package presenter

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/dbkchain/bridge-service/bridge"
	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/monitor"
	"github.com/dbkchain/bridge-service/pricefeed"
	"github.com/dbkchain/bridge-service/repository"
	"github.com/dbkchain/bridge-service/rollup"
)

var testUser = common.HexToAddress("0x97Fa19e90c10e03a151dA09f811e2400e4E01229")

type stubRecords struct {
	records []*entity.BridgeRecord
}

func (s *stubRecords) Ensure(_ context.Context, record *entity.BridgeRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubRecords) GetByTxHash(_ context.Context, fromChainID string, txHash common.Hash) (*entity.BridgeRecord, error) {
	for _, record := range s.records {
		if record.FromChainID == fromChainID && record.TxHash == txHash {
			return record, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *stubRecords) FindByUserAddress(_ context.Context, user common.Address, _, _ uint) ([]*entity.BridgeRecord, error) {
	var res []*entity.BridgeRecord
	for _, record := range s.records {
		if record.UserAddress == user {
			res = append(res, record)
		}
	}
	return res, nil
}

func (s *stubRecords) FindAll(context.Context, uint, uint) ([]*entity.BridgeRecord, error) {
	return s.records, nil
}

// stubChains serves both chain sides: receipts are never found, so deposits
// always resolve as pending, and submissions return fixed hashes.
type stubChains struct{}

func (stubChains) ChainID() string { return "1" }

func (stubChains) PortalAddress() common.Address { return common.Address{} }

func (stubChains) TransactionReceiptByHash(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (stubChains) GetWithdrawalStatus(context.Context, *types.Receipt) (entity.BridgeStatus, error) {
	return entity.StatusWaitingToProve, nil
}

func (stubChains) DepositNative(context.Context, *big.Int) (common.Hash, error) {
	return common.HexToHash("0xaa"), nil
}

func (stubChains) EstimateDepositGas(context.Context, *big.Int) (uint64, error) { return 92000, nil }

func (stubChains) WaitToProve(context.Context, *types.Receipt) (*rollup.ProveParams, error) {
	return nil, nil
}

func (stubChains) ProveWithdrawal(context.Context, *rollup.ProveParams) (common.Hash, error) {
	return common.HexToHash("0xcc"), nil
}

func (stubChains) FinalizeWithdrawal(context.Context, *rollup.WithdrawalMessage) (common.Hash, error) {
	return common.HexToHash("0xdd"), nil
}

type stubL2Chain struct{ stubChains }

func (stubL2Chain) ChainID() string { return "20240603" }

func (stubL2Chain) InitiateWithdrawal(context.Context, *big.Int) (common.Hash, error) {
	return common.HexToHash("0xbb"), nil
}

func (stubL2Chain) EstimateInitiateWithdrawalGas(context.Context, *big.Int) (uint64, error) {
	return 87000, nil
}

type stubPrices struct{}

func (stubPrices) GetGasPriceLevels(context.Context, string) ([]pricefeed.GasPriceLevel, error) {
	return []pricefeed.GasPriceLevel{{Level: "normal", Price: 1e9}}, nil
}

func (stubPrices) GetTokenPrice(context.Context, common.Address, string) (*pricefeed.TokenPrice, error) {
	return &pricefeed.TokenPrice{PriceUSD: 2000}, nil
}

type stubStatusView map[bridge.RecordKey]entity.BridgeStatus

func (s stubStatusView) Status(key bridge.RecordKey) (entity.BridgeStatus, bool) {
	status, ok := s[key]
	return status, ok
}

func newTestPresenterWithView(records *stubRecords, view StatusView) *Presenter {
	logger := logging.New()
	l1 := stubChains{}
	l2 := stubL2Chain{}
	cfg := &config.BridgeConfig{
		ID: "dbk",
		L1: &config.BridgeSideConfig{Chain: &config.ChainConfig{ChainID: "1"}},
		L2: &config.BridgeSideConfig{Chain: &config.ChainConfig{ChainID: "20240603"}},
	}
	repo := &repository.Repo{BridgeRecords: records}
	resolver := bridge.NewStatusResolver(logger, l1, l2)
	executor := bridge.NewActionExecutor(logger, resolver, records, l1, l2)
	estimator := bridge.NewGasFeeEstimator(logger, stubPrices{}, l1, l2, common.Address{})
	return NewPresenter(logger, repo, cfg, resolver, executor, estimator, view)
}

func newTestPresenter(records *stubRecords) *Presenter {
	logger := logging.New()
	resolver := bridge.NewStatusResolver(logger, stubChains{}, stubL2Chain{})
	mon := monitor.NewMonitor(logger, &config.MonitorConfig{PollInterval: 1}, "dbk", records, resolver)
	return newTestPresenterWithView(records, mon)
}

func TestCreateRecord(t *testing.T) {
	records := &stubRecords{}
	server := httptest.NewServer(newTestPresenter(records).Handler())
	defer server.Close()

	body := `{"userAddress":"0x97Fa19e90c10e03a151dA09f811e2400e4E01229","fromChainId":"1","toChainId":"20240603",` +
		`"txHash":"0x737447468371533841f20d765e14e0848db9c47cb6d9b3f9b44a25b0afadcb36","isDeposit":true,"amount":"1.5"}`
	resp, err := http.Post(server.URL+"/bridge/records", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, records.records, 1)
	require.Equal(t, testUser, records.records[0].UserAddress)

	t.Run("invalid payload", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/bridge/records", "application/json",
			strings.NewReader(`{"userAddress":"not-an-address"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetHistory(t *testing.T) {
	records := &stubRecords{records: []*entity.BridgeRecord{{
		UserAddress: testUser,
		FromChainID: "1",
		ToChainID:   "20240603",
		TxHash:      common.HexToHash("0x01"),
		IsDeposit:   true,
		Amount:      "1.5",
	}}}
	server := httptest.NewServer(newTestPresenter(records).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/bridge/history/" + testUser.Hex())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res HistoryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Records, 1)
	require.Equal(t, entity.StatusDepositPending, res.Records[0].Status)
	require.Equal(t, 1, res.PendingCount)
}

func TestGetHistoryKeepsFinalizedDeposit(t *testing.T) {
	deposit := &entity.BridgeRecord{
		UserAddress: testUser,
		FromChainID: "1",
		ToChainID:   "20240603",
		TxHash:      common.HexToHash("0x01"),
		IsDeposit:   true,
		Amount:      "1.5",
	}
	records := &stubRecords{records: []*entity.BridgeRecord{deposit}}
	// the live resolve sees no receipts and reports the deposit as pending,
	// the monitor already observed it finalized
	view := stubStatusView{bridge.Key(deposit): entity.StatusFinalized}
	server := httptest.NewServer(newTestPresenterWithView(records, view).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/bridge/history/" + testUser.Hex())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res HistoryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Records, 1)
	require.Equal(t, entity.StatusFinalized, res.Records[0].Status)
	require.Equal(t, 0, res.PendingCount)
}

func TestGetStatusNotFound(t *testing.T) {
	server := httptest.NewServer(newTestPresenter(&stubRecords{}).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/bridge/status/1/0x737447468371533841f20d765e14e0848db9c47cb6d9b3f9b44a25b0afadcb36")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInitiateDepositEndpoint(t *testing.T) {
	records := &stubRecords{}
	server := httptest.NewServer(newTestPresenter(records).Handler())
	defer server.Close()

	body := `{"userAddress":"0x97Fa19e90c10e03a151dA09f811e2400e4E01229","amount":"1.5"}`
	resp, err := http.Post(server.URL+"/bridge/deposit", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, records.records, 1)
	require.True(t, records.records[0].IsDeposit)

	t.Run("non-positive amount", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/bridge/deposit", "application/json",
			strings.NewReader(`{"userAddress":"0x97Fa19e90c10e03a151dA09f811e2400e4E01229","amount":"-1"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProveWithdrawalEndpointNotReady(t *testing.T) {
	withdrawal := &entity.BridgeRecord{
		UserAddress: testUser,
		FromChainID: "20240603",
		ToChainID:   "1",
		TxHash:      common.HexToHash("0x737447468371533841f20d765e14e0848db9c47cb6d9b3f9b44a25b0afadcb36"),
		Amount:      "1.5",
	}
	records := &stubRecords{records: []*entity.BridgeRecord{withdrawal}}
	server := httptest.NewServer(newTestPresenter(records).Handler())
	defer server.Close()

	// the L2 receipt is missing, so the status cannot be determined
	resp, err := http.Post(server.URL+"/bridge/withdrawals/"+withdrawal.TxHash.Hex()+"/prove", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetGasFees(t *testing.T) {
	server := httptest.NewServer(newTestPresenter(&stubRecords{}).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/bridge/gas-fees?amount=1.5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res bridge.GasFeeEstimate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.InDelta(t, 0.413058, res.WithdrawProveGasFee, 1e-9)
}
