package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dbkchain/bridge-service/bridge"
	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/presenter/http/middleware"
	"github.com/dbkchain/bridge-service/presenter/http/render"
	"github.com/dbkchain/bridge-service/repository"
)

const defaultHistoryLimit = 100

// StatusView is a forward-only view of the latest observed record statuses,
// implemented by monitor.Monitor.
type StatusView interface {
	Status(key bridge.RecordKey) (entity.BridgeStatus, bool)
}

// Presenter is the JSON API of the bridge service. It exposes the recorded
// bridge history with live lifecycle statuses and lets clients initiate,
// prove and finalize bridge legs.
type Presenter struct {
	logger    logging.Logger
	repo      *repository.Repo
	cfg       *config.BridgeConfig
	resolver  *bridge.StatusResolver
	executor  *bridge.ActionExecutor
	estimator *bridge.GasFeeEstimator
	monitor   StatusView
	validate  *validator.Validate
	root      chi.Router
}

func NewPresenter(
	logger logging.Logger,
	repo *repository.Repo,
	cfg *config.BridgeConfig,
	resolver *bridge.StatusResolver,
	executor *bridge.ActionExecutor,
	estimator *bridge.GasFeeEstimator,
	mon StatusView,
) *Presenter {
	return &Presenter{
		logger:    logger,
		repo:      repo,
		cfg:       cfg,
		resolver:  resolver,
		executor:  executor,
		estimator: estimator,
		monitor:   mon,
		validate:  validator.New(),
		root:      chi.NewMux(),
	}
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.Handler())
}

func (p *Presenter) Handler() http.Handler {
	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(p.logger))
	p.root.Use(middleware.Recoverer)
	p.root.Route("/bridge", func(r chi.Router) {
		r.Post("/records", p.CreateRecord)
		r.Get("/history/{userAddress:0x[0-9a-fA-F]{40}}", p.GetHistory)
		r.Get("/status/{chainID:[0-9]+}/{txHash:0x[0-9a-fA-F]{64}}", p.GetStatus)
		r.Get("/gas-fees", p.GetGasFees)
		r.Post("/deposit", p.InitiateDeposit)
		r.Post("/withdrawal", p.InitiateWithdrawal)
		r.Post("/withdrawals/{txHash:0x[0-9a-fA-F]{64}}/prove", p.ProveWithdrawal)
		r.Post("/withdrawals/{txHash:0x[0-9a-fA-F]{64}}/finalize", p.FinalizeWithdrawal)
	})
	return p.root
}

// CreateRecord registers an externally submitted bridge transaction in the
// history. Submissions made through this service are recorded automatically.
func (p *Presenter) CreateRecord(w http.ResponseWriter, r *http.Request) {
	req := new(CreateRecordRequest)
	if !p.decode(w, r, req) {
		return
	}
	record := &entity.BridgeRecord{
		UserAddress: common.HexToAddress(req.UserAddress),
		FromChainID: req.FromChainID,
		ToChainID:   req.ToChainID,
		TxHash:      common.HexToHash(req.TxHash),
		IsDeposit:   *req.IsDeposit,
		Amount:      req.Amount,
	}
	if err := p.repo.BridgeRecords.Ensure(r.Context(), record); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusCreated, recordResult(record, ""))
}

// GetHistory lists the bridge legs of one user together with their current
// lifecycle statuses and the number of not yet finalized legs.
func (p *Presenter) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := common.HexToAddress(chi.URLParam(r, "userAddress"))
	limit, offset := pagination(r)

	records, err := p.repo.BridgeRecords.FindByUserAddress(ctx, user, limit, offset)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	batch := p.resolver.ResolveBatch(ctx, records)

	res := &HistoryResult{Records: make([]*RecordResult, 0, len(records))}
	for _, record := range records {
		key := bridge.Key(record)
		status := batch.Items[key].Status
		// the monitor view is forward-only, prefer it over a stale poll
		if seen, ok := p.monitor.Status(key); ok && (status == "" || seen.IsTerminal() || status.Before(seen)) {
			status = seen
		}
		if !status.IsTerminal() {
			res.PendingCount++
		}
		res.Records = append(res.Records, recordResult(record, status))
	}
	render.JSON(w, r, http.StatusOK, res)
}

// GetStatus resolves the current lifecycle status of a single recorded leg.
func (p *Presenter) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chainID := chi.URLParam(r, "chainID")
	txHash := common.HexToHash(chi.URLParam(r, "txHash"))

	record, err := p.repo.BridgeRecords.GetByTxHash(ctx, chainID, txHash)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "bridge record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	status, err := p.resolver.ResolveStatus(ctx, record)
	if errors.Is(err, bridge.ErrStatusUnknown) {
		http.Error(w, "bridge status is not known yet", http.StatusAccepted)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, &StatusResult{TxHash: txHash, Status: status})
}

// GetGasFees renders the advisory USD fee estimate for bridging the given
// amount.
func (p *Presenter) GetGasFees(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		amount = "1"
	}
	estimate, err := p.estimator.Estimate(r.Context(), amount)
	if errors.Is(err, bridge.ErrNonPositiveAmount) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, estimate)
}

func (p *Presenter) InitiateDeposit(w http.ResponseWriter, r *http.Request) {
	p.initiate(w, r, p.executor.InitiateDeposit)
}

func (p *Presenter) InitiateWithdrawal(w http.ResponseWriter, r *http.Request) {
	p.initiate(w, r, p.executor.InitiateWithdrawal)
}

func (p *Presenter) ProveWithdrawal(w http.ResponseWriter, r *http.Request) {
	p.withdrawalAction(w, r, p.executor.ProveWithdrawal)
}

func (p *Presenter) FinalizeWithdrawal(w http.ResponseWriter, r *http.Request) {
	p.withdrawalAction(w, r, p.executor.FinalizeWithdrawal)
}

func (p *Presenter) initiate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, user common.Address, amount string) (*entity.BridgeRecord, error)) {
	req := new(InitiateRequest)
	if !p.decode(w, r, req) {
		return
	}
	record, err := action(r.Context(), common.HexToAddress(req.UserAddress), req.Amount)
	if errors.Is(err, bridge.ErrNonPositiveAmount) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusCreated, recordResult(record, ""))
}

func (p *Presenter) withdrawalAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, record *entity.BridgeRecord) (common.Hash, error)) {
	ctx := r.Context()
	txHash := common.HexToHash(chi.URLParam(r, "txHash"))

	record, err := p.repo.BridgeRecords.GetByTxHash(ctx, p.cfg.L2.Chain.ChainID, txHash)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "withdrawal record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	actionTxHash, err := action(ctx, record)
	if errors.Is(err, bridge.ErrNotReady) || errors.Is(err, bridge.ErrStatusUnknown) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, &TxResult{TxHash: actionTxHash})
}

func (p *Presenter) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "can't decode request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := p.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pagination(r *http.Request) (limit, offset uint) {
	limit = defaultHistoryLimit
	if raw, err := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 32); err == nil && raw > 0 {
		limit = uint(raw)
	}
	if raw, err := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 32); err == nil {
		offset = uint(raw)
	}
	return limit, offset
}

func recordResult(record *entity.BridgeRecord, status entity.BridgeStatus) *RecordResult {
	return &RecordResult{
		UserAddress: record.UserAddress,
		FromChainID: record.FromChainID,
		ToChainID:   record.ToChainID,
		TxHash:      record.TxHash,
		IsDeposit:   record.IsDeposit,
		Amount:      record.Amount,
		Status:      status,
		CreatedAt:   record.CreatedAt,
	}
}
