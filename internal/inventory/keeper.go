package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stock-keeper/internal/marketplace"
	"github.com/eugenenazirov/stock-keeper/internal/metrics"
	"github.com/eugenenazirov/stock-keeper/internal/status"
)

// Catalog is the subset of the marketplace API the keeper needs.
type Catalog interface {
	ListProducts(ctx context.Context) (*marketplace.ProductPage, error)
	GetProduct(ctx context.Context, sellerProductID int64) (*marketplace.ProductDetail, error)
	UpdateQuantity(ctx context.Context, vendorItemID int64, quantity int) (*marketplace.UpdateResult, error)
}

// Settings are the loop parameters taken from configuration.
type Settings struct {
	// Floor is the minimum stock; items below it are set to exactly Floor.
	Floor int
	// Interval is the sleep between cycles.
	Interval time.Duration
	// CredentialsSet is false when any of the API credentials is empty.
	CredentialsSet bool
	// EnvFile is reported in the missing-credentials warning.
	EnvFile string
}

// Option configures Keeper behaviour.
type Option func(*Keeper)

// WithClock overrides the time source used for sleeping and reports, primarily for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(k *Keeper) {
		k.clock = clock
	}
}

// WithStore records every finished cycle report into store.
func WithStore(store status.Store) Option {
	return func(k *Keeper) {
		k.store = store
	}
}

// Keeper runs poll cycles against a Catalog.
type Keeper struct {
	catalog  Catalog
	settings Settings
	clock    clockwork.Clock
	store    status.Store
	logger   *zap.Logger
	newID    func() string
}

// New constructs a Keeper.
func New(catalog Catalog, settings Settings, logger *zap.Logger, opts ...Option) *Keeper {
	k := &Keeper{
		catalog:  catalog,
		settings: settings,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Run executes cycles until ctx is cancelled, sleeping Interval between them. Cycle errors
// are logged and never returned; Run returns nil once ctx is done, including mid-sleep.
func (k *Keeper) Run(ctx context.Context) error {
	for {
		report, err := k.RunCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		k.finish(report, err)

		select {
		case <-ctx.Done():
			return nil
		case <-k.clock.After(k.settings.Interval):
		}
	}
}

// RunOnce executes a single cycle, logs and records it, and returns its error.
func (k *Keeper) RunOnce(ctx context.Context) error {
	report, err := k.RunCycle(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	k.finish(report, err)
	return err
}

// RunCycle performs list, detail and update calls strictly in order. The first failing call
// aborts the rest of the cycle. A list response with a non-success code ends the cycle with
// OutcomeRejected and no error.
func (k *Keeper) RunCycle(ctx context.Context) (report status.Report, err error) {
	report = status.Report{
		CycleID:   k.newID(),
		StartedAt: k.clock.Now(),
	}
	logger := k.logger.With(zap.String("cycle_id", report.CycleID))

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during cycle: %v", rec)
		}
		report.FinishedAt = k.clock.Now()
		report.Outcome = outcomeOf(report.Outcome, err)
		if err != nil {
			report.Error = err.Error()
		}
	}()

	logger.Info("cycle started", zap.Time("started_at", report.StartedAt))
	if !k.settings.CredentialsSet {
		logger.Warn("ACCESS_KEY, SECRET_KEY or SELLER_ID is empty, check the env file",
			zap.String("env_file", k.settings.EnvFile))
	}

	err = k.runCycle(ctx, logger, &report)
	return report, err
}

func (k *Keeper) runCycle(ctx context.Context, logger *zap.Logger, report *status.Report) error {
	page, err := k.catalog.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	if !page.Succeeded() {
		logger.Info("product list not successful, skipping cycle",
			zap.String("code", page.Code),
			zap.String("message", page.Message),
		)
		report.Outcome = status.OutcomeRejected
		return nil
	}

	// TODO: follow NextToken once catalogs beyond one page need keeping.
	if page.NextToken != "" {
		report.Continuation = true
		logger.Warn("more approved products than one page, only the first page is checked",
			zap.Int("page_size", marketplace.PageSize),
			zap.String("next_token", page.NextToken),
		)
	}

	for _, product := range page.Data {
		detail, err := k.catalog.GetProduct(ctx, product.SellerProductID)
		if err != nil {
			return fmt.Errorf("get product %d: %w", product.SellerProductID, err)
		}
		report.ProductsChecked++

		for _, item := range detail.Items {
			if err := k.checkItem(ctx, logger, detail.SellerProductName, item, report); err != nil {
				return err
			}
		}
	}

	return nil
}

func (k *Keeper) checkItem(ctx context.Context, logger *zap.Logger, productName string, item marketplace.Item, report *status.Report) error {
	report.ItemsChecked++
	metrics.ItemsCheckedTotal.Inc()

	decision := Evaluate(item, k.settings.Floor)
	itemLogger := logger.With(
		zap.String("product", productName),
		zap.String("option", item.ItemName),
		zap.Int64("vendor_item_id", item.VendorItemID),
		zap.Int("stock", decision.Current),
	)

	if !decision.Restock {
		itemLogger.Info("stock unchanged", zap.Int("floor", k.settings.Floor))
		return nil
	}

	result, err := k.catalog.UpdateQuantity(ctx, item.VendorItemID, decision.Target)
	if err != nil {
		return fmt.Errorf("update vendor item %d: %w", item.VendorItemID, err)
	}
	report.ItemsRestocked++
	metrics.RestocksTotal.Inc()

	itemLogger.Info("stock restocked",
		zap.Int("from", decision.Current),
		zap.Int("to", decision.Target),
		zap.ByteString("response", result.Raw),
	)
	return nil
}

// finish logs the cycle error by kind, then records metrics and the report.
func (k *Keeper) finish(report status.Report, err error) {
	logger := k.logger.With(zap.String("cycle_id", report.CycleID))

	var statusErr *marketplace.HTTPStatusError
	var netErr *marketplace.NetworkError
	switch {
	case err == nil:
		logger.Info("cycle finished",
			zap.String("outcome", string(report.Outcome)),
			zap.Int("products", report.ProductsChecked),
			zap.Int("items", report.ItemsChecked),
			zap.Int("restocked", report.ItemsRestocked),
			zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		)
	case errors.As(err, &statusErr):
		logger.Error("HTTP error",
			zap.Error(err),
			zap.Int("status", statusErr.StatusCode),
			zap.String("body", statusErr.Body),
		)
	case errors.As(err, &netErr):
		logger.Error("network error", zap.Error(err))
	default:
		logger.Error("unhandled error", zap.Error(err))
	}

	metrics.CyclesTotal.WithLabelValues(string(report.Outcome)).Inc()
	metrics.LastCycleTimestamp.Set(float64(report.FinishedAt.Unix()))
	if k.store != nil {
		k.store.Record(report)
	}
}

func outcomeOf(current status.Outcome, err error) status.Outcome {
	var statusErr *marketplace.HTTPStatusError
	var netErr *marketplace.NetworkError
	switch {
	case err == nil && current != "":
		return current
	case err == nil:
		return status.OutcomeSuccess
	case errors.As(err, &statusErr):
		return status.OutcomeHTTPError
	case errors.As(err, &netErr):
		return status.OutcomeNetworkError
	default:
		return status.OutcomeUnexpectedError
	}
}
