package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/stock-keeper/internal/inventory"
	"github.com/eugenenazirov/stock-keeper/internal/marketplace"
	"github.com/eugenenazirov/stock-keeper/internal/signer"
	"github.com/eugenenazirov/stock-keeper/internal/status"
)

const (
	accessKey = "test-access"
	secretKey = "test-secret"
	vendorID  = "A00012345"
)

var authPattern = regexp.MustCompile(`^CEA algorithm=HmacSHA256, access-key=([^,]+), signed-date=(\d{6}T\d{6}Z), signature=([0-9a-f]{64})$`)

// fakeMarketplace verifies every signature and serves a small catalog.
type fakeMarketplace struct {
	mu          sync.Mutex
	listCode    string
	stock       map[int64]int
	products    map[int64][]int64
	failProduct int64
	requests    []string
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{
		listCode: "SUCCESS",
		stock:    map[int64]int{101: 5, 102: 10, 201: 0, 301: 25},
		products: map[int64][]int64{1: {101, 102}, 2: {201}, 3: {301}},
	}
}

func (f *fakeMarketplace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	m := authPattern.FindStringSubmatch(r.Header.Get("Authorization"))
	if m == nil || m[1] != accessKey {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"ERROR","message":"malformed authorization"}`)
		return
	}
	if want := signer.Signature(r.Method, target, secretKey, m[2]); want != m[3] {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"ERROR","message":"signature mismatch"}`)
		return
	}

	const prefix = "/v2/providers/seller_api/apis/api/v1/marketplace"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == prefix+"/seller-products":
		data := []map[string]any{}
		for _, id := range []int64{1, 2, 3} {
			data = append(data, map[string]any{"sellerProductId": id, "sellerProductName": fmt.Sprintf("product %d", id)})
		}
		writeJSON(w, map[string]any{"code": f.listCode, "nextToken": "", "data": data})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, prefix+"/seller-products/"):
		var id int64
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, prefix+"/seller-products/"), "%d", &id)
		if id == f.failProduct {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":"ERROR","message":"internal"}`)
			return
		}
		items := []map[string]any{}
		for _, itemID := range f.products[id] {
			items = append(items, map[string]any{"vendorItemId": itemID, "itemName": fmt.Sprintf("option %d", itemID), "maximumBuyCount": f.stock[itemID]})
		}
		writeJSON(w, map[string]any{"code": "SUCCESS", "data": map[string]any{"sellerProductName": fmt.Sprintf("product %d", id), "items": items}})

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, prefix+"/vendor-items/"):
		var itemID int64
		var quantity int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, prefix+"/vendor-items/"), "%d/quantities/%d", &itemID, &quantity)
		f.stock[itemID] = quantity
		writeJSON(w, map[string]any{"code": "SUCCESS", "message": "ok"})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeMarketplace) puts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		if strings.HasPrefix(r, http.MethodPut) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeMarketplace) setFailProduct(id int64) {
	f.mu.Lock()
	f.failProduct = id
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func newKeeper(t *testing.T, baseURL string, floor int, opts ...inventory.Option) *inventory.Keeper {
	t.Helper()
	logger := zaptest.NewLogger(t)
	client := marketplace.NewClient(marketplace.Config{
		BaseURL:  baseURL,
		VendorID: vendorID,
	}, signer.New(accessKey, secretKey, nil), logger)

	return inventory.New(client, inventory.Settings{
		Floor:          floor,
		Interval:       time.Minute,
		CredentialsSet: true,
	}, logger, opts...)
}

func TestCycleRestocksOnlyItemsBelowFloor(t *testing.T) {
	fake := newFakeMarketplace()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	keeper := newKeeper(t, server.URL, 10)
	report, err := keeper.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status.OutcomeSuccess, report.Outcome)
	assert.Equal(t, 3, report.ProductsChecked)
	assert.Equal(t, 4, report.ItemsChecked)
	assert.Equal(t, 2, report.ItemsRestocked)
	assert.Equal(t, []string{
		"PUT /v2/providers/seller_api/apis/api/v1/marketplace/vendor-items/101/quantities/10",
		"PUT /v2/providers/seller_api/apis/api/v1/marketplace/vendor-items/201/quantities/10",
	}, fake.puts())
}

func TestRejectedListMakesNoFurtherCalls(t *testing.T) {
	fake := newFakeMarketplace()
	fake.listCode = "ERROR"
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	keeper := newKeeper(t, server.URL, 10)
	report, err := keeper.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status.OutcomeRejected, report.Outcome)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.requests, 1)
}

func TestServerErrorAbortsCycleAndNextCycleRuns(t *testing.T) {
	fake := newFakeMarketplace()
	fake.setFailProduct(2)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClock()
	store := status.NewMemoryStore()
	keeper := newKeeper(t, server.URL, 10, inventory.WithClock(clock), inventory.WithStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- keeper.Run(ctx)
	}()

	clock.BlockUntil(1)
	last, ok := store.Last()
	require.True(t, ok)
	assert.Equal(t, status.OutcomeHTTPError, last.Outcome)
	assert.Equal(t, 1, last.ProductsChecked)
	assert.Len(t, fake.puts(), 1, "only product 1 is processed before the failure")

	fake.setFailProduct(0)
	clock.Advance(time.Minute)
	clock.BlockUntil(1)

	last, _ = store.Last()
	assert.Equal(t, status.OutcomeSuccess, last.Outcome)
	assert.Equal(t, 2, store.Cycles())
	// item 101 was already raised in the first cycle
	assert.Len(t, fake.puts(), 2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("keeper did not stop after cancellation")
	}
}

func TestWrongSecretSurfacesHTTPError(t *testing.T) {
	fake := newFakeMarketplace()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	client := marketplace.NewClient(marketplace.Config{BaseURL: server.URL, VendorID: vendorID},
		signer.New(accessKey, "wrong-secret", nil), logger)
	keeper := inventory.New(client, inventory.Settings{Floor: 10, Interval: time.Minute, CredentialsSet: true}, logger)

	report, err := keeper.RunCycle(context.Background())
	require.Error(t, err)

	var statusErr *marketplace.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "signature mismatch")
	assert.Equal(t, status.OutcomeHTTPError, report.Outcome)
}
