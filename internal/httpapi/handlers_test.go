package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/api"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/bootstrap"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/httpapi"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/memstore"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/metrics"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

const accountID = "11111111-1111-1111-1111-111111111111"

const network = `
banks:
  - code: CHASE
    name: JPMorgan Chase
    role: dual
    tier: 1
    base_latency_ms: 150
    success_probability: 1.0
    per_transaction_fee: "0.30"
    percentage_fee: "2.5"
    single_transaction_limit: "10000.00"
    daily_transaction_limit: "100000.00"
    currencies: [USD]
    supports_24_7: true
    fraud_level: low
merchants:
  - merchant_id: MERCHANT_001
    acquirer: CHASE
    currency: USD
    daily_volume_limit: "50000.00"
accounts:
  - id: 11111111-1111-1111-1111-111111111111
    account_number: CHASE0001
    customer_id: CUST_001
    bank: CHASE
    balance: "1000.00"
    daily_limit: "5000.00"
    currency: USD
`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	doc, err := bootstrap.Parse([]byte(network))
	require.NoError(t, err)
	store := memstore.New()
	require.NoError(t, doc.Apply(context.Background(), store))

	observer := metrics.NewObserver()
	env := sim.NewScripted(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	paymentNetwork := domain.NewPaymentNetwork(store, nil, env, domain.NetworkConfig{}, domain.WithObserver(observer))

	srv := httptest.NewServer(httpapi.NewRouter(paymentNetwork, httpapi.Options{
		CORSOrigins: []string{"https://shop.example"},
		Metrics:     observer.Handler(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func purchaseBody(paymentID, amount string) string {
	return `{"payment_id":"` + paymentID + `","account_id":"` + accountID +
		`","merchant_id":"MERCHANT_001","amount":"` + amount + `","currency":"USD"}`
}

func TestPurchaseFlow(t *testing.T) {
	srv := newServer(t)

	resp := post(t, srv, "/v1/network-transactions", purchaseBody("PAY-1", "100.00"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	purchase := decode[api.PurchaseResponse](t, resp)
	assert.True(t, purchase.Success)
	assert.Equal(t, "00", purchase.ResponseCode)
	require.NotNil(t, purchase.Fees)
	assert.Equal(t, "97.20", purchase.Fees.NetAmount.StringFixed(2))

	resp = get(t, srv, "/v1/network-transactions/PAY-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	txn := decode[api.NetworkTransaction](t, resp)
	assert.Equal(t, "captured", txn.FinalStatus)
	assert.Equal(t, purchase.SettlementID, txn.SettlementID)

	resp = get(t, srv, "/v1/accounts/"+accountID+"/ledger?limit=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ledger := decode[api.LedgerResponse](t, resp)
	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, "900.00", ledger.Entries[0].BalanceAfter.StringFixed(2))

	resp = post(t, srv, "/v1/settlements/"+purchase.SettlementID+"/reversal", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "reversed", decode[api.Settlement](t, resp).Status)

	resp = post(t, srv, "/v1/settlements/"+purchase.SettlementID+"/reversal", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeclineIsNotAnHTTPError(t *testing.T) {
	srv := newServer(t)

	resp := post(t, srv, "/v1/network-transactions", purchaseBody("PAY-2", "5000.00"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	purchase := decode[api.PurchaseResponse](t, resp)
	assert.False(t, purchase.Success)
	assert.Equal(t, "51", purchase.ResponseCode)
}

func TestAuthorizeAndSettle(t *testing.T) {
	srv := newServer(t)

	resp := post(t, srv, "/v1/authorizations",
		`{"payment_id":"PAY-3","account_id":"`+accountID+`","merchant_id":"MERCHANT_001","amount":"25.00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.AuthorizeResponse](t, resp).Success)

	resp = post(t, srv, "/v1/settlements",
		`{"payment_id":"PAY-3","merchant_id":"MERCHANT_001","amount":"25.00","currency":"USD","acquirer_bank_code":"CHASE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settle := decode[api.SettleResponse](t, resp)
	assert.True(t, settle.Success)
	assert.NotEmpty(t, settle.SettlementID)
}

func TestErrorResponses(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name     string
		do       func() *http.Response
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed body",
			do:       func() *http.Response { return post(t, srv, "/v1/network-transactions", "{") },
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_REQUEST",
		},
		{
			name:     "zero amount",
			do:       func() *http.Response { return post(t, srv, "/v1/network-transactions", purchaseBody("PAY-4", "0")) },
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_ARGUMENT",
		},
		{
			name:     "sub-cent amount",
			do:       func() *http.Response { return post(t, srv, "/v1/network-transactions", purchaseBody("PAY-5", "0.001")) },
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_ARGUMENT",
		},
		{
			name: "missing account",
			do: func() *http.Response {
				return post(t, srv, "/v1/authorizations", `{"payment_id":"P","merchant_id":"M","amount":"1"}`)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_ARGUMENT",
		},
		{
			name:     "unknown payment",
			do:       func() *http.Response { return get(t, srv, "/v1/network-transactions/PAY-NOPE") },
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "unknown account",
			do:       func() *http.Response { return get(t, srv, "/v1/accounts/"+uuid.NewString()+"/ledger") },
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "bad account id",
			do:       func() *http.Response { return get(t, srv, "/v1/accounts/nope/ledger") },
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_ARGUMENT",
		},
		{
			name:     "negative offset",
			do:       func() *http.Response { return get(t, srv, "/v1/accounts/"+accountID+"/ledger?offset=-1") },
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_ARGUMENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body := decode[api.ErrorResponse](t, resp)
			assert.Equal(t, tt.wantErr, body.Code)
			assert.NotEmpty(t, body.ID)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	post(t, srv, "/v1/network-transactions", purchaseBody("PAY-5", "10.00"))

	resp := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "paynet_network_transactions_total")
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/network-transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://shop.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
