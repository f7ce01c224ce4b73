package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/procurement-service/internal/directory"
	"github.com/senyabanana/procurement-service/internal/engine"
	"github.com/senyabanana/procurement-service/internal/handlers"
	"github.com/senyabanana/procurement-service/internal/models"
	"github.com/senyabanana/procurement-service/internal/router"
	"github.com/senyabanana/procurement-service/internal/services"

	"github.com/stretchr/testify/require"
)

var (
	admin   = models.Participant{Address: "0xadmin", Name: "Head Office", Role: models.ApproverRole}
	vendor1 = models.Participant{Address: "0xv1", Name: "Acme", Role: models.VendorRole}
	vendor2 = models.Participant{Address: "0xv2", Name: "Globex", Role: models.VendorRole}
)

// stubLedger отдаёт одну заявку в торгах с двумя предложениями.
type stubLedger struct {
	request models.Request
	bids    []models.Bid
}

func newStubLedger() *stubLedger {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &stubLedger{
		request: models.Request{
			ID:              1,
			Requester:       "0xreq",
			Description:     "10 laptops",
			EstimatedAmount: 500,
			Status:          models.TenderingRequest,
			CreatedAt:       base,
		},
		bids: []models.Bid{
			{ID: "b1", RequestID: 1, Vendor: vendor1.Address, Amount: 480, CreatedAt: base.Add(time.Second)},
			{ID: "b2", RequestID: 1, Vendor: vendor2.Address, Amount: 450, CreatedAt: base.Add(2 * time.Second)},
		},
	}
}

func (s *stubLedger) CreateRequest(_ context.Context, _ string, _ models.RequestDraft) (*models.Request, error) {
	copied := s.request
	return &copied, nil
}

func (s *stubLedger) GetRequest(_ context.Context, id int64) (*models.Request, error) {
	if id != s.request.ID {
		return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}
	copied := s.request
	return &copied, nil
}

func (s *stubLedger) GetBids(_ context.Context, _ int64) ([]models.Bid, error) {
	return append([]models.Bid(nil), s.bids...), nil
}

func (s *stubLedger) GetRequestIDs(_ context.Context) ([]int64, error) {
	return []int64{s.request.ID}, nil
}

func (s *stubLedger) ListRequests(_ context.Context, _, _ int, _ []string, _ string) ([]models.Request, error) {
	return []models.Request{s.request}, nil
}

func (s *stubLedger) GetAccount(_ context.Context, address string) (*models.Account, error) {
	return &models.Account{Address: strings.ToLower(address)}, nil
}

func (s *stubLedger) GetLedgerEntries(_ context.Context, address string) ([]models.LedgerEntry, error) {
	return []models.LedgerEntry{{RequestID: s.request.ID, Address: strings.ToLower(address), Delta: -450}}, nil
}

func (s *stubLedger) SubmitTransition(_ context.Context, id int64, kind models.TransitionKind, _ models.Participant, params models.TransitionParams, expected models.RequestStatus) (*models.Request, error) {
	if s.request.Status != expected {
		return nil, fmt.Errorf("%w: request %d is %s, expected %s", models.ErrConflict, id, s.request.Status, expected)
	}
	if kind == models.Award {
		s.request.Winner = strings.ToLower(params.Vendor)
		s.request.WinningAmount = params.Amount
	}
	s.request.Status = engine.NextStatus(kind)
	copied := s.request
	return &copied, nil
}

func newTestRouter(ledger *stubLedger) http.Handler {
	dir := directory.New([]models.Participant{admin, vendor1, vendor2})
	svc := services.NewWorkflowService(ledger, dir, engine.NewMachine(true))
	handler := handlers.NewWorkflowHandler(svc, log.New(io.Discard, "", 0), time.Second)
	return router.InitRoutes(handler)
}

// chunkedBody скрывает длину тела, как это делает chunked-запрос.
type chunkedBody struct {
	io.Reader
}

func TestAwardWithChunkedEmptyBody(t *testing.T) {
	ledger := newStubLedger()
	routes := newTestRouter(ledger)

	req := httptest.NewRequest(http.MethodPost,
		"/api/requests/1/award?actor=0xadmin", chunkedBody{strings.NewReader("")})
	require.Equal(t, int64(-1), req.ContentLength)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, models.OrderedRequest, updated.Status)
	require.Equal(t, vendor2.Address, updated.Winner)
	require.Equal(t, int64(450), updated.WinningAmount)
}

func TestAwardWithExplicitBody(t *testing.T) {
	ledger := newStubLedger()
	routes := newTestRouter(ledger)

	req := httptest.NewRequest(http.MethodPost,
		"/api/requests/1/award?actor=0xadmin", strings.NewReader(`{"vendor":"0xv1"}`))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, vendor1.Address, updated.Winner)
	require.Equal(t, int64(480), updated.WinningAmount)
}

func TestAwardWithMalformedBody(t *testing.T) {
	routes := newTestRouter(newStubLedger())

	req := httptest.NewRequest(http.MethodPost,
		"/api/requests/1/award?actor=0xadmin", strings.NewReader(`{"vendor":`))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRequestIDsRoute(t *testing.T) {
	routes := newTestRouter(newStubLedger())

	req := httptest.NewRequest(http.MethodGet, "/api/requests/ids", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ids []int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	require.Equal(t, []int64{1}, ids)
}

func TestGetAccountHistoryRoute(t *testing.T) {
	routes := newTestRouter(newStubLedger())

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/0xadmin/history", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.LedgerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Equal(t, []models.LedgerEntry{{RequestID: 1, Address: "0xadmin", Delta: -450}}, entries)
}
