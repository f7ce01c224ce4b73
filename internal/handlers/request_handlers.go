package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/senyabanana/procurement-service/internal/models"
	"github.com/senyabanana/procurement-service/internal/services"
	"github.com/senyabanana/procurement-service/internal/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "procurement_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// WorkflowHandler - структура для обработки HTTP-запросов движка закупок.
type WorkflowHandler struct {
	Service *services.WorkflowService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewWorkflowHandler создаёт новый экземпляр WorkflowHandler.
func NewWorkflowHandler(service *services.WorkflowService, logger *log.Logger, timeout time.Duration) *WorkflowHandler {
	return &WorkflowHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// observe запускает таймер длительности обработки запроса.
func observe(r *http.Request, endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(httpLatency.WithLabelValues(r.Method, endpoint))
}

// respondJSON отправляет ответ и фиксирует метрику запроса.
func (h *WorkflowHandler) respondJSON(w http.ResponseWriter, r *http.Request, endpoint string, code int, payload interface{}) {
	httpReqTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(code)).Inc()
	if err := utils.SendJSON(w, code, payload); err != nil {
		h.Logger.Println(err)
	}
}

// respondError сопоставляет ошибку с HTTP-кодом и отправляет её.
func (h *WorkflowHandler) respondError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.Logger.Println(err)
	resp := models.FromError(err)
	httpReqTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	utils.SendErrorResponse(w, resp.StatusCode, resp.Message)
}

// CreateRequest обрабатывает запросы для создания заявки.
func (h *WorkflowHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}
	defer observe(r, "/api/requests/new").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor := r.URL.Query().Get("actor")
	var draft models.RequestDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Service.CreateRequest(ctx, actor, draft)
	if err != nil {
		h.respondError(w, r, "/api/requests/new", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/new", http.StatusCreated, request)
}

// GetRequests обрабатывает запросы для получения списка заявок.
func (h *WorkflowHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}
	defer observe(r, "/api/requests").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	statuses := r.URL.Query()["status"]

	requests, err := h.Service.FetchRequests(ctx, limitStr, offsetStr, statuses)
	if err != nil {
		h.respondError(w, r, "/api/requests", err)
		return
	}
	h.respondJSON(w, r, "/api/requests", http.StatusOK, requests)
}

// GetUserRequests обрабатывает запросы для получения заявок участника.
func (h *WorkflowHandler) GetUserRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}
	defer observe(r, "/api/requests/my").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor := r.URL.Query().Get("actor")
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	requests, err := h.Service.GetUserRequests(ctx, actor, limitStr, offsetStr)
	if err != nil {
		h.respondError(w, r, "/api/requests/my", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/my", http.StatusOK, requests)
}

// GetRequest обрабатывает запросы для получения заявки с именами участников.
func (h *WorkflowHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/requests/{requestId}").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	id, err := utils.ParseRequestID(r.PathValue("requestId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.Service.GetRequest(ctx, id)
	if err != nil {
		h.respondError(w, r, "/api/requests/{requestId}", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/{requestId}", http.StatusOK, view)
}

// GetRequestStatus обрабатывает запросы для получения статуса заявки.
func (h *WorkflowHandler) GetRequestStatus(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/requests/{requestId}/status").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	id, err := utils.ParseRequestID(r.PathValue("requestId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.Service.GetRequestStatus(ctx, id)
	if err != nil {
		h.respondError(w, r, "/api/requests/{requestId}/status", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/{requestId}/status", http.StatusOK, status)
}

// GetBids обрабатывает запросы для получения предложений по заявке.
func (h *WorkflowHandler) GetBids(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/requests/{requestId}/bids").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	id, err := utils.ParseRequestID(r.PathValue("requestId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bids, err := h.Service.GetBids(ctx, id)
	if err != nil {
		h.respondError(w, r, "/api/requests/{requestId}/bids", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/{requestId}/bids", http.StatusOK, bids)
}

// GetRequestIDs обрабатывает запросы для получения идентификаторов всех заявок.
func (h *WorkflowHandler) GetRequestIDs(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/requests/ids").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ids, err := h.Service.GetRequestIDs(ctx)
	if err != nil {
		h.respondError(w, r, "/api/requests/ids", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/ids", http.StatusOK, ids)
}

// GetAccount обрабатывает запросы для получения счёта участника.
func (h *WorkflowHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/accounts/{address}").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	address := r.PathValue("address")
	if address == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "missing address")
		return
	}

	account, err := h.Service.GetAccount(ctx, address)
	if err != nil {
		h.respondError(w, r, "/api/accounts/{address}", err)
		return
	}
	h.respondJSON(w, r, "/api/accounts/{address}", http.StatusOK, account)
}

// GetAccountHistory обрабатывает запросы для получения проводок по счёту участника.
func (h *WorkflowHandler) GetAccountHistory(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/accounts/{address}/history").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	address := r.PathValue("address")
	if address == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "missing address")
		return
	}

	entries, err := h.Service.GetAccountHistory(ctx, address)
	if err != nil {
		h.respondError(w, r, "/api/accounts/{address}/history", err)
		return
	}
	h.respondJSON(w, r, "/api/accounts/{address}/history", http.StatusOK, entries)
}
