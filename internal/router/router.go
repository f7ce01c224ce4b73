package router

import (
	"net/http"

	"github.com/senyabanana/procurement-service/internal/handlers"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitRoutes(workflowHandler *handlers.WorkflowHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/requests", workflowHandler.GetRequests)
	mux.HandleFunc("POST /api/requests/new", workflowHandler.CreateRequest)
	mux.HandleFunc("GET /api/requests/my", workflowHandler.GetUserRequests)
	mux.HandleFunc("GET /api/requests/ids", workflowHandler.GetRequestIDs)
	mux.HandleFunc("GET /api/requests/{requestId}", workflowHandler.GetRequest)
	mux.HandleFunc("GET /api/requests/{requestId}/status", workflowHandler.GetRequestStatus)
	mux.HandleFunc("POST /api/requests/{requestId}/approve", workflowHandler.ApproveRequest)
	mux.HandleFunc("GET /api/requests/{requestId}/bids", workflowHandler.GetBids)
	mux.HandleFunc("POST /api/requests/{requestId}/bids", workflowHandler.SubmitBid)
	mux.HandleFunc("GET /api/requests/{requestId}/award/preview", workflowHandler.PreviewAward)
	mux.HandleFunc("POST /api/requests/{requestId}/award", workflowHandler.AwardRequest)
	mux.HandleFunc("POST /api/requests/{requestId}/deliver", workflowHandler.MarkDelivered)
	mux.HandleFunc("POST /api/requests/{requestId}/confirm", workflowHandler.ConfirmReceived)
	mux.HandleFunc("POST /api/requests/{requestId}/pay", workflowHandler.PayRequest)
	mux.HandleFunc("POST /api/requests/{requestId}/cancel", workflowHandler.CancelRequest)

	mux.HandleFunc("GET /api/accounts/{address}", workflowHandler.GetAccount)
	mux.HandleFunc("GET /api/accounts/{address}/history", workflowHandler.GetAccountHistory)

	return mux
}
