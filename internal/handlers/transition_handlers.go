package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/senyabanana/procurement-service/internal/models"
	"github.com/senyabanana/procurement-service/internal/utils"
)

// proposeTransition - общий обработчик переходов жизненного цикла.
func (h *WorkflowHandler) proposeTransition(w http.ResponseWriter, r *http.Request, endpoint string, kind models.TransitionKind, params models.TransitionParams) {
	defer observe(r, endpoint).ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	id, err := utils.ParseRequestID(r.PathValue("requestId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := r.URL.Query().Get("actor")
	if actor == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "missing required query parameter: actor")
		return
	}

	updated, err := h.Service.Propose(ctx, id, kind, actor, params)
	if err != nil {
		h.respondError(w, r, endpoint, err)
		return
	}
	h.respondJSON(w, r, endpoint, http.StatusOK, updated)
}

// decodeParams читает параметры перехода из тела запроса.
func decodeParams(w http.ResponseWriter, r *http.Request) (models.TransitionParams, bool) {
	var params models.TransitionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return params, false
	}
	return params, true
}

// ApproveRequest обрабатывает запросы на утверждение заявки и открытие торгов.
func (h *WorkflowHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.proposeTransition(w, r, "/api/requests/{requestId}/approve", models.Approve, models.TransitionParams{})
}

// SubmitBid обрабатывает запросы на подачу предложения.
func (h *WorkflowHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	params, ok := decodeParams(w, r)
	if !ok {
		return
	}
	h.proposeTransition(w, r, "/api/requests/{requestId}/bids", models.SubmitBid, params)
}

// PreviewAward обрабатывает запросы предпросмотра победителя без изменения состояния.
func (h *WorkflowHandler) PreviewAward(w http.ResponseWriter, r *http.Request) {
	defer observe(r, "/api/requests/{requestId}/award/preview").ObserveDuration()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	id, err := utils.ParseRequestID(r.PathValue("requestId"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	winner, err := h.Service.PreviewAward(ctx, id)
	if err != nil {
		h.respondError(w, r, "/api/requests/{requestId}/award/preview", err)
		return
	}
	h.respondJSON(w, r, "/api/requests/{requestId}/award/preview", http.StatusOK, winner)
}

// AwardRequest обрабатывает запросы на выбор победителя.
// Тело может содержать явный выбор; пустое тело включает политику отбора.
func (h *WorkflowHandler) AwardRequest(w http.ResponseWriter, r *http.Request) {
	var params models.TransitionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.proposeTransition(w, r, "/api/requests/{requestId}/award", models.Award, params)
}

// MarkDelivered обрабатывает запросы на отметку доставки победителем.
func (h *WorkflowHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.proposeTransition(w, r, "/api/requests/{requestId}/deliver", models.MarkDelivered, models.TransitionParams{})
}

// ConfirmReceived обрабатывает запросы на подтверждение получения заказчиком.
func (h *WorkflowHandler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	h.proposeTransition(w, r, "/api/requests/{requestId}/confirm", models.ConfirmReceived, models.TransitionParams{})
}

// PayRequest обрабатывает запросы на оплату победителю.
// Сумма в теле обязана совпадать с зафиксированной суммой победителя.
func (h *WorkflowHandler) PayRequest(w http.ResponseWriter, r *http.Request) {
	params, ok := decodeParams(w, r)
	if !ok {
		return
	}
	h.proposeTransition(w, r, "/api/requests/{requestId}/pay", models.Pay, params)
}

// CancelRequest обрабатывает запросы на отмену заявки.
func (h *WorkflowHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.proposeTransition(w, r, "/api/requests/{requestId}/cancel", models.Cancel, models.TransitionParams{})
}
