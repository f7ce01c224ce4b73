package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/senyabanana/procurement-service/internal/directory"
	"github.com/senyabanana/procurement-service/internal/engine"
	"github.com/senyabanana/procurement-service/internal/models"
	"github.com/senyabanana/procurement-service/internal/repository"
	"github.com/senyabanana/procurement-service/internal/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "procurement_transitions_total",
	Help: "Total proposed workflow transitions",
}, []string{"kind", "outcome"})

// WorkflowService - оркестратор закупки: получает снимок заявки из реестра,
// проверяет переход по таблице охран, при необходимости выбирает победителя и
// отправляет переход в реестр. Состояние между вызовами не хранится.
type WorkflowService struct {
	Ledger    repository.LedgerClient
	Directory *directory.Directory
	machine   *engine.Machine
}

// NewWorkflowService создаёт новый экземпляр WorkflowService.
func NewWorkflowService(ledger repository.LedgerClient, dir *directory.Directory, machine *engine.Machine) *WorkflowService {
	return &WorkflowService{Ledger: ledger, Directory: dir, machine: machine}
}

// CreateRequest создаёт новую заявку. Доступно только заказчику.
func (s *WorkflowService) CreateRequest(ctx context.Context, actorAddress string, draft models.RequestDraft) (*models.Request, error) {
	actor, ok := s.Directory.Resolve(actorAddress)
	if !ok {
		return nil, fmt.Errorf("%w: unknown actor %s", models.ErrUnauthorized, directory.ShortAddress(actorAddress))
	}
	if actor.Role != models.RequesterRole {
		return nil, fmt.Errorf("%w: only requesters may create requests", models.ErrUnauthorized)
	}
	if draft.Description == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required field: description")
	}
	if draft.EstimatedAmount <= 0 {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "estimatedAmount must be positive")
	}
	return s.Ledger.CreateRequest(ctx, actor.Address, draft)
}

// Propose проверяет и отправляет переход жизненного цикла заявки.
// Каждый вызов - чистая функция от снимка реестра: получить запись, проверить
// охрану, для Award без явного выбора вычислить победителя, отправить переход.
func (s *WorkflowService) Propose(ctx context.Context, requestID int64, kind models.TransitionKind, actorAddress string, params models.TransitionParams) (*models.Request, error) {
	updated, err := s.propose(ctx, requestID, kind, actorAddress, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	transitionsTotal.WithLabelValues(string(kind), outcome).Inc()
	return updated, err
}

func (s *WorkflowService) propose(ctx context.Context, requestID int64, kind models.TransitionKind, actorAddress string, params models.TransitionParams) (*models.Request, error) {
	actor, ok := s.Directory.Resolve(actorAddress)
	if !ok {
		return nil, fmt.Errorf("%w: unknown actor %s", models.ErrUnauthorized, directory.ShortAddress(actorAddress))
	}

	req, err := s.Ledger.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var bids []models.Bid
	if kind == models.SubmitBid || kind == models.Award {
		bids, err = s.Ledger.GetBids(ctx, requestID)
		if err != nil {
			return nil, err
		}
	}

	if kind == models.Award && req.Status == models.TenderingRequest {
		params, err = s.resolveAwardChoice(bids, params)
		if err != nil {
			return nil, err
		}
	}

	if err := s.machine.Validate(req, bids, kind, actor, params); err != nil {
		return nil, err
	}

	return s.Ledger.SubmitTransition(ctx, requestID, kind, actor, params, req.Status)
}

// resolveAwardChoice доводит параметры Award до конкретного предложения.
// Без явного выбора работает политика отбора; явный поставщик без суммы
// получает своё лучшее предложение.
func (s *WorkflowService) resolveAwardChoice(bids []models.Bid, params models.TransitionParams) (models.TransitionParams, error) {
	if params.Vendor == "" {
		winner, err := engine.SelectWinner(bids)
		if err != nil {
			return params, err
		}
		params.Vendor = winner.Vendor
		params.Amount = winner.Amount
		return params, nil
	}
	if params.Amount == 0 {
		best, err := engine.LowestFor(bids, params.Vendor)
		if err != nil {
			return params, fmt.Errorf("%w: no bid recorded for vendor %s", models.ErrInvalidTransition, params.Vendor)
		}
		params.Amount = best.Amount
	}
	return params, nil
}

// PreviewAward вычисляет, какое предложение выиграло бы сейчас, не меняя состояние.
func (s *WorkflowService) PreviewAward(ctx context.Context, requestID int64) (*models.Bid, error) {
	if _, err := s.Ledger.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	bids, err := s.Ledger.GetBids(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return engine.SelectWinner(bids)
}

// GetRequest возвращает заявку с разрешёнными именами участников.
func (s *WorkflowService) GetRequest(ctx context.Context, requestID int64) (*models.RequestView, error) {
	req, err := s.Ledger.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	view := models.RequestView{
		Request:       *req,
		RequesterName: s.Directory.DisplayName(req.Requester),
	}
	if req.Winner != "" {
		view.WinnerName = s.Directory.DisplayName(req.Winner)
	}
	return &view, nil
}

// GetRequestStatus возвращает статус заявки.
func (s *WorkflowService) GetRequestStatus(ctx context.Context, requestID int64) (models.RequestStatus, error) {
	req, err := s.Ledger.GetRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

// FetchRequests возвращает список заявок с фильтром по статусу.
func (s *WorkflowService) FetchRequests(ctx context.Context, limitStr, offsetStr string, statuses []string) ([]models.Request, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	allowedStatuses := map[models.RequestStatus]bool{
		models.CreatedRequest:   true,
		models.TenderingRequest: true,
		models.OrderedRequest:   true,
		models.DeliveredRequest: true,
		models.ReceivedRequest:  true,
		models.PaidRequest:      true,
		models.CancelledRequest: true,
	}
	for _, status := range statuses {
		if !allowedStatuses[models.RequestStatus(status)] {
			return nil, models.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unsupported status: %s", status))
		}
	}
	return s.Ledger.ListRequests(ctx, limit, offset, statuses, "")
}

// GetUserRequests возвращает заявки, созданные участником.
func (s *WorkflowService) GetUserRequests(ctx context.Context, actorAddress, limitStr, offsetStr string) ([]models.Request, error) {
	actor, ok := s.Directory.Resolve(actorAddress)
	if !ok {
		return nil, fmt.Errorf("%w: unknown actor %s", models.ErrUnauthorized, directory.ShortAddress(actorAddress))
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Ledger.ListRequests(ctx, limit, offset, nil, actor.Address)
}

// GetBids возвращает предложения по заявке с именами поставщиков.
func (s *WorkflowService) GetBids(ctx context.Context, requestID int64) ([]models.BidView, error) {
	if _, err := s.Ledger.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	bids, err := s.Ledger.GetBids(ctx, requestID)
	if err != nil {
		return nil, err
	}
	views := make([]models.BidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, models.BidView{Bid: b, VendorName: s.Directory.DisplayName(b.Vendor)})
	}
	return views, nil
}

// GetRequestIDs возвращает идентификаторы всех заявок.
func (s *WorkflowService) GetRequestIDs(ctx context.Context) ([]int64, error) {
	return s.Ledger.GetRequestIDs(ctx)
}

// GetAccount возвращает счёт участника.
func (s *WorkflowService) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	return s.Ledger.GetAccount(ctx, address)
}

// GetAccountHistory возвращает проводки по счёту участника.
func (s *WorkflowService) GetAccountHistory(ctx context.Context, address string) ([]models.LedgerEntry, error) {
	return s.Ledger.GetLedgerEntries(ctx, address)
}
