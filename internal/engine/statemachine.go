package engine

import (
	"fmt"
	"strings"

	"github.com/senyabanana/procurement-service/internal/models"
)

// Machine проверяет переходы жизненного цикла заявки по таблице охран.
// Проверка чистая: работает на снимке заявки и предложений, ничего не мутирует.
type Machine struct {
	payRequiresReceipt bool
}

// NewMachine создаёт новый экземпляр Machine.
// payRequiresReceipt требует статус Received перед оплатой; при false оплата
// разрешена с момента фиксации победителя.
func NewMachine(payRequiresReceipt bool) *Machine {
	return &Machine{payRequiresReceipt: payRequiresReceipt}
}

// allowedFrom задаёт, из каких статусов разрешён каждый переход.
var allowedFrom = map[models.TransitionKind][]models.RequestStatus{
	models.Approve:         {models.CreatedRequest},
	models.SubmitBid:       {models.TenderingRequest},
	models.Award:           {models.TenderingRequest},
	models.MarkDelivered:   {models.OrderedRequest},
	models.ConfirmReceived: {models.DeliveredRequest},
	models.Pay:             {models.ReceivedRequest},
}

// NextStatus возвращает статус, в который переводит переход.
// SubmitBid статус не меняет и возвращает пустую строку.
func NextStatus(kind models.TransitionKind) models.RequestStatus {
	switch kind {
	case models.Approve:
		return models.TenderingRequest
	case models.Award:
		return models.OrderedRequest
	case models.MarkDelivered:
		return models.DeliveredRequest
	case models.ConfirmReceived:
		return models.ReceivedRequest
	case models.Pay:
		return models.PaidRequest
	case models.Cancel:
		return models.CancelledRequest
	}
	return ""
}

// Validate проверяет переход по текущему снимку заявки и её предложений.
// Порядок проверок: статус-источник, затем актор, затем предусловия параметров.
func (m *Machine) Validate(req *models.Request, bids []models.Bid, kind models.TransitionKind, actor models.Participant, params models.TransitionParams) error {
	if kind == models.Cancel {
		// отмена допустима из любого незавершённого статуса
		if req.Status.Terminal() {
			return fmt.Errorf("%w: %s attempted while request %d is %s",
				models.ErrInvalidTransition, kind, req.ID, req.Status)
		}
	} else {
		sources, ok := allowedFrom[kind]
		if !ok {
			return fmt.Errorf("%w: unknown transition %q", models.ErrInvalidTransition, kind)
		}
		if kind == models.Pay && !m.payRequiresReceipt {
			sources = []models.RequestStatus{models.OrderedRequest, models.DeliveredRequest, models.ReceivedRequest}
		}
		if !containsStatus(sources, req.Status) {
			return fmt.Errorf("%w: %s attempted while request %d is %s",
				models.ErrInvalidTransition, kind, req.ID, req.Status)
		}
	}

	switch kind {
	case models.Approve:
		if actor.Role != models.ApproverRole {
			return fmt.Errorf("%w: %s requires the Approver role", models.ErrUnauthorized, kind)
		}

	case models.SubmitBid:
		if actor.Role != models.VendorRole {
			return fmt.Errorf("%w: only vendors may submit bids", models.ErrUnauthorized)
		}
		if params.Amount <= 0 {
			return fmt.Errorf("%w: bid amount must be positive", models.ErrInvalidTransition)
		}

	case models.Award:
		if actor.Role != models.ApproverRole {
			return fmt.Errorf("%w: %s requires the Approver role", models.ErrUnauthorized, kind)
		}
		if len(bids) == 0 {
			return fmt.Errorf("%w: request %d", models.ErrEmptyBidSet, req.ID)
		}
		if params.Vendor != "" && !bidRecorded(bids, params.Vendor, params.Amount) {
			return fmt.Errorf("%w: chosen bid %s/%d is not recorded",
				models.ErrInvalidTransition, params.Vendor, params.Amount)
		}

	case models.MarkDelivered:
		if req.Winner == "" {
			return fmt.Errorf("%w: no winner recorded for request %d", models.ErrInvalidTransition, req.ID)
		}
		if actor.Role != models.VendorRole || !strings.EqualFold(actor.Address, req.Winner) {
			return fmt.Errorf("%w: only the winning vendor may mark delivery", models.ErrUnauthorized)
		}

	case models.ConfirmReceived:
		if !strings.EqualFold(actor.Address, req.Requester) {
			return fmt.Errorf("%w: only the requester may confirm receipt", models.ErrUnauthorized)
		}
		if !req.Delivered {
			return fmt.Errorf("%w: delivery has not been marked for request %d",
				models.ErrInvalidTransition, req.ID)
		}

	case models.Pay:
		if actor.Role != models.ApproverRole {
			return fmt.Errorf("%w: %s requires the Approver role", models.ErrUnauthorized, kind)
		}
		if req.WinningAmount <= 0 {
			return fmt.Errorf("%w: no winning bid stored for request %d",
				models.ErrInvalidTransition, req.ID)
		}
		if params.Amount != req.WinningAmount {
			return fmt.Errorf("%w: supplied %d, stored %d",
				models.ErrAmountMismatch, params.Amount, req.WinningAmount)
		}

	case models.Cancel:
		switch {
		case actor.Role == models.ApproverRole:
			// администратор может отменить любую незавершённую заявку
		case strings.EqualFold(actor.Address, req.Requester):
			if req.Status != models.CreatedRequest && req.Status != models.TenderingRequest {
				return fmt.Errorf("%w: requester may cancel only before award", models.ErrUnauthorized)
			}
		default:
			return fmt.Errorf("%w: %s is not allowed to cancel request %d",
				models.ErrUnauthorized, actor.Address, req.ID)
		}
	}
	return nil
}

// containsStatus - функция для проверки допустимости исходного статуса.
func containsStatus(statuses []models.RequestStatus, status models.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// bidRecorded проверяет, что явный выбор победителя ссылается на записанное предложение.
func bidRecorded(bids []models.Bid, vendor string, amount int64) bool {
	for _, b := range bids {
		if strings.EqualFold(b.Vendor, vendor) && b.Amount == amount {
			return true
		}
	}
	return false
}
