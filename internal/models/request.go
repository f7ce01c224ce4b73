package models

import "time"

type RequestStatus string // Статус заявки на закупку

const (
	CreatedRequest   RequestStatus = "Created"   // Заявка создана
	TenderingRequest RequestStatus = "Tendering" // Открыт приём предложений
	OrderedRequest   RequestStatus = "Ordered"   // Победитель выбран, заказ размещён
	DeliveredRequest RequestStatus = "Delivered" // Поставщик отметил доставку
	ReceivedRequest  RequestStatus = "Received"  // Заказчик подтвердил получение
	PaidRequest      RequestStatus = "Paid"      // Оплата проведена
	CancelledRequest RequestStatus = "Cancelled" // Заявка отменена
)

// statusRank задаёт прямой порядок статусов жизненного цикла.
var statusRank = map[RequestStatus]int{
	CreatedRequest:   0,
	TenderingRequest: 1,
	OrderedRequest:   2,
	DeliveredRequest: 3,
	ReceivedRequest:  4,
	PaidRequest:      5,
}

// Rank возвращает позицию статуса в прямом порядке (-1 для Cancelled и неизвестных).
func (s RequestStatus) Rank() int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return -1
}

// Terminal сообщает, является ли статус конечным.
func (s RequestStatus) Terminal() bool {
	return s == PaidRequest || s == CancelledRequest
}

// Request представляет модель заявки на закупку.
type Request struct {
	ID              int64         `json:"id"`
	Requester       string        `json:"requester"`
	Description     string        `json:"description"`
	EstimatedAmount int64         `json:"estimatedAmount"`
	Status          RequestStatus `json:"status"`
	Winner          string        `json:"winner,omitempty"`
	WinningAmount   int64         `json:"winningAmount"`
	Delivered       bool          `json:"delivered"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// RequestDraft представляет структуру запроса для создания заявки.
type RequestDraft struct {
	Description     string `json:"description"`
	EstimatedAmount int64  `json:"estimatedAmount"`
}

// RequestView - заявка с разрешёнными именами участников для отображения.
type RequestView struct {
	Request
	RequesterName string `json:"requesterName"`
	WinnerName    string `json:"winnerName,omitempty"`
}
