package models

type TransitionKind string // Вид перехода жизненного цикла заявки

const (
	Approve         TransitionKind = "Approve"         // Утвердить заявку и открыть торги
	SubmitBid       TransitionKind = "SubmitBid"       // Подать предложение
	Award           TransitionKind = "Award"           // Выбрать победителя
	MarkDelivered   TransitionKind = "MarkDelivered"   // Отметить доставку
	ConfirmReceived TransitionKind = "ConfirmReceived" // Подтвердить получение
	Pay             TransitionKind = "Pay"             // Оплатить победителю
	Cancel          TransitionKind = "Cancel"          // Отменить заявку
)

// TransitionParams представляет параметры перехода.
// Amount - сумма предложения или платежа, Vendor - явный выбор победителя при Award.
type TransitionParams struct {
	Amount int64  `json:"amount,omitempty"`
	Vendor string `json:"vendor,omitempty"`
}
