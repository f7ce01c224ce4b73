package models

type ParticipantRole string // Роль участника закупки

const (
	RequesterRole ParticipantRole = "Requester" // Заказчик, создаёт заявки
	VendorRole    ParticipantRole = "Vendor"    // Поставщик, подаёт предложения
	ApproverRole  ParticipantRole = "Approver"  // Администратор, утверждает и оплачивает
)

// Participant представляет участника из локального справочника профилей.
type Participant struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Role    ParticipantRole `json:"role"`
}

// Account представляет счёт участника в реестре.
type Account struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// LedgerEntry представляет одну проводку по счёту при оплате.
type LedgerEntry struct {
	RequestID int64  `json:"requestId"`
	Address   string `json:"address"`
	Delta     int64  `json:"delta"`
}
