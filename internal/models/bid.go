package models

import "time"

// Bid представляет модель предложения поставщика по заявке.
// Предложения только добавляются: повторное предложение того же поставщика
// не затирает предыдущее, отбор видит всю историю.
type Bid struct {
	ID        string    `json:"id"`
	RequestID int64     `json:"requestId"`
	Vendor    string    `json:"vendor"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// BidView - предложение с разрешённым именем поставщика для отображения.
type BidView struct {
	Bid
	VendorName string `json:"vendorName"`
}
