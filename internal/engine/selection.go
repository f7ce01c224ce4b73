package engine

import (
	"strings"

	"github.com/senyabanana/procurement-service/internal/models"
)

// SelectWinner выбирает победителя из набора предложений: минимальная сумма,
// при равенстве - самое раннее время подачи, затем лексикографически меньший
// адрес поставщика. Порядок полный, поэтому повторный отбор по тому же набору
// всегда даёт то же предложение. Состояние не мутируется.
func SelectWinner(bids []models.Bid) (*models.Bid, error) {
	if len(bids) == 0 {
		return nil, models.ErrEmptyBidSet
	}
	best := bids[0]
	for _, b := range bids[1:] {
		if bidLess(b, best) {
			best = b
		}
	}
	return &best, nil
}

// LowestFor возвращает лучшее предложение конкретного поставщика.
func LowestFor(bids []models.Bid, vendor string) (*models.Bid, error) {
	var own []models.Bid
	for _, b := range bids {
		if strings.EqualFold(b.Vendor, vendor) {
			own = append(own, b)
		}
	}
	return SelectWinner(own)
}

func bidLess(a, b models.Bid) bool {
	if a.Amount != b.Amount {
		return a.Amount < b.Amount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.ToLower(a.Vendor) < strings.ToLower(b.Vendor)
}
