package engine

import (
	"testing"
	"time"

	"github.com/senyabanana/procurement-service/internal/models"

	"github.com/stretchr/testify/require"
)

var (
	admin     = models.Participant{Address: "0xadmin", Name: "Admin", Role: models.ApproverRole}
	requester = models.Participant{Address: "0xreq", Name: "Campus IT", Role: models.RequesterRole}
	vendor    = models.Participant{Address: "0xv1", Name: "Acme", Role: models.VendorRole}
	vendor2   = models.Participant{Address: "0xv2", Name: "Globex", Role: models.VendorRole}
)

func testRequest(status models.RequestStatus) *models.Request {
	return &models.Request{
		ID:              7,
		Requester:       requester.Address,
		Description:     "10 laptops",
		EstimatedAmount: 500,
		Status:          status,
	}
}

func testBids() []models.Bid {
	now := time.Now().UTC()
	return []models.Bid{
		{Vendor: vendor.Address, Amount: 480, CreatedAt: now},
		{Vendor: vendor2.Address, Amount: 450, CreatedAt: now.Add(time.Second)},
	}
}

func TestApproveGuards(t *testing.T) {
	m := NewMachine(true)

	require.NoError(t, m.Validate(testRequest(models.CreatedRequest), nil, models.Approve, admin, models.TransitionParams{}))

	err := m.Validate(testRequest(models.CreatedRequest), nil, models.Approve, vendor, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	err = m.Validate(testRequest(models.TenderingRequest), nil, models.Approve, admin, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestSubmitBidGuards(t *testing.T) {
	m := NewMachine(true)
	params := models.TransitionParams{Amount: 480}

	require.NoError(t, m.Validate(testRequest(models.TenderingRequest), nil, models.SubmitBid, vendor, params))

	// вне фазы торгов предложение отклоняется независимо от его корректности
	for _, status := range []models.RequestStatus{
		models.CreatedRequest, models.OrderedRequest, models.PaidRequest, models.CancelledRequest,
	} {
		err := m.Validate(testRequest(status), nil, models.SubmitBid, vendor, params)
		require.ErrorIs(t, err, models.ErrInvalidTransition, "status %s", status)
	}

	err := m.Validate(testRequest(models.TenderingRequest), nil, models.SubmitBid, requester, params)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	err = m.Validate(testRequest(models.TenderingRequest), nil, models.SubmitBid, vendor, models.TransitionParams{Amount: 0})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestAwardGuards(t *testing.T) {
	m := NewMachine(true)

	err := m.Validate(testRequest(models.TenderingRequest), nil, models.Award, admin, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrEmptyBidSet)

	err = m.Validate(testRequest(models.TenderingRequest), testBids(), models.Award, vendor, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	// явный выбор обязан ссылаться на записанное предложение
	err = m.Validate(testRequest(models.TenderingRequest), testBids(), models.Award, admin,
		models.TransitionParams{Vendor: vendor.Address, Amount: 111})
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	require.NoError(t, m.Validate(testRequest(models.TenderingRequest), testBids(), models.Award, admin,
		models.TransitionParams{Vendor: vendor2.Address, Amount: 450}))
}

func TestMarkDeliveredGuards(t *testing.T) {
	m := NewMachine(true)
	req := testRequest(models.OrderedRequest)
	req.Winner = vendor2.Address
	req.WinningAmount = 450

	require.NoError(t, m.Validate(req, nil, models.MarkDelivered, vendor2, models.TransitionParams{}))

	err := m.Validate(req, nil, models.MarkDelivered, vendor, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)
	require.False(t, req.Delivered)

	err = m.Validate(req, nil, models.MarkDelivered, requester, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestConfirmReceivedGuards(t *testing.T) {
	m := NewMachine(true)
	req := testRequest(models.DeliveredRequest)
	req.Winner = vendor2.Address
	req.WinningAmount = 450
	req.Delivered = true

	require.NoError(t, m.Validate(req, nil, models.ConfirmReceived, requester, models.TransitionParams{}))

	err := m.Validate(req, nil, models.ConfirmReceived, vendor2, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	req.Delivered = false
	err = m.Validate(req, nil, models.ConfirmReceived, requester, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestPayGuards(t *testing.T) {
	m := NewMachine(true)
	req := testRequest(models.ReceivedRequest)
	req.Winner = vendor2.Address
	req.WinningAmount = 450
	req.Delivered = true

	require.NoError(t, m.Validate(req, nil, models.Pay, admin, models.TransitionParams{Amount: 450}))

	err := m.Validate(req, nil, models.Pay, admin, models.TransitionParams{Amount: 449})
	require.ErrorIs(t, err, models.ErrAmountMismatch)
	require.Equal(t, models.ReceivedRequest, req.Status)

	err = m.Validate(req, nil, models.Pay, requester, models.TransitionParams{Amount: 450})
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestPayRequiresReceipt(t *testing.T) {
	req := testRequest(models.OrderedRequest)
	req.Winner = vendor2.Address
	req.WinningAmount = 450
	params := models.TransitionParams{Amount: 450}

	err := NewMachine(true).Validate(req, nil, models.Pay, admin, params)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	// наблюдавшееся историческое поведение: оплата сразу после фиксации победителя
	require.NoError(t, NewMachine(false).Validate(req, nil, models.Pay, admin, params))
}

func TestCancelGuards(t *testing.T) {
	m := NewMachine(true)

	require.NoError(t, m.Validate(testRequest(models.TenderingRequest), nil, models.Cancel, requester, models.TransitionParams{}))
	require.NoError(t, m.Validate(testRequest(models.OrderedRequest), nil, models.Cancel, admin, models.TransitionParams{}))

	// заказчик не может отменить чужую заявку и свою после выбора победителя
	err := m.Validate(testRequest(models.OrderedRequest), nil, models.Cancel, requester, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	err = m.Validate(testRequest(models.TenderingRequest), nil, models.Cancel, vendor, models.TransitionParams{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	for _, status := range []models.RequestStatus{models.PaidRequest, models.CancelledRequest} {
		err = m.Validate(testRequest(status), nil, models.Cancel, admin, models.TransitionParams{})
		require.ErrorIs(t, err, models.ErrInvalidTransition)
	}
}

func TestNextStatusMovesForward(t *testing.T) {
	forward := []models.TransitionKind{
		models.Approve, models.Award, models.MarkDelivered, models.ConfirmReceived, models.Pay,
	}
	prev := models.CreatedRequest.Rank()
	for _, kind := range forward {
		next := NextStatus(kind)
		require.Greater(t, next.Rank(), prev, "transition %s", kind)
		prev = next.Rank()
	}
	require.Equal(t, models.RequestStatus(""), NextStatus(models.SubmitBid))
	require.Equal(t, models.CancelledRequest, NextStatus(models.Cancel))
}
