package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusRankOrder(t *testing.T) {
	ordered := []RequestStatus{
		CreatedRequest, TenderingRequest, OrderedRequest,
		DeliveredRequest, ReceivedRequest, PaidRequest,
	}
	for i := 1; i < len(ordered); i++ {
		require.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
	require.Equal(t, -1, CancelledRequest.Rank())
	require.Equal(t, -1, RequestStatus("Unknown").Rank())
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, PaidRequest.Terminal())
	require.True(t, CancelledRequest.Terminal())

	for _, s := range []RequestStatus{
		CreatedRequest, TenderingRequest, OrderedRequest, DeliveredRequest, ReceivedRequest,
	} {
		require.False(t, s.Terminal())
	}
}
