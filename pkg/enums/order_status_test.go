package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusCancellation(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusConfirmed: true,
		OrderStatusReady:     false,
		OrderStatusDelivered: false,
		OrderStatusCancelled: false,
	}
	for status, want := range cancellable {
		require.Equal(t, want, status.CanCancel(), status)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	require.True(t, OrderStatusDelivered.IsTerminal())
	require.True(t, OrderStatusCancelled.IsTerminal())
	require.False(t, OrderStatusPending.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("ready")
	require.NoError(t, err)
	require.Equal(t, OrderStatusReady, status)

	_, err = ParseOrderStatus("shipped")
	require.Error(t, err)
	require.False(t, OrderStatus("shipped").IsValid())
}

func TestOrderStatusesReturnsCopy(t *testing.T) {
	statuses := OrderStatuses()
	require.Len(t, statuses, 5)
	statuses[0] = "mutated"
	require.Equal(t, OrderStatusPending, OrderStatuses()[0])
}

func TestParseToastKindAndGeolocation(t *testing.T) {
	kind, err := ParseToastKind("warning")
	require.NoError(t, err)
	require.Equal(t, ToastKindWarning, kind)
	_, err = ParseToastKind("fatal")
	require.Error(t, err)

	geo, err := ParseGeolocationErrorKind("timeout")
	require.NoError(t, err)
	require.Equal(t, GeolocationTimeout, geo)
	require.False(t, GeolocationErrorKind("unknown").IsValid())
}
