package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

func TestPublishDeliversToMatchingScope(t *testing.T) {
	b := events.NewBroker()
	sub := b.Subscribe(types.GVKPod, "default")
	defer b.Unsubscribe(sub)

	other := b.Subscribe(types.GVKPod, "other")
	defer b.Unsubscribe(other)

	b.Publish(&events.Event{
		Type: types.WatchAdded,
		GVK:  types.GVKPod,
		Key:  types.ResourceKey{Namespace: "default", Name: "p1"},
	})

	select {
	case e := <-sub.Events():
		require.Equal(t, "p1", e.Key.Name)
	default:
		t.Fatal("expected event on matching subscription")
	}

	select {
	case <-other.Events():
		t.Fatal("did not expect event on non-matching namespace subscription")
	default:
	}
}

func TestAllNamespacesSubscriptionMatchesEvery(t *testing.T) {
	b := events.NewBroker()
	sub := b.Subscribe(types.GVKPod, "")
	defer b.Unsubscribe(sub)

	b.Publish(&events.Event{Type: types.WatchAdded, GVK: types.GVKPod, Key: types.ResourceKey{Namespace: "ns-a", Name: "p1"}})
	b.Publish(&events.Event{Type: types.WatchAdded, GVK: types.GVKPod, Key: types.ResourceKey{Namespace: "ns-b", Name: "p2"}})

	require.Len(t, sub.Events(), 2)
}

func TestOverflowSendsSyntheticGone(t *testing.T) {
	b := events.NewBroker()
	sub := b.Subscribe(types.GVKPod, "")
	defer b.Unsubscribe(sub)

	// Fill the subscription's buffer past capacity.
	for i := 0; i < 200; i++ {
		b.Publish(&events.Event{
			Type:            types.WatchAdded,
			GVK:             types.GVKPod,
			Key:             types.ResourceKey{Namespace: "default", Name: "p1"},
			ResourceVersion: "rv",
		})
	}

	require.True(t, sub.Overflowed())

	var sawGone bool
	var lastRV string
	for len(sub.Events()) > 0 {
		e := <-sub.Events()
		if e.Type == types.WatchGone {
			sawGone = true
			require.NotEmpty(t, e.ResourceVersion)
			break
		}
		lastRV = e.ResourceVersion
	}
	require.True(t, sawGone)
	require.NotEmpty(t, lastRV)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := events.NewBroker()
	sub := b.Subscribe(types.GVKPod, "")
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	require.Equal(t, 0, b.SubscriberCount())

	_, ok := <-sub.Events()
	require.False(t, ok)
}
