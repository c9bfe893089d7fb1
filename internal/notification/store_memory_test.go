package notification

import (
	"context"
	"testing"

	id "hopecycle/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_ReadTracking(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	alice := id.NewUserID()
	bob := id.NewUserID()

	require.NoError(t, pub.Emit(ctx, InterestAccepted(alice, "Chairs")))
	require.NoError(t, pub.Emit(ctx, InterestAccepted(alice, "Tables")))
	require.NoError(t, pub.Emit(ctx, NewMessage(bob, "Alice")))

	t.Run("unread counts are per user", func(t *testing.T) {
		n, err := store.UnreadCount(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = store.UnreadCount(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("mark read ignores other users' notifications", func(t *testing.T) {
		bobNotes, err := store.ListByUser(ctx, bob, 10)
		require.NoError(t, err)
		require.Len(t, bobNotes, 1)

		// Alice cannot mark Bob's notification read.
		require.NoError(t, store.MarkRead(ctx, alice, []id.NotificationID{bobNotes[0].ID}))
		n, err := store.UnreadCount(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("mark all read clears one user only", func(t *testing.T) {
		require.NoError(t, store.MarkAllRead(ctx, alice))

		n, err := store.UnreadCount(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		n, err = store.UnreadCount(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
