package services_test

import (
	"context"
	"testing"

	"prepclash/models"
	"prepclash/services"
	"prepclash/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowingReturnsInviteCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "creator")
	env.addUser(t, "u2", "amy")
	env.addUser(t, "u3", "ben")

	require.NoError(t, env.friends.Follow(context.Background(), "u1", "u2"))
	require.NoError(t, env.friends.Follow(context.Background(), "u1", "u3"))

	friends, err := env.friends.Following(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, friends, 2)

	usernames := []string{friends[0].Username, friends[1].Username}
	assert.Contains(t, usernames, "amy")
	assert.Contains(t, usernames, "ben")

	// The reverse direction is empty: following is directed.
	friends, err = env.friends.Following(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestFollowValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "creator")
	env.addUser(t, "u2", "amy")

	assert.ErrorIs(t, env.friends.Follow(context.Background(), "u1", "u1"), services.ErrValidation)
	assert.ErrorIs(t, env.friends.Follow(context.Background(), "u1", "ghost"), store.ErrNotFound)

	require.NoError(t, env.friends.Follow(context.Background(), "u1", "u2"))
	assert.ErrorIs(t, env.friends.Follow(context.Background(), "u1", "u2"), store.ErrConflict)
}

func TestUnfollowRemovesCandidate(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1", "creator")
	env.addUser(t, "u2", "amy")
	require.NoError(t, env.friends.Follow(context.Background(), "u1", "u2"))

	require.NoError(t, env.friends.Unfollow(context.Background(), "u1", "u2"))
	assert.ErrorIs(t, env.friends.Unfollow(context.Background(), "u1", "u2"), store.ErrNotFound)

	friends, err := env.friends.Following(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, friends)

	// A removed friend is no longer a valid invite target.
	svc := services.NewChallengeService(env.store)
	_, err = svc.CreateChallenge(context.Background(), "u1", validConfig("u2"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestNotificationMarkSeenRequiresRecipient(t *testing.T) {
	env := newTestEnv(t)
	notifications := services.NewNotificationService(env.store)

	n := models.Notification{
		SenderID: "u1",
		Message:  "test",
		Type:     models.NotificationChallengeInvite,
	}
	require.NoError(t, n.SetRecipients([]string{"u2"}))
	require.NoError(t, env.store.Notifications.Create(context.Background(), &n))

	assert.ErrorIs(t, notifications.MarkSeen(context.Background(), n.ID, "u3"), services.ErrForbidden)
	require.NoError(t, notifications.MarkSeen(context.Background(), n.ID, "u2"))

	got, err := env.store.Notifications.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, got.Seen)
}
