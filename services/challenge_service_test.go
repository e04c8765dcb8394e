package services_test

import (
	"context"
	"testing"
	"time"

	"prepclash/models"
	"prepclash/services"
	"prepclash/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *store.Store
	svc     *services.ChallengeService
	friends *services.FriendService
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewMemoryStore()
	env := &testEnv{
		store:   s,
		svc:     services.NewChallengeService(s),
		friends: services.NewFriendService(s),
		now:     testStart,
	}
	env.svc.Now = func() time.Time { return env.now }
	env.friends.Now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) addUser(t *testing.T, id, username string) {
	t.Helper()
	require.NoError(t, e.store.Users.Create(context.Background(), &models.User{
		ID:        id,
		Username:  username,
		CreatedAt: e.now,
	}))
}

func (e *testEnv) follow(t *testing.T, follower, followee string) {
	t.Helper()
	require.NoError(t, e.store.Follows.Create(context.Background(), &models.Follow{
		FollowerID: follower,
		FolloweeID: followee,
		CreatedAt:  e.now,
	}))
}

// seedCreatorWithFriends sets up u1 following the given friends.
func seedCreatorWithFriends(t *testing.T, env *testEnv, friends ...string) {
	t.Helper()
	env.addUser(t, "u1", "creator")
	for _, f := range friends {
		env.addUser(t, f, "user_"+f)
		env.follow(t, "u1", f)
	}
}

func validConfig(friendIDs ...string) services.ChallengeConfig {
	return services.ChallengeConfig{
		Subject:         "Physics",
		Lesson:          "Kinematics",
		QuestionCount:   10,
		Difficulty:      models.DifficultyMedium,
		DurationMinutes: 30,
		FriendIDs:       friendIDs,
	}
}

// ================== CHALLENGE FACTORY ==================

func TestCreateChallengeComputesExpiryOffset(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	for _, duration := range []int{5, 30, 90, 180} {
		config := validConfig("u2")
		config.DurationMinutes = duration

		challenge, err := env.svc.CreateChallenge(context.Background(), "u1", config)
		require.NoError(t, err)
		assert.Equal(t, duration+20, challenge.ExpiryOffsetMinutes)
		assert.Equal(t, models.ChallengeStatusPending, challenge.Status)
		assert.Equal(t, testStart, challenge.CreatedAt)
	}
}

func TestCreateChallengeDerivesName(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	a, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2"))
	require.NoError(t, err)
	b, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2"))
	require.NoError(t, err)

	assert.Contains(t, a.Name, "Physics")
	assert.Contains(t, a.Name, "Kinematics")
	// Random suffix keeps names unique-ish; ids are the real identity.
	assert.NotEqual(t, a.Name, b.Name)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateChallengeValidation(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3")

	tests := []struct {
		name   string
		mutate func(*services.ChallengeConfig)
	}{
		{"missing subject", func(c *services.ChallengeConfig) { c.Subject = "" }},
		{"missing lesson", func(c *services.ChallengeConfig) { c.Lesson = "" }},
		{"zero questions", func(c *services.ChallengeConfig) { c.QuestionCount = 0 }},
		{"too many questions", func(c *services.ChallengeConfig) { c.QuestionCount = 51 }},
		{"duration too short", func(c *services.ChallengeConfig) { c.DurationMinutes = 4 }},
		{"duration too long", func(c *services.ChallengeConfig) { c.DurationMinutes = 181 }},
		{"no friends", func(c *services.ChallengeConfig) { c.FriendIDs = nil }},
		{"unknown difficulty", func(c *services.ChallengeConfig) { c.Difficulty = "Extreme" }},
		{"self invite", func(c *services.ChallengeConfig) { c.FriendIDs = []string{"u1"} }},
		{"not followed", func(c *services.ChallengeConfig) { c.FriendIDs = []string{"stranger"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig("u2")
			tt.mutate(&config)

			_, err := env.svc.CreateChallenge(context.Background(), "u1", config)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
}

func TestCreateChallengeRejectsMoreThanTenFriends(t *testing.T) {
	env := newTestEnv(t)
	friends := make([]string, 11)
	for i := range friends {
		friends[i] = string(rune('a' + i))
	}
	seedCreatorWithFriends(t, env, friends...)

	_, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig(friends...))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCreateChallengeNormalizesDuplicateFriends(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2", "u2", "u2"))
	require.NoError(t, err)

	invites, _ := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2", "u2", "u2"})
	assert.Len(t, invites, 1)
}

func TestCreateChallengeDefaultsDifficulty(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	config := validConfig("u2")
	config.Difficulty = ""

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", config)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyAll, challenge.Difficulty)
}

// ================== INVITE DISPATCHER ==================

func TestDispatchInvitesFanOutCardinality(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3", "u4")

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2", "u3", "u4"))
	require.NoError(t, err)

	invites, report := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2", "u3", "u4"})
	require.Len(t, invites, 3)
	assert.Equal(t, 3, report.Sent)
	assert.False(t, report.Failed())

	seen := make(map[string]bool)
	for _, invite := range invites {
		assert.Equal(t, challenge.ID, invite.ChallengeID)
		assert.Nil(t, invite.Response)
		assert.False(t, seen[invite.InvitedUserID])
		seen[invite.InvitedUserID] = true
	}

	// One challenge_invite notification per friend
	for _, friendID := range []string{"u2", "u3", "u4"} {
		notifications, err := env.store.Notifications.ListForRecipient(context.Background(), friendID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationChallengeInvite, notifications[0].Type)
		assert.Equal(t, challenge.ID, notifications[0].ChallengeID)
	}
}

// flakyInviteStore fails invite creation for selected users.
type flakyInviteStore struct {
	store.InviteStore
	failFor map[string]bool
}

func (s *flakyInviteStore) Create(ctx context.Context, invite *models.Invite) error {
	if s.failFor[invite.InvitedUserID] {
		return store.ErrUnavailable
	}
	return s.InviteStore.Create(ctx, invite)
}

// failingNotificationStore rejects every create.
type failingNotificationStore struct {
	store.NotificationStore
}

func (s *failingNotificationStore) Create(context.Context, *models.Notification) error {
	return store.ErrUnavailable
}

func TestDispatchInvitesContinuesPastInviteFailure(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3", "u4")
	env.store.Invites = &flakyInviteStore{InviteStore: env.store.Invites, failFor: map[string]bool{"u3": true}}
	env.svc = services.NewChallengeService(env.store)
	env.svc.Now = func() time.Time { return env.now }

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2", "u3", "u4"))
	require.NoError(t, err)

	invites, report := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2", "u3", "u4"})

	// u3's invite failed but u2 and u4 were still processed.
	assert.Len(t, invites, 2)
	assert.Equal(t, 2, report.Sent)
	assert.True(t, report.Failed())
	assert.ErrorIs(t, report.InviteFailures["u3"], store.ErrUnavailable)
}

func TestDispatchInvitesKeepsInviteWhenNotificationFails(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	env.store.Notifications = &failingNotificationStore{NotificationStore: env.store.Notifications}
	env.svc = services.NewChallengeService(env.store)
	env.svc.Now = func() time.Time { return env.now }

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2"))
	require.NoError(t, err)

	invites, report := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2"})

	// The invite persists and is actionable even though the alert was lost.
	require.Len(t, invites, 1)
	assert.Equal(t, 1, report.Sent)
	assert.False(t, report.Failed())
	assert.ErrorIs(t, report.NotifyFailures["u2"], store.ErrUnavailable)

	_, _, err = env.svc.Respond(context.Background(), invites[0].ID, "u2", true)
	assert.NoError(t, err)
}

// ================== INVITE RESPONSE HANDLER ==================

func createWithInvites(t *testing.T, env *testEnv, friendIDs ...string) (*models.Challenge, []models.Invite) {
	t.Helper()
	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig(friendIDs...))
	require.NoError(t, err)
	invites, report := env.svc.DispatchInvites(context.Background(), challenge, friendIDs)
	require.False(t, report.Failed())
	return challenge, invites
}

func TestRespondAcceptRoutesToLobbyWhileLive(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	challenge, invites := createWithInvites(t, env, "u2")

	env.advance(10 * time.Minute)

	invite, route, err := env.svc.Respond(context.Background(), invites[0].ID, "u2", true)
	require.NoError(t, err)
	assert.True(t, invite.Accepted())
	assert.Equal(t, services.RouteLobby, route)

	// Creator got a challenge_accepted notification
	notifications, err := env.store.Notifications.ListForRecipient(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationChallengeAccepted, notifications[0].Type)
	assert.Equal(t, challenge.ID, notifications[0].ChallengeID)
	assert.Contains(t, notifications[0].Message, "accepted")
}

func TestRespondRejectNotifiesCreator(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	_, invites := createWithInvites(t, env, "u2")

	invite, route, err := env.svc.Respond(context.Background(), invites[0].ID, "u2", false)
	require.NoError(t, err)
	assert.False(t, invite.Accepted())
	assert.False(t, invite.Pending())
	assert.Equal(t, services.RouteNone, route)

	notifications, err := env.store.Notifications.ListForRecipient(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationChallengeRejected, notifications[0].Type)
}

func TestRespondAcceptAfterExpiryRoutesToExpired(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	_, invites := createWithInvites(t, env, "u2") // expires at +50min

	env.advance(55 * time.Minute)

	invite, route, err := env.svc.Respond(context.Background(), invites[0].ID, "u2", true)
	require.NoError(t, err)
	// The acceptance is still recorded; only the routing says expired.
	assert.True(t, invite.Accepted())
	assert.Equal(t, services.RouteExpired, route)
}

func TestRespondOnCompletedChallengeRoutesToResults(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2"))
	require.NoError(t, err)
	challenge.Status = models.ChallengeStatusCompleted
	require.NoError(t, env.store.Challenges.Create(context.Background(), challenge))
	invites, _ := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2"})

	_, route, err := env.svc.Respond(context.Background(), invites[0].ID, "u2", true)
	require.NoError(t, err)
	assert.Equal(t, services.RouteResults, route)
}

func TestRespondAuthorization(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3")
	_, invites := createWithInvites(t, env, "u2")

	// Neither the creator nor another invitee may answer u2's invite.
	for _, userID := range []string{"u1", "u3"} {
		_, _, err := env.svc.Respond(context.Background(), invites[0].ID, userID, true)
		assert.ErrorIs(t, err, services.ErrForbidden)
	}

	// The invite is untouched.
	invite, err := env.store.Invites.Get(context.Background(), invites[0].ID)
	require.NoError(t, err)
	assert.True(t, invite.Pending())
}

func TestRespondIsWriteOnce(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	_, invites := createWithInvites(t, env, "u2")

	_, _, err := env.svc.Respond(context.Background(), invites[0].ID, "u2", true)
	require.NoError(t, err)

	// A second response with a different value must not flip the record.
	_, _, err = env.svc.Respond(context.Background(), invites[0].ID, "u2", false)
	assert.ErrorIs(t, err, store.ErrConflict)

	invite, err := env.store.Invites.Get(context.Background(), invites[0].ID)
	require.NoError(t, err)
	assert.True(t, invite.Accepted())
}

func TestRespondUnknownInvite(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	_, _, err := env.svc.Respond(context.Background(), "missing", "u2", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ================== ACTIVE-CHALLENGE PROJECTOR ==================

func TestListActiveChallengesFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")

	// Three challenges with different durations; u2 accepts all of them.
	var inviteIDs []string
	for _, duration := range []int{90, 30, 180} {
		config := validConfig("u2")
		config.DurationMinutes = duration
		challenge, err := env.svc.CreateChallenge(context.Background(), "u1", config)
		require.NoError(t, err)
		invites, _ := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2"})
		inviteIDs = append(inviteIDs, invites[0].ID)
	}
	for _, id := range inviteIDs {
		_, _, err := env.svc.Respond(context.Background(), id, "u2", true)
		require.NoError(t, err)
	}

	summaries, err := env.svc.ListActiveChallenges(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Soonest to expire first: 30+20, 90+20, 180+20
	assert.Equal(t, 30, summaries[0].Challenge.DurationMinutes)
	assert.Equal(t, 90, summaries[1].Challenge.DurationMinutes)
	assert.Equal(t, 180, summaries[2].Challenge.DurationMinutes)
	assert.Equal(t, "creator", summaries[0].CreatorName)
	assert.Equal(t, int64(50*60), summaries[0].SecondsRemaining)

	// After 60 minutes the 30-minute challenge (50min window) has expired.
	env.advance(60 * time.Minute)
	summaries, err = env.svc.ListActiveChallenges(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 90, summaries[0].Challenge.DurationMinutes)
}

func TestListActiveChallengesExcludesPendingAndRejected(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3")
	_, invites := createWithInvites(t, env, "u2", "u3")

	// u2 rejects, u3 never answers.
	for _, invite := range invites {
		if invite.InvitedUserID == "u2" {
			_, _, err := env.svc.Respond(context.Background(), invite.ID, "u2", false)
			require.NoError(t, err)
		}
	}

	for _, userID := range []string{"u2", "u3"} {
		summaries, err := env.svc.ListActiveChallenges(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, summaries, "user %s should have no active challenges", userID)
	}
}

// ================== LOBBY GATE ==================

func TestEnterLobby(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3")
	challenge, invites := createWithInvites(t, env, "u2", "u3")

	var u2Invite models.Invite
	for _, invite := range invites {
		if invite.InvitedUserID == "u2" {
			u2Invite = invite
		}
	}
	_, _, err := env.svc.Respond(context.Background(), u2Invite.ID, "u2", true)
	require.NoError(t, err)

	// Creator and accepting invitee get the lobby while live.
	for _, userID := range []string{"u1", "u2"} {
		_, route, err := env.svc.EnterLobby(context.Background(), challenge.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, services.RouteLobby, route)
	}

	// u3 has not accepted.
	_, _, err = env.svc.EnterLobby(context.Background(), challenge.ID, "u3")
	assert.ErrorIs(t, err, services.ErrForbidden)

	// Everyone sees expired once the window closes.
	env.advance(51 * time.Minute)
	_, route, err := env.svc.EnterLobby(context.Background(), challenge.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, services.RouteExpired, route)
}

// ================== INVITES PAGE ==================

func TestListInvitesJoinsChallengeAndStatus(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2")
	challenge, invites := createWithInvites(t, env, "u2")

	views, err := env.svc.ListInvites(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, invites[0].ID, views[0].Invite.ID)
	assert.Equal(t, challenge.ID, views[0].Challenge.ID)
	assert.Equal(t, "creator", views[0].CreatorName)
	assert.Equal(t, models.StatusLive, views[0].Status)

	env.advance(55 * time.Minute)
	views, err = env.svc.ListInvites(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusExpired, views[0].Status)
}

// ================== END-TO-END SCENARIO ==================

// Creator u1 sets up a 30-minute challenge for u2 and u3; u2 accepts after
// ten minutes; at +55 minutes the challenge has expired everywhere.
func TestChallengeLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	seedCreatorWithFriends(t, env, "u2", "u3")

	challenge, err := env.svc.CreateChallenge(context.Background(), "u1", validConfig("u2", "u3"))
	require.NoError(t, err)
	assert.Equal(t, 50, challenge.ExpiryOffsetMinutes)

	invites, report := env.svc.DispatchInvites(context.Background(), challenge, []string{"u2", "u3"})
	require.Len(t, invites, 2)
	assert.Equal(t, 2, report.Sent)
	for _, invite := range invites {
		assert.Nil(t, invite.Response)
	}
	for _, userID := range []string{"u2", "u3"} {
		notifications, err := env.store.Notifications.ListForRecipient(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationChallengeInvite, notifications[0].Type)
	}

	env.advance(10 * time.Minute)

	var u2Invite models.Invite
	for _, invite := range invites {
		if invite.InvitedUserID == "u2" {
			u2Invite = invite
		}
	}
	invite, route, err := env.svc.Respond(context.Background(), u2Invite.ID, "u2", true)
	require.NoError(t, err)
	assert.True(t, invite.Accepted())
	assert.Equal(t, services.RouteLobby, route)

	creatorNotifications, err := env.store.Notifications.ListForRecipient(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, creatorNotifications, 1)
	assert.Equal(t, models.NotificationChallengeAccepted, creatorNotifications[0].Type)

	summaries, err := env.svc.ListActiveChallenges(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, challenge.ID, summaries[0].Challenge.ID)

	env.advance(45 * time.Minute) // now at +55min, past the 50min window

	got, err := env.store.Challenges.Get(context.Background(), challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.StatusAt(env.now))

	summaries, err = env.svc.ListActiveChallenges(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
