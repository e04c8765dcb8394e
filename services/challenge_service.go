// services/challenge_service.go - Peer Challenge Workflow Business Logic
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"time"

	"prepclash/models"
	"prepclash/store"
)

// Challenge configuration limits
const (
	MinQuestionCount   = 1
	MaxQuestionCount   = 50
	MinDurationMinutes = 5
	MaxDurationMinutes = 180
	MaxInvitedFriends  = 10
)

// ChallengeConfig is the creator-supplied challenge setup.
type ChallengeConfig struct {
	Subject         string            `json:"subject"`
	Lesson          string            `json:"lesson"`
	QuestionCount   int               `json:"question_count"`
	Difficulty      models.Difficulty `json:"difficulty"`
	ExamFilter      string            `json:"exam_filter"`
	DurationMinutes int               `json:"duration_minutes"`
	FriendIDs       []string          `json:"friend_ids"`
}

// RouteTarget tells the client where to send an accepting user.
type RouteTarget string

const (
	RouteNone    RouteTarget = ""
	RouteLobby   RouteTarget = "lobby"
	RouteResults RouteTarget = "results"
	RouteExpired RouteTarget = "expired"
)

// DispatchReport aggregates per-friend outcomes of an invite fan-out. The
// fan-out is best-effort: a failed invite or notification never aborts the
// batch, and an invite without its notification is still actionable.
type DispatchReport struct {
	Sent           int              `json:"sent"`
	InviteFailures map[string]error `json:"-"`
	NotifyFailures map[string]error `json:"-"`
}

// Failed reports whether any invite record itself failed to persist.
func (r *DispatchReport) Failed() bool {
	return len(r.InviteFailures) > 0
}

// InviteView is an invite joined with its challenge and derived status, as
// surfaced on the invites page.
type InviteView struct {
	Invite      models.Invite     `json:"invite"`
	Challenge   models.Challenge  `json:"challenge"`
	CreatorName string            `json:"creator_name"`
	Status      models.LiveStatus `json:"status"`
}

// ActiveChallengeSummary is one row of the "currently joinable" projection.
type ActiveChallengeSummary struct {
	Challenge        models.Challenge `json:"challenge"`
	CreatorName      string           `json:"creator_name"`
	InviteID         string           `json:"invite_id"`
	SecondsRemaining int64            `json:"seconds_remaining"`
}

type ChallengeService struct {
	challenges    store.ChallengeStore
	invites       store.InviteStore
	notifications store.NotificationStore
	users         store.UserStore
	follows       store.FollowStore

	// publish pushes freshly created notifications to connected clients.
	// Optional and advisory: correctness never depends on it.
	publish func(models.Notification)

	// Now is the clock used for creation timestamps and expiry checks.
	// Overridable in tests.
	Now func() time.Time
}

func NewChallengeService(s *store.Store) *ChallengeService {
	return &ChallengeService{
		challenges:    s.Challenges,
		invites:       s.Invites,
		notifications: s.Notifications,
		users:         s.Users,
		follows:       s.Follows,
		Now:           time.Now,
	}
}

// SetPublisher installs the realtime notification hook.
func (s *ChallengeService) SetPublisher(publish func(models.Notification)) {
	s.publish = publish
}

// ================== CHALLENGE FACTORY ==================

// CreateChallenge validates the configuration and persists the challenge.
// Invite fan-out is a separate step (DispatchInvites) so that "define a
// challenge" and "notify people" stay independently retryable. Exactly one
// record is written, so a failure leaves no partial state.
func (s *ChallengeService) CreateChallenge(ctx context.Context, creatorID string, config ChallengeConfig) (*models.Challenge, error) {
	if config.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if config.Lesson == "" {
		return nil, fmt.Errorf("%w: lesson is required", ErrValidation)
	}
	if config.QuestionCount < MinQuestionCount || config.QuestionCount > MaxQuestionCount {
		return nil, fmt.Errorf("%w: question count must be between %d and %d",
			ErrValidation, MinQuestionCount, MaxQuestionCount)
	}
	if config.DurationMinutes < MinDurationMinutes || config.DurationMinutes > MaxDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrValidation, MinDurationMinutes, MaxDurationMinutes)
	}
	switch config.Difficulty {
	case "":
		config.Difficulty = models.DifficultyAll
	case models.DifficultyAll, models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, config.Difficulty)
	}

	friendIDs := dedupe(config.FriendIDs)
	if len(friendIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one friend must be invited", ErrValidation)
	}
	if len(friendIDs) > MaxInvitedFriends {
		return nil, fmt.Errorf("%w: at most %d friends can be invited", ErrValidation, MaxInvitedFriends)
	}
	for _, friendID := range friendIDs {
		if friendID == creatorID {
			return nil, fmt.Errorf("%w: cannot invite yourself", ErrValidation)
		}
		followed, err := s.follows.Exists(ctx, creatorID, friendID)
		if err != nil {
			return nil, err
		}
		if !followed {
			return nil, fmt.Errorf("%w: user %s is not in your friend list", ErrValidation, friendID)
		}
	}

	challenge := &models.Challenge{
		CreatorID:           creatorID,
		Name:                deriveChallengeName(config.Subject, config.Lesson),
		Subject:             config.Subject,
		Lesson:              config.Lesson,
		Difficulty:          config.Difficulty,
		QuestionCount:       config.QuestionCount,
		DurationMinutes:     config.DurationMinutes,
		ExamFilter:          config.ExamFilter,
		Status:              models.ChallengeStatusPending,
		ExpiryOffsetMinutes: config.DurationMinutes + models.ExpiryGraceMinutes,
		CreatedAt:           s.Now(),
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// deriveChallengeName builds a readable, unique-ish display name. Collisions
// are tolerated since challenges are identified by id, not name.
func deriveChallengeName(subject, lesson string) string {
	bytes := make([]byte, 3)
	rand.Read(bytes)
	return fmt.Sprintf("%s: %s #%s", subject, lesson, hex.EncodeToString(bytes))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ================== INVITE DISPATCHER ==================

// DispatchInvites creates one pending invite and one challenge_invite
// notification per friend, sequentially in the supplied order. Each friend
// is independent: failures are collected in the report and the loop
// continues.
func (s *ChallengeService) DispatchInvites(ctx context.Context, challenge *models.Challenge, friendIDs []string) ([]models.Invite, *DispatchReport) {
	report := &DispatchReport{
		InviteFailures: make(map[string]error),
		NotifyFailures: make(map[string]error),
	}

	creatorName := "A friend"
	if creator, err := s.users.GetByID(ctx, challenge.CreatorID); err == nil {
		creatorName = creator.Handle()
	}

	invites := make([]models.Invite, 0, len(friendIDs))
	for _, friendID := range dedupe(friendIDs) {
		invite := models.Invite{
			ChallengeID:   challenge.ID,
			InvitedUserID: friendID,
			CreatedAt:     s.Now(),
		}
		if err := s.invites.Create(ctx, &invite); err != nil {
			report.InviteFailures[friendID] = err
			continue
		}
		invites = append(invites, invite)
		report.Sent++

		message := fmt.Sprintf("%s challenged you to %s (%d questions, %d min)",
			creatorName, challenge.Name, challenge.QuestionCount, challenge.DurationMinutes)
		if err := s.notify(ctx, models.Notification{
			SenderID:    challenge.CreatorID,
			Message:     message,
			Type:        models.NotificationChallengeInvite,
			ChallengeID: challenge.ID,
			InviteID:    invite.ID,
		}, []string{friendID}); err != nil {
			// The invite stays actionable via the invites list.
			report.NotifyFailures[friendID] = err
			log.Printf("invite notification for user %s failed: %v", friendID, err)
		}
	}
	return invites, report
}

// notify persists a notification and pushes it to connected recipients.
func (s *ChallengeService) notify(ctx context.Context, notification models.Notification, recipients []string) error {
	if err := notification.SetRecipients(recipients); err != nil {
		return err
	}
	notification.CreatedAt = s.Now()
	if err := s.notifications.Create(ctx, &notification); err != nil {
		return err
	}
	if s.publish != nil {
		s.publish(notification)
	}
	return nil
}

// ================== INVITE RESPONSE HANDLER ==================

// Respond records an accept/reject on a pending invite. Only the invited
// user may respond, and only once; a second response fails with
// store.ErrConflict. The state transition is the critical effect; the
// creator notification is advisory and its failure is logged, never
// surfaced.
func (s *ChallengeService) Respond(ctx context.Context, inviteID, userID string, accept bool) (*models.Invite, RouteTarget, error) {
	invite, err := s.invites.Get(ctx, inviteID)
	if err != nil {
		return nil, RouteNone, err
	}
	if invite.InvitedUserID != userID {
		return nil, RouteNone, fmt.Errorf("%w: invite belongs to another user", ErrForbidden)
	}
	if !invite.Pending() {
		return nil, RouteNone, fmt.Errorf("%w: invite already answered", store.ErrConflict)
	}

	updated, err := s.invites.SetResponse(ctx, inviteID, accept)
	if err != nil {
		return nil, RouteNone, err
	}

	// Everything past this point is best-effort; the response is recorded.
	challenge, err := s.challenges.Get(ctx, updated.ChallengeID)
	if err != nil {
		log.Printf("challenge lookup after response on invite %s failed: %v", inviteID, err)
		return updated, RouteNone, nil
	}

	s.notifyCreator(ctx, challenge, updated, accept)

	if !accept {
		return updated, RouteNone, nil
	}
	return updated, s.resolveRoute(challenge), nil
}

// resolveRoute decides where an accepting user lands: the live lobby while
// the challenge is joinable, results once the test engine completed it,
// otherwise an expired notice.
func (s *ChallengeService) resolveRoute(challenge *models.Challenge) RouteTarget {
	switch {
	case challenge.Status == models.ChallengeStatusCompleted:
		return RouteResults
	case challenge.StatusAt(s.Now()) == models.StatusLive:
		return RouteLobby
	default:
		return RouteExpired
	}
}

func (s *ChallengeService) notifyCreator(ctx context.Context, challenge *models.Challenge, invite *models.Invite, accept bool) {
	responderName := "A friend"
	if responder, err := s.users.GetByID(ctx, invite.InvitedUserID); err == nil {
		responderName = responder.Handle()
	}

	verb := "accepted"
	notificationType := models.NotificationChallengeAccepted
	if !accept {
		verb = "declined"
		notificationType = models.NotificationChallengeRejected
	}
	message := fmt.Sprintf("%s %s your %s challenge on %s",
		responderName, verb, challenge.Subject, challenge.Lesson)

	if err := s.notify(ctx, models.Notification{
		SenderID:    invite.InvitedUserID,
		Message:     message,
		Type:        notificationType,
		ChallengeID: challenge.ID,
		InviteID:    invite.ID,
	}, []string{challenge.CreatorID}); err != nil {
		log.Printf("creator notification for invite %s failed: %v", invite.ID, err)
	}
}

// ================== READ SURFACES ==================

// GetChallenge returns a challenge with its derived status computed now.
func (s *ChallengeService) GetChallenge(ctx context.Context, id string) (*models.Challenge, models.LiveStatus, error) {
	challenge, err := s.challenges.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return challenge, challenge.StatusAt(s.Now()), nil
}

// ListInvites returns the user's invites joined with challenge details,
// pending invites first, newest first within each group.
func (s *ChallengeService) ListInvites(ctx context.Context, userID string) ([]InviteView, error) {
	invites, err := s.invites.List(ctx, store.InviteFilter{InvitedUserID: userID})
	if err != nil {
		return nil, err
	}

	now := s.Now()
	views := make([]InviteView, 0, len(invites))
	for _, invite := range invites {
		challenge, err := s.challenges.Get(ctx, invite.ChallengeID)
		if err != nil {
			log.Printf("skipping invite %s: challenge lookup failed: %v", invite.ID, err)
			continue
		}
		views = append(views, InviteView{
			Invite:      invite,
			Challenge:   *challenge,
			CreatorName: s.creatorName(ctx, challenge.CreatorID),
			Status:      challenge.StatusAt(now),
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Invite.Pending() && !views[j].Invite.Pending()
	})
	return views, nil
}

// ListActiveChallenges projects the user's accepted invites onto challenges
// that are still Live, soonest to expire first.
func (s *ChallengeService) ListActiveChallenges(ctx context.Context, userID string) ([]ActiveChallengeSummary, error) {
	accepted := true
	invites, err := s.invites.List(ctx, store.InviteFilter{InvitedUserID: userID, Accepted: &accepted})
	if err != nil {
		return nil, err
	}

	now := s.Now()
	summaries := make([]ActiveChallengeSummary, 0, len(invites))
	for _, invite := range invites {
		challenge, err := s.challenges.Get(ctx, invite.ChallengeID)
		if err != nil {
			log.Printf("skipping invite %s: challenge lookup failed: %v", invite.ID, err)
			continue
		}
		if challenge.StatusAt(now) != models.StatusLive {
			continue
		}
		summaries = append(summaries, ActiveChallengeSummary{
			Challenge:        *challenge,
			CreatorName:      s.creatorName(ctx, challenge.CreatorID),
			InviteID:         invite.ID,
			SecondsRemaining: int64(challenge.RemainingAt(now).Seconds()),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SecondsRemaining < summaries[j].SecondsRemaining
	})
	return summaries, nil
}

// EnterLobby gates the live lobby: the caller must be the creator or an
// accepting invitee, and the challenge must still be joinable.
func (s *ChallengeService) EnterLobby(ctx context.Context, challengeID, userID string) (*models.Challenge, RouteTarget, error) {
	challenge, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, RouteNone, err
	}

	if challenge.CreatorID != userID {
		accepted := true
		invites, err := s.invites.List(ctx, store.InviteFilter{
			InvitedUserID: userID,
			ChallengeID:   challengeID,
			Accepted:      &accepted,
		})
		if err != nil {
			return nil, RouteNone, err
		}
		if len(invites) == 0 {
			return nil, RouteNone, fmt.Errorf("%w: no accepted invite for this challenge", ErrForbidden)
		}
	}
	return challenge, s.resolveRoute(challenge), nil
}

func (s *ChallengeService) creatorName(ctx context.Context, creatorID string) string {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return ""
	}
	return creator.Handle()
}
