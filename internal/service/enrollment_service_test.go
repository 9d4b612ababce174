package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
)

type testEnv struct {
	sessions    *fakeSessionStore
	users       *fakeUserStore
	groups      *fakeGroupStore
	notes       *fakeNotificationStore
	sessionSvc  *SessionService
	enrollSvc   *EnrollmentService
	scheduleSvc *ScheduleService
}

func newTestEnv(users ...*model.User) *testEnv {
	env := &testEnv{
		sessions: newFakeSessionStore(),
		users:    newFakeUserStore(users...),
		groups:   newFakeGroupStore(),
		notes:    newFakeNotificationStore(),
	}
	logger := testLogger()
	notifier := NewNotificationService(env.notes, logger)
	env.sessionSvc = NewSessionService(env.sessions, env.users, env.groups, notifier, logger)
	env.enrollSvc = NewEnrollmentService(env.sessions, env.users, notifier, logger)
	env.scheduleSvc = NewScheduleService(env.sessions, &fakeEntryStore{sessions: env.sessions}, logger)
	return env
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var (
	alice = &model.User{ID: "alice", DisplayName: "Alice", Role: model.RoleTeacher}
	bob   = &model.User{ID: "bob", DisplayName: "Bob", Role: model.RoleStudent}
	carol = &model.User{ID: "carol", DisplayName: "Carol", Role: model.RoleStudent}
)

func tutoringInput(date time.Time, maxAttendees int) SessionInput {
	return SessionInput{
		Title:        "Algebra",
		Description:  "Linear equations",
		Category:     model.CategoryTutoring,
		Date:         date,
		StartHour:    10,
		EndHour:      11,
		IsOnline:     true,
		MeetingLink:  "https://meet.example.com/algebra",
		MaxAttendees: maxAttendees,
	}
}

// The canonical repeating-tutoring flow: a weekly Mon/Wed series for
// January 2024 expands to ten dates, a student requests one date, and
// the creator's acceptance enrolls the student on all ten.
func TestAcceptGrantsWholeSeries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		EndDate:   day(2024, time.January, 31),
	}
	series, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.January, 1), 5), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if series == nil {
		t.Fatal("expected a series for a repeating rule")
	}
	if len(occurrences) != 10 {
		t.Fatalf("expected 10 occurrences, got %d", len(occurrences))
	}

	target := occurrences[2]
	if err := env.enrollSvc.RequestJoin(ctx, target.ID, "bob"); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if got := len(env.notes.forRecipient("alice")); got != 1 {
		t.Fatalf("expected 1 notification for the creator, got %d", got)
	}

	if err := env.enrollSvc.RespondToRequest(ctx, "alice", target.ID, "bob", true); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}

	for _, occ := range occurrences {
		stored, _ := env.sessions.GetByID(ctx, occ.ID)
		if !stored.HasParticipant("bob") {
			t.Errorf("occurrence on %s: bob not enrolled", stored.StartTime.Format("2006-01-02"))
		}
		if len(stored.Requests) != 0 {
			t.Errorf("occurrence on %s: %d pending requests left", stored.StartTime.Format("2006-01-02"), len(stored.Requests))
		}
	}
	if got := len(env.sessions.entriesFor("bob")); got != 10 {
		t.Errorf("expected 10 schedule entries for bob, got %d", got)
	}

	notes := env.notes.forRecipient("bob")
	if len(notes) != 1 {
		t.Fatalf("expected exactly 1 notification for bob, got %d", len(notes))
	}
	if notes[0].Type != model.NotificationRequestAccept {
		t.Errorf("notification type = %s, want %s", notes[0].Type, model.NotificationRequestAccept)
	}
	if !strings.Contains(notes[0].Message, "10 dates") {
		t.Errorf("acceptance message should mention the series size, got %q", notes[0].Message)
	}
}

func TestAcceptAbortsWhenSiblingIsFull(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob, carol)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyDaily,
		EndDate:   day(2024, time.March, 5),
	}
	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 2), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	// Carol takes the only free seat on the second date.
	occurrences[1].Participants = append(occurrences[1].Participants, "carol")

	if err := env.enrollSvc.RequestJoin(ctx, occurrences[0].ID, "bob"); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}

	err = env.enrollSvc.RespondToRequest(ctx, "alice", occurrences[0].ID, "bob", true)
	if !errors.Is(err, repository.ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}

	// Nothing happened: bob is a member nowhere and the request is
	// still pending.
	for _, occ := range occurrences {
		if occ.HasParticipant("bob") {
			t.Errorf("bob enrolled on %s despite the aborted accept", occ.StartTime.Format("2006-01-02"))
		}
	}
	if !occurrences[0].HasRequest("bob") {
		t.Error("pending request should survive an aborted accept")
	}
	if got := len(env.sessions.entriesFor("bob")); got != 0 {
		t.Errorf("expected no schedule entries for bob, got %d", got)
	}
}

func TestRejectStaysLocalToOccurrence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyDaily,
		EndDate:   day(2024, time.March, 5),
	}
	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	for _, occ := range occurrences {
		if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "bob"); err != nil {
			t.Fatalf("RequestJoin on %s: %v", occ.StartTime.Format("2006-01-02"), err)
		}
	}

	if err := env.enrollSvc.RespondToRequest(ctx, "alice", occurrences[0].ID, "bob", false); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}

	if occurrences[0].HasRequest("bob") {
		t.Error("rejected request should be gone")
	}
	if !occurrences[1].HasRequest("bob") {
		t.Error("rejection must not touch sibling occurrences")
	}

	notes := env.notes.forRecipient("bob")
	if len(notes) != 1 || notes[0].Type != model.NotificationRequestReject {
		t.Fatalf("expected exactly 1 rejection notification, got %+v", notes)
	}
}

func TestRequestJoinStateMachine(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob, carol)

	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 2), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	occ := occurrences[0]

	if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "bob"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "bob"); !errors.Is(err, repository.ErrAlreadyRequested) {
		t.Errorf("duplicate request: got %v, want ErrAlreadyRequested", err)
	}
	if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "alice"); !errors.Is(err, repository.ErrAlreadyMember) {
		t.Errorf("member request: got %v, want ErrAlreadyMember", err)
	}

	// Capacity 2 is exhausted once bob is accepted, so carol cannot
	// even queue up.
	if err := env.enrollSvc.RespondToRequest(ctx, "alice", occ.ID, "bob", true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "carol"); !errors.Is(err, repository.ErrSessionFull) {
		t.Errorf("request on full occurrence: got %v, want ErrSessionFull", err)
	}
	if occ.HasRequest("carol") {
		t.Error("failed request must not be recorded")
	}
}

func TestRespondToRequestRequiresCreator(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob, carol)

	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	occ := occurrences[0]

	if err := env.enrollSvc.RequestJoin(ctx, occ.ID, "bob"); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if err := env.enrollSvc.RespondToRequest(ctx, "carol", occ.ID, "bob", true); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("got %v, want ErrNotCreator", err)
	}
	if !occ.HasRequest("bob") {
		t.Error("request must survive an unauthorized response")
	}
}

func TestRequestJoinUnknownUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice)

	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	if err := env.enrollSvc.RequestJoin(ctx, occurrences[0].ID, "nobody"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("got %v, want ErrUnknownUser", err)
	}
}
