package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

func TestCreateSingleSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice)

	series, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if series != nil {
		t.Error("a single session must not allocate a series")
	}
	if len(occurrences) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occurrences))
	}

	occ := occurrences[0]
	if occ.SeriesID != nil {
		t.Error("single occurrence must not carry a series id")
	}
	if !occ.HasParticipant("alice") {
		t.Error("creator must be auto-enrolled")
	}
	if got, want := occ.StartTime, time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartTime = %v, want %v", got, want)
	}
	if got := len(env.sessions.entriesFor("alice")); got != 1 {
		t.Errorf("expected 1 schedule entry for the creator, got %d", got)
	}
}

func TestCreateSeriesEnrollsCreatorOnEveryDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		EndDate:   day(2024, time.January, 31),
	}
	series, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.January, 1), 5), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if len(occurrences) != 10 {
		t.Fatalf("expected 10 occurrences, got %d", len(occurrences))
	}

	for _, occ := range occurrences {
		if occ.SeriesID == nil || *occ.SeriesID != series.ID {
			t.Fatalf("occurrence on %s not linked to the series", occ.StartTime.Format("2006-01-02"))
		}
		if !occ.HasParticipant("alice") {
			t.Errorf("creator missing on %s", occ.StartTime.Format("2006-01-02"))
		}
	}
	if got := len(env.sessions.entriesFor("alice")); got != 10 {
		t.Errorf("expected 10 schedule entries for the creator, got %d", got)
	}

	stored, err := env.sessions.GetSeries(ctx, series.ID)
	if err != nil || stored == nil {
		t.Fatalf("series rule not persisted: %v", err)
	}
	if stored.Rule.Frequency != model.FrequencyWeekly {
		t.Errorf("persisted frequency = %s, want weekly", stored.Rule.Frequency)
	}
}

func TestCreateSeriesValidation(t *testing.T) {
	base := tutoringInput(day(2024, time.March, 4), 5)

	tests := []struct {
		name    string
		mutate  func(*SessionInput)
		wantErr error
	}{
		{"missing title", func(in *SessionInput) { in.Title = "" }, ErrMissingTitle},
		{"bad category", func(in *SessionInput) { in.Category = "webinar" }, ErrInvalidCategory},
		{"end before start", func(in *SessionInput) { in.EndHour = 9 }, ErrInvalidTimeRange},
		{"zero duration", func(in *SessionInput) { in.EndHour = in.StartHour; in.EndMinute = in.StartMinute }, ErrInvalidTimeRange},
		{"zero capacity", func(in *SessionInput) { in.MaxAttendees = 0 }, ErrInvalidCapacity},
		{"online without link", func(in *SessionInput) { in.MeetingLink = "" }, ErrMissingMeetingLink},
		{"offline without location", func(in *SessionInput) { in.IsOnline = false; in.Location = "" }, ErrMissingLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(alice)
			input := base
			tt.mutate(&input)

			_, _, err := env.sessionSvc.CreateSeries(context.Background(), "alice", input, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if len(env.sessions.occurrences) != 0 {
				t.Error("invalid input must not persist anything")
			}
		})
	}
}

func TestCreateSeriesUnknownGroup(t *testing.T) {
	env := newTestEnv(alice)

	groupID := uuid.New()
	input := tutoringInput(day(2024, time.March, 4), 5)
	input.GroupID = &groupID

	_, _, err := env.sessionSvc.CreateSeries(context.Background(), "alice", input, nil)
	if !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("got %v, want ErrUnknownGroup", err)
	}
}

func TestUpdateOccurrenceAnnouncesToGroup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob, carol)

	group := &model.Group{ID: uuid.New(), Name: "Math club", OwnerID: "alice"}
	env.groups.groups[group.ID] = group
	env.groups.members[group.ID] = []string{"alice", "bob", "carol"}

	input := tutoringInput(day(2024, time.March, 4), 5)
	input.GroupID = &group.ID
	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", input, nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	edited := input
	edited.Title = "Algebra II"
	edited.StartHour = 12
	edited.EndHour = 13
	updated, err := env.sessionSvc.UpdateOccurrence(ctx, "alice", occurrences[0].ID, edited)
	if err != nil {
		t.Fatalf("UpdateOccurrence: %v", err)
	}
	if updated.Title != "Algebra II" {
		t.Errorf("Title = %q, want %q", updated.Title, "Algebra II")
	}

	// Every member except the editor hears about it, and the group
	// feed gets one post.
	if got := len(env.notes.forRecipient("bob")); got != 1 {
		t.Errorf("bob notifications = %d, want 1", got)
	}
	if got := len(env.notes.forRecipient("carol")); got != 1 {
		t.Errorf("carol notifications = %d, want 1", got)
	}
	if got := len(env.notes.forRecipient("alice")); got != 0 {
		t.Errorf("the editor must not be notified, got %d", got)
	}
	if len(env.groups.posts) != 1 {
		t.Fatalf("expected 1 group post, got %d", len(env.groups.posts))
	}
	if env.groups.posts[0].GroupID != group.ID {
		t.Error("announcement posted to the wrong group")
	}
}

func TestUpdateOccurrenceRequiresCreator(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob)

	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	_, err = env.sessionSvc.UpdateOccurrence(ctx, "bob", occurrences[0].ID, tutoringInput(day(2024, time.March, 4), 5))
	if !errors.Is(err, ErrNotCreator) {
		t.Fatalf("got %v, want ErrNotCreator", err)
	}
}

func TestDeleteSeriesNotifiesEachParticipantOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyDaily,
		EndDate:   day(2024, time.March, 6),
	}
	series, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	for _, occ := range occurrences {
		occ.Participants = append(occ.Participants, "bob")
	}

	warning, err := env.sessionSvc.DeleteSeries(ctx, "alice", series.ID)
	if err != nil {
		t.Fatalf("DeleteSeries: %v", err)
	}
	if warning != nil {
		t.Fatalf("unexpected warning: %v", warning)
	}

	if len(env.sessions.occurrences) != 0 {
		t.Errorf("%d occurrences left after series deletion", len(env.sessions.occurrences))
	}
	// One notice despite membership on three dates.
	if got := len(env.notes.forRecipient("bob")); got != 1 {
		t.Errorf("bob cancellation notices = %d, want 1", got)
	}
	if got := len(env.notes.forRecipient("alice")); got != 0 {
		t.Errorf("the creator must not be notified, got %d", got)
	}
}

func TestDeleteSeriesRemovesScheduleEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob)

	rule := &model.RepetitionRule{
		Frequency: model.FrequencyDaily,
		EndDate:   day(2024, time.March, 6),
	}
	series, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), rule)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if err := env.enrollSvc.RequestJoin(ctx, occurrences[0].ID, "bob"); err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if err := env.enrollSvc.RespondToRequest(ctx, "alice", occurrences[0].ID, "bob", true); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	if got := len(env.sessions.entriesFor("bob")); got != 3 {
		t.Fatalf("expected 3 entries for bob before deletion, got %d", got)
	}

	if _, err := env.sessionSvc.DeleteSeries(ctx, "alice", series.ID); err != nil {
		t.Fatalf("DeleteSeries: %v", err)
	}

	// Canceled dates must not linger on anyone's calendar.
	for _, userID := range []string{"alice", "bob"} {
		entries, total, err := env.scheduleSvc.ListEntries(ctx, userID, day(2024, time.March, 4))
		if err != nil {
			t.Fatalf("ListEntries(%s): %v", userID, err)
		}
		if len(entries) != 0 || total != 0 {
			t.Errorf("%s still has %d entries (total %d) after series deletion", userID, len(entries), total)
		}
	}
}

func TestDeleteOccurrenceRemovesOnlyItsEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice)

	_, first, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if _, _, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 5), 5), nil); err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}

	if _, err := env.sessionSvc.DeleteOccurrence(ctx, "alice", first[0].ID); err != nil {
		t.Fatalf("DeleteOccurrence: %v", err)
	}

	entries, total, err := env.scheduleSvc.ListEntries(ctx, "alice", day(2024, time.March, 4))
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 || total != 1 {
		t.Fatalf("expected exactly the surviving session's entry, got %d (total %d)", len(entries), total)
	}
	if entries[0].OccurrenceID == first[0].ID {
		t.Error("deleted occurrence's entry survived")
	}
}

func TestDeleteOccurrenceFailsOpenOnNotification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(alice, bob, carol)

	_, occurrences, err := env.sessionSvc.CreateSeries(ctx, "alice", tutoringInput(day(2024, time.March, 4), 5), nil)
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	occ := occurrences[0]
	occ.Participants = append(occ.Participants, "bob", "carol")

	env.notes.failFor["bob"] = errors.New("sink unavailable")

	warning, err := env.sessionSvc.DeleteOccurrence(ctx, "alice", occ.ID)
	if err != nil {
		t.Fatalf("DeleteOccurrence: %v", err)
	}
	if warning == nil {
		t.Fatal("expected a cancellation warning")
	}
	if len(warning.FailedRecipients) != 1 || warning.FailedRecipients[0] != "bob" {
		t.Errorf("FailedRecipients = %v, want [bob]", warning.FailedRecipients)
	}

	// The deletion itself went through and carol was still notified.
	if len(env.sessions.occurrences) != 0 {
		t.Error("occurrence should be gone despite the failed notice")
	}
	if got := len(env.notes.forRecipient("carol")); got != 1 {
		t.Errorf("carol cancellation notices = %d, want 1", got)
	}
}
