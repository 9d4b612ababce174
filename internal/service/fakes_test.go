package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
	"github.com/superALLEY/EduConnect-sub001/internal/repository"
)

// In-memory stores mirroring the pgx repositories' contracts, sentinel
// errors included, so the services can be exercised without a
// database.

type fakeSessionStore struct {
	occurrences map[uuid.UUID]*model.SessionOccurrence
	series      map[uuid.UUID]*model.SessionSeries
	entries     []*model.ScheduleEntry
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		occurrences: make(map[uuid.UUID]*model.SessionOccurrence),
		series:      make(map[uuid.UUID]*model.SessionSeries),
	}
}

func (f *fakeSessionStore) CreateSeries(_ context.Context, occurrences []*model.SessionOccurrence, series *model.SessionSeries) error {
	if series != nil {
		f.series[series.ID] = series
	}
	for _, occ := range occurrences {
		f.occurrences[occ.ID] = occ
		for _, userID := range occ.Participants {
			f.entries = append(f.entries, model.EntryFromOccurrence(userID, occ))
		}
	}
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.SessionOccurrence, error) {
	return f.occurrences[id], nil
}

func (f *fakeSessionStore) GetBySeriesID(_ context.Context, seriesID uuid.UUID) ([]*model.SessionOccurrence, error) {
	var out []*model.SessionOccurrence
	for _, occ := range f.occurrences {
		if occ.SeriesID != nil && *occ.SeriesID == seriesID {
			out = append(out, occ)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeSessionStore) GetSeries(_ context.Context, seriesID uuid.UUID) (*model.SessionSeries, error) {
	return f.series[seriesID], nil
}

func (f *fakeSessionStore) Update(_ context.Context, occ *model.SessionOccurrence) error {
	if _, ok := f.occurrences[occ.ID]; !ok {
		return repository.ErrNotFound
	}
	f.occurrences[occ.ID] = occ
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.occurrences[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.occurrences, id)
	f.dropEntries(func(e *model.ScheduleEntry) bool { return e.OccurrenceID == id })
	return nil
}

func (f *fakeSessionStore) DeleteSeries(_ context.Context, seriesID uuid.UUID) (int64, error) {
	var deleted int64
	for id, occ := range f.occurrences {
		if occ.SeriesID != nil && *occ.SeriesID == seriesID {
			delete(f.occurrences, id)
			deleted++
		}
	}
	delete(f.series, seriesID)
	f.dropEntries(func(e *model.ScheduleEntry) bool { return e.SeriesID != nil && *e.SeriesID == seriesID })
	return deleted, nil
}

// dropEntries removes the schedule entries matching the predicate,
// mirroring the entry cleanup the real store does inside its delete
// transactions.
func (f *fakeSessionStore) dropEntries(match func(*model.ScheduleEntry) bool) {
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if !match(entry) {
			kept = append(kept, entry)
		}
	}
	f.entries = kept
}

func (f *fakeSessionStore) AddRequest(_ context.Context, occurrenceID uuid.UUID, req model.JoinRequest) error {
	occ, ok := f.occurrences[occurrenceID]
	if !ok {
		return repository.ErrNotFound
	}
	if occ.HasParticipant(req.UserID) {
		return repository.ErrAlreadyMember
	}
	if occ.HasRequest(req.UserID) {
		return repository.ErrAlreadyRequested
	}
	if occ.IsFull() {
		return repository.ErrSessionFull
	}
	req.RequestedAt = time.Now()
	occ.Requests = append(occ.Requests, req)
	return nil
}

func (f *fakeSessionStore) AcceptAcrossSeries(ctx context.Context, occurrenceID uuid.UUID, userID string) ([]uuid.UUID, error) {
	target, ok := f.occurrences[occurrenceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !target.HasRequest(userID) {
		return nil, repository.ErrNoSuchRequest
	}

	occurrences := []*model.SessionOccurrence{target}
	if target.SeriesID != nil {
		occurrences, _ = f.GetBySeriesID(ctx, *target.SeriesID)
	}

	// All-or-nothing: check capacity everywhere before mutating.
	for _, occ := range occurrences {
		if !occ.HasParticipant(userID) && occ.IsFull() {
			return nil, fmt.Errorf("occurrence %s: %w", occ.ID, repository.ErrSessionFull)
		}
	}

	var accepted []uuid.UUID
	for _, occ := range occurrences {
		removeRequest(occ, userID)
		if occ.HasParticipant(userID) {
			continue
		}
		occ.Participants = append(occ.Participants, userID)
		f.entries = append(f.entries, model.EntryFromOccurrence(userID, occ))
		accepted = append(accepted, occ.ID)
	}
	return accepted, nil
}

func (f *fakeSessionStore) RejectRequest(_ context.Context, occurrenceID uuid.UUID, userID string) error {
	occ, ok := f.occurrences[occurrenceID]
	if !ok {
		return repository.ErrNotFound
	}
	if !occ.HasRequest(userID) {
		return repository.ErrNoSuchRequest
	}
	removeRequest(occ, userID)
	return nil
}

func (f *fakeSessionStore) ListForUserBetween(_ context.Context, userID string, from, to time.Time) ([]*model.SessionOccurrence, error) {
	var out []*model.SessionOccurrence
	for _, occ := range f.occurrences {
		if occ.CreatorID != userID && !occ.HasParticipant(userID) {
			continue
		}
		if occ.StartTime.Before(from) || !occ.StartTime.Before(to) {
			continue
		}
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func removeRequest(occ *model.SessionOccurrence, userID string) {
	for i, req := range occ.Requests {
		if req.UserID == userID {
			occ.Requests = append(occ.Requests[:i], occ.Requests[i+1:]...)
			return
		}
	}
}

func (f *fakeSessionStore) entriesFor(userID string) []*model.ScheduleEntry {
	var out []*model.ScheduleEntry
	for _, entry := range f.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}

// fakeEntryStore exposes the session store's entry log through the
// read-side interface.
type fakeEntryStore struct {
	sessions *fakeSessionStore
}

func (f *fakeEntryStore) ListForUserBetween(_ context.Context, userID string, from, to time.Time) ([]*model.ScheduleEntry, error) {
	var out []*model.ScheduleEntry
	for _, entry := range f.sessions.entries {
		if entry.UserID != userID {
			continue
		}
		if entry.StartTime.Before(from) || !entry.StartTime.Before(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeEntryStore) CountForUser(_ context.Context, userID string) (int, error) {
	return len(f.sessions.entriesFor(userID)), nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

type fakeGroupStore struct {
	groups  map[uuid.UUID]*model.Group
	members map[uuid.UUID][]string
	posts   []*model.GroupPost
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		groups:  make(map[uuid.UUID]*model.Group),
		members: make(map[uuid.UUID][]string),
	}
}

func (f *fakeGroupStore) GetByID(_ context.Context, id uuid.UUID) (*model.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroupStore) GetMemberIDs(_ context.Context, groupID uuid.UUID) ([]string, error) {
	return f.members[groupID], nil
}

func (f *fakeGroupStore) CreatePost(_ context.Context, post *model.GroupPost) error {
	f.posts = append(f.posts, post)
	return nil
}

type fakeNotificationStore struct {
	notifications []*model.Notification
	failFor       map[string]error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{failFor: make(map[string]error)}
}

func (f *fakeNotificationStore) Create(_ context.Context, n *model.Notification) error {
	if err := f.failFor[n.RecipientID]; err != nil {
		return err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationStore) ListForRecipient(_ context.Context, recipientID string, _ int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, recipientID string) error {
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) forRecipient(recipientID string) []*model.Notification {
	out, _ := f.ListForRecipient(context.Background(), recipientID, 0)
	return out
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
