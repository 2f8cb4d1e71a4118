package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
	"github.com/bloxevents/event-system/storage"
)

// In-memory repository fakes. They mimic the postgres implementations closely
// enough for service tests: reads return copies, the outcome commit is
// conditional on the version it read, and constraint violations surface the
// same sentinel errors.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[int]*models.Event

	// failNextUpdateOutcome injects one repository error into the next
	// UpdateOutcome call.
	failNextUpdateOutcome error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: map[int]*models.Event{}}
}

func (r *fakeEventRepo) put(event *models.Event) *models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == 0 {
		event.ID = r.nextID
		r.nextID++
	} else if event.ID >= r.nextID {
		r.nextID = event.ID + 1
	}
	stored := *event
	r.events[stored.ID] = &stored
	return event
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.Version = 1
	r.put(event)
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copy := *stored
	return &copy, nil
}

func (r *fakeEventRepo) List(ctx context.Context, filter repositories.ListEventsFilter) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []models.Event
	for _, e := range r.events {
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		events = append(events, *e)
	}
	return events, nil
}

func (r *fakeEventRepo) UpdateParticipants(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	stored.Participants = append([]string(nil), event.Participants...)
	return nil
}

func (r *fakeEventRepo) UpdateOutcome(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextUpdateOutcome != nil {
		err := r.failNextUpdateOutcome
		r.failNextUpdateOutcome = nil
		return err
	}
	stored, ok := r.events[event.ID]
	if !ok {
		return repositories.ErrEventNotFound
	}
	if stored.Version != event.Version {
		return repositories.ErrEventVersionConflict
	}
	updated := *event
	updated.Version = stored.Version + 1
	r.events[event.ID] = &updated
	event.Version = updated.Version
	return nil
}

func (r *fakeEventRepo) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	stored.BannerKey = bannerKey
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]*models.User{}}
}

func (r *fakeUserRepo) put(user models.User) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	stored := user
	r.users[stored.ID] = &stored
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	for _, u := range r.users {
		if u.Username == user.Username {
			r.mu.Unlock()
			return repositories.ErrUserUsernameConflict
		}
		if user.Email != "" && u.Email == user.Email {
			r.mu.Unlock()
			return repositories.ErrUserEmailConflict
		}
	}
	r.mu.Unlock()
	*user = r.put(*user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copy := *stored
	return &copy, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{nextID: 1, teams: map[int]*models.Team{}}
}

func (r *fakeTeamRepo) put(team models.Team) models.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	if team.ID == 0 {
		team.ID = r.nextID
		r.nextID++
	} else if team.ID >= r.nextID {
		r.nextID = team.ID + 1
	}
	stored := team
	stored.MemberIDs = append([]int(nil), team.MemberIDs...)
	r.teams[stored.ID] = &stored
	return team
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	for _, t := range r.teams {
		if t.Name == team.Name {
			r.mu.Unlock()
			return repositories.ErrTeamNameConflict
		}
	}
	r.mu.Unlock()
	*team = r.put(*team)
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copy := *stored
	copy.MemberIDs = append([]int(nil), stored.MemberIDs...)
	return &copy, nil
}

func (r *fakeTeamRepo) ListByIDs(ctx context.Context, ids []int) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var teams []models.Team
	for _, id := range ids {
		if t, ok := r.teams[id]; ok {
			teams = append(teams, *t)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) UpdateMembers(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.teams[team.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.MemberIDs = append([]int(nil), team.MemberIDs...)
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

// fakePublisher records everything broadcast during a test.
type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	Room    string
	Message interface{}
}

func (p *fakePublisher) BroadcastToRoom(roomID string, message interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Room: roomID, Message: message})
}

func (p *fakePublisher) published() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

// fakeUploader is an in-memory FileUploader.
type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
