package meeting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/models"
	"github.com/handwave-community/handwave/internal/zoom"
)

// fakeStore implements all three repository interfaces in memory so
// End can cascade the way the database does.
type fakeStore struct {
	mu           sync.Mutex
	meetings     map[int64]*models.Meeting
	messages     map[string]*models.MeetingMessage
	participants map[int64]map[string]*models.Participant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meetings:     make(map[int64]*models.Meeting),
		messages:     make(map[string]*models.MeetingMessage),
		participants: make(map[int64]map[string]*models.Participant),
	}
}

func (s *fakeStore) Create(ctx context.Context, m *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.meetings[m.ID] = &cp
	return nil
}

func (s *fakeStore) CreateWithMessage(ctx context.Context, m *models.Meeting, msg *models.MeetingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, bc := *m, *msg
	s.meetings[m.ID] = &mc
	s.messages[msg.MessageID] = &bc
	return nil
}

func (s *fakeStore) Get(ctx context.Context, meetingID int64) (*models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) Exists(ctx context.Context, meetingID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.meetings[meetingID]
	return ok, nil
}

func (s *fakeStore) End(ctx context.Context, meetingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meetings, meetingID)
	for id, msg := range s.messages {
		if msg.MeetingID == meetingID {
			delete(s.messages, id)
		}
	}
	delete(s.participants, meetingID)
	return nil
}

func (s *fakeStore) SetHostID(ctx context.Context, meetingID int64, hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[meetingID]; ok {
		m.HostID = hostID
	}
	return nil
}

func (s *fakeStore) MarkSetUp(ctx context.Context, meetingID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[meetingID]; ok {
		m.SetupAt = &at
	}
	return nil
}

func (s *fakeStore) LatestPendingForOwner(ctx context.Context, owner string) (*models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Meeting
	for _, m := range s.meetings {
		if m.Owner != owner || m.SetupAt != nil {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Meeting
	for _, m := range s.meetings {
		if m.SetupAt == nil && m.CreatedAt.Before(cutoff) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateMessage(ctx context.Context, msg *models.MeetingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.MessageID] = &cp
	return nil
}

// MessageRepository

func (s *fakeStore) GetMessage(ctx context.Context, messageID string) (*models.MeetingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (s *fakeStore) ListByMeeting(ctx context.Context, meetingID int64) ([]models.MeetingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MeetingMessage, 0)
	for _, msg := range s.messages {
		if msg.MeetingID == meetingID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (s *fakeStore) Remove(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, messageID)
	return nil
}

func (s *fakeStore) Swap(ctx context.Context, oldID string, msg *models.MeetingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, oldID)
	cp := *msg
	s.messages[msg.MessageID] = &cp
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.participants[p.MeetingID]
	if !ok {
		byName = make(map[string]*models.Participant)
		s.participants[p.MeetingID] = byName
	}
	cp := *p
	if existing, ok := byName[p.Name]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = time.Now().UTC()
	}
	byName[p.Name] = &cp
	return nil
}

func (s *fakeStore) GetParticipant(ctx context.Context, meetingID int64, name string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[meetingID][name]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListParticipants(ctx context.Context, meetingID int64) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, 0)
	for _, p := range s.participants[meetingID] {
		out = append(out, *p)
	}
	// created_at ascending, like the SQL ORDER BY.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *fakeStore) RemoveParticipant(ctx context.Context, meetingID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants[meetingID], name)
	return nil
}

// Interface adapters: the repository interfaces use overlapping method
// names (Create, Get, Remove...), so the single fakeStore is wrapped in
// thin views, one per interface.

type meetingsView struct{ *fakeStore }
type messagesView struct{ *fakeStore }
type participantsView struct{ *fakeStore }

func (v messagesView) Create(ctx context.Context, msg *models.MeetingMessage) error {
	return v.CreateMessage(ctx, msg)
}

func (v messagesView) Get(ctx context.Context, messageID string) (*models.MeetingMessage, error) {
	return v.GetMessage(ctx, messageID)
}

func (v participantsView) Get(ctx context.Context, meetingID int64, name string) (*models.Participant, error) {
	return v.GetParticipant(ctx, meetingID, name)
}

func (v participantsView) ListByMeeting(ctx context.Context, meetingID int64) ([]models.Participant, error) {
	return v.ListParticipants(ctx, meetingID)
}

func (v participantsView) Remove(ctx context.Context, meetingID int64, name string) error {
	return v.RemoveParticipant(ctx, meetingID, name)
}

// fakeProvider returns canned meetings and counts calls.
type fakeProvider struct {
	mu        sync.Mutex
	created   *zoom.Meeting
	known     map[int64]*zoom.Meeting
	createErr error
	creates   int
	gets      int
}

func (p *fakeProvider) CreateMeeting(ctx context.Context, owner, topic string) (*zoom.Meeting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.created, nil
}

func (p *fakeProvider) GetMeeting(ctx context.Context, meetingID int64) (*zoom.Meeting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	m, ok := p.known[meetingID]
	if !ok {
		return nil, zoom.ErrNotFound
	}
	return m, nil
}

// fakeSurface records every outbound chat call.
type sentMessage struct {
	ChannelID string
	Msg       chat.Message
	Deleted   bool
}

type fakeSurface struct {
	mu        sync.Mutex
	nextID    int
	messages  map[string]*sentMessage
	dms       map[string][]chat.Message
	reactions map[string][]string
	cleared   map[string]bool
	deleteErr error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		messages:  make(map[string]*sentMessage),
		dms:       make(map[string][]chat.Message),
		reactions: make(map[string][]string),
		cleared:   make(map[string]bool),
	}
}

func (s *fakeSurface) Send(ctx context.Context, channelID string, msg chat.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("msg-%d", s.nextID)
	s.messages[id] = &sentMessage{ChannelID: channelID, Msg: msg}
	return id, nil
}

func (s *fakeSurface) Edit(ctx context.Context, channelID, messageID string, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.messages[messageID]
	if !ok || existing.Deleted {
		return fmt.Errorf("edit: message %s gone", messageID)
	}
	existing.Msg = msg
	return nil
}

func (s *fakeSurface) Delete(ctx context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if existing, ok := s.messages[messageID]; ok {
		existing.Deleted = true
	}
	return nil
}

func (s *fakeSurface) React(ctx context.Context, channelID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[messageID] = append(s.reactions[messageID], emoji)
	return nil
}

func (s *fakeSurface) ClearReactions(ctx context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared[messageID] = true
	return nil
}

func (s *fakeSurface) SendDirect(ctx context.Context, userID string, msg chat.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dms[userID] = append(s.dms[userID], msg)
	return "dm-1", nil
}

func (s *fakeSurface) message(id string) sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		return *m
	}
	return sentMessage{}
}

func (s *fakeSurface) liveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, m := range s.messages {
		if !m.Deleted {
			out = append(out, id)
		}
	}
	return out
}

// newTestManager wires a manager over the fakes with one operator.
func newTestManager(cfg Config) (*Manager, *fakeStore, *fakeProvider, *fakeSurface) {
	store := newFakeStore()
	provider := &fakeProvider{known: make(map[int64]*zoom.Meeting)}
	surface := newFakeSurface()

	if cfg.RepostDelay == 0 {
		cfg.RepostDelay = time.Millisecond
	}
	if cfg.MaxListed == 0 {
		cfg.MaxListed = 15
	}
	if cfg.CloseEmoji == "" {
		cfg.CloseEmoji = "🛑"
	}
	if cfg.RepostEmoji == "" {
		cfg.RepostEmoji = "📌"
	}
	if cfg.Operators == nil {
		cfg.Operators = []Operator{{ChatID: "alice-chat", ZoomOwner: "alice@x", Email: "alice@x"}}
	}

	mgr := NewManager(
		meetingsView{store}, messagesView{store}, participantsView{store},
		provider, surface, cfg, zap.NewNop(),
	)
	return mgr, store, provider, surface
}
