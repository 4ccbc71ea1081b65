package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"
)

type emitted struct {
	event   string
	payload interface{}
}

type fakeSocket struct {
	mu         sync.Mutex
	connectErr error
	connected  bool
	closed     bool
	handlers   map[string]map[int]func(json.RawMessage)
	next       int
	emits      []emitted
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{handlers: make(map[string]map[int]func(json.RawMessage))}
}

func (f *fakeSocket) Connect(ctx context.Context) error {
	f.mu.Lock()
	if f.connectErr != nil {
		f.mu.Unlock()
		return f.connectErr
	}
	already := f.connected
	f.connected = true
	f.mu.Unlock()

	if !already {
		f.Fire("connect", nil)
	}
	return nil
}

func (f *fakeSocket) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSocket) On(event string, handler func(json.RawMessage)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]func(json.RawMessage))
	}
	f.handlers[event][id] = handler
	return func() {
		f.mu.Lock()
		delete(f.handlers[event], id)
		f.mu.Unlock()
	}
}

func (f *fakeSocket) Emit(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return errors.Transport("not connected", nil)
	}
	f.emits = append(f.emits, emitted{event, payload})
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	f.connected = false
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Fire delivers payload to every handler of event, as the read loop would.
func (f *fakeSocket) Fire(event string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		data, _ = json.Marshal(payload)
	}

	f.mu.Lock()
	var hs []func(json.RawMessage)
	for _, h := range f.handlers[event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()

	for _, h := range hs {
		h(data)
	}
}

func (f *fakeSocket) Emitted(event string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []interface{}
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (f *fakeSocket) HandlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, hs := range f.handlers {
		n += len(hs)
	}
	return n
}

type fakeChatRepo struct {
	mu          sync.Mutex
	recent      func(ctx context.Context, roomID int64) ([]entity.ChatMessage, error)
	older       func(ctx context.Context, roomID, cursor int64) ([]entity.ChatMessage, error)
	upload      func(ctx context.Context, u entity.ImageUpload) (string, error)
	deleteRoom  func(ctx context.Context, roomID int64) error
	nextRoomID  int64
	created     []entity.ChatRoom
	olderCalls  []int64
	uploadCalls int
	deleteCalls int
}

func (f *fakeChatRepo) Recent(ctx context.Context, roomID int64) ([]entity.ChatMessage, error) {
	if f.recent == nil {
		return nil, nil
	}
	return f.recent(ctx, roomID)
}

func (f *fakeChatRepo) Older(ctx context.Context, roomID, cursor int64) ([]entity.ChatMessage, error) {
	f.mu.Lock()
	f.olderCalls = append(f.olderCalls, cursor)
	f.mu.Unlock()
	if f.older == nil {
		return nil, nil
	}
	return f.older(ctx, roomID, cursor)
}

func (f *fakeChatRepo) UploadImage(ctx context.Context, u entity.ImageUpload) (string, error) {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	return f.upload(ctx, u)
}

func (f *fakeChatRepo) CreateRoom(ctx context.Context, room entity.ChatRoom) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRoomID++
	f.created = append(f.created, room)
	return f.nextRoomID, nil
}

func (f *fakeChatRepo) DeleteRoom(ctx context.Context, roomID int64) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	if f.deleteRoom == nil {
		return nil
	}
	return f.deleteRoom(ctx, roomID)
}

type fakeListingRepo struct {
	mu            sync.Mutex
	browse        func(ctx context.Context, f entity.FilterState) ([]entity.Listing, error)
	search        func(ctx context.Context, keyword string) ([]entity.Listing, error)
	listings      map[int64]entity.Listing
	toggle        func(ctx context.Context, id int64) (bool, error)
	complete      func(ctx context.Context, itemID int64, buyer entity.UserID) error
	browseCalls   []entity.FilterState
	searchCalls   []string
	toggleCalls   int
	completeCalls int
	updatedPrice  int64
	deleted       []int64
}

func (f *fakeListingRepo) Browse(ctx context.Context, filter entity.FilterState) ([]entity.Listing, error) {
	f.mu.Lock()
	f.browseCalls = append(f.browseCalls, filter)
	fn := f.browse
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, filter)
}

func (f *fakeListingRepo) Search(ctx context.Context, keyword string) ([]entity.Listing, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, keyword)
	f.mu.Unlock()
	if f.search == nil {
		return nil, nil
	}
	return f.search(ctx, keyword)
}

func (f *fakeListingRepo) GetByID(ctx context.Context, id int64) (*entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, errors.NotFound("listing", nil)
	}
	return &l, nil
}

func (f *fakeListingRepo) Update(ctx context.Context, id int64, form entity.ListingForm, price int64) error {
	f.mu.Lock()
	f.updatedPrice = price
	f.mu.Unlock()
	return nil
}

func (f *fakeListingRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeListingRepo) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	f.toggleCalls++
	fn := f.toggle
	f.mu.Unlock()
	return fn(ctx, id)
}

func (f *fakeListingRepo) CompleteTransaction(ctx context.Context, itemID int64, buyer entity.UserID) error {
	f.mu.Lock()
	f.completeCalls++
	f.mu.Unlock()
	if f.complete == nil {
		return nil
	}
	return f.complete(ctx, itemID, buyer)
}

type fakeUserRepo struct {
	mu       sync.Mutex
	session  entity.Session
	err      error
	sold     func(page int) (*entity.SoldItemsPage, error)
	myPage   *entity.MyPage
	whoCalls int
}

func (f *fakeUserRepo) setSession(s entity.Session) {
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
}

func (f *fakeUserRepo) WhoAmI(ctx context.Context) (entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whoCalls++
	return f.session, f.err
}

func (f *fakeUserRepo) MyPage(ctx context.Context) (*entity.MyPage, error) {
	if f.myPage == nil {
		return nil, errors.Application("fail")
	}
	return f.myPage, nil
}

func (f *fakeUserRepo) SoldItems(ctx context.Context, page int) (*entity.SoldItemsPage, error) {
	return f.sold(page)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, payload interface{}) {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
}

func (p *recordingPublisher) Count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}
