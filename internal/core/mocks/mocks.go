package mocks

import (
	"context"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketSource is a mock implementation of ports.TicketSource
type MockTicketSource struct {
	mock.Mock
}

var _ ports.TicketSource = (*MockTicketSource)(nil)

func NewMockTicketSource() *MockTicketSource {
	return &MockTicketSource{}
}

func (m *MockTicketSource) ListActiveTickets(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

// MockTicketMirror is a mock implementation of ports.TicketMirror
type MockTicketMirror struct {
	mock.Mock
}

var _ ports.TicketMirror = (*MockTicketMirror)(nil)

func NewMockTicketMirror() *MockTicketMirror {
	return &MockTicketMirror{}
}

func (m *MockTicketMirror) ListTicketIndex(ctx context.Context) (domain.MirrorIndex, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.MirrorIndex), args.Error(1)
}

func (m *MockTicketMirror) Create(ctx context.Context, rec domain.MirrorRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockTicketMirror) Update(ctx context.Context, pageID string, rec domain.MirrorRecord) error {
	args := m.Called(ctx, pageID, rec)
	return args.Error(0)
}

func (m *MockTicketMirror) Archive(ctx context.Context, pageID string) error {
	args := m.Called(ctx, pageID)
	return args.Error(0)
}

// MockEquipmentMirror is a mock implementation of ports.EquipmentMirror
type MockEquipmentMirror struct {
	mock.Mock
}

var _ ports.EquipmentMirror = (*MockEquipmentMirror)(nil)

func NewMockEquipmentMirror() *MockEquipmentMirror {
	return &MockEquipmentMirror{}
}

func (m *MockEquipmentMirror) ListEquipment(ctx context.Context) ([]domain.EquipmentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EquipmentRecord), args.Error(1)
}

func (m *MockEquipmentMirror) SetOccupancy(ctx context.Context, update domain.EquipmentUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// MockNotifiedTagStore is a mock implementation of ports.NotifiedTagStore
type MockNotifiedTagStore struct {
	mock.Mock
}

var _ ports.NotifiedTagStore = (*MockNotifiedTagStore)(nil)

func NewMockNotifiedTagStore() *MockNotifiedTagStore {
	return &MockNotifiedTagStore{}
}

func (m *MockNotifiedTagStore) Contains(ctx context.Context, tag domain.NotifiedTag) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifiedTagStore) Add(ctx context.Context, tag domain.NotifiedTag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockNotifiedTagStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockNotifiedTagStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

var _ ports.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockCycleService is a mock implementation of ports.CycleService
type MockCycleService struct {
	mock.Mock
	kind domain.CycleKind
}

var _ ports.CycleService = (*MockCycleService)(nil)

func NewMockCycleService(kind domain.CycleKind) *MockCycleService {
	return &MockCycleService{kind: kind}
}

func (m *MockCycleService) Kind() domain.CycleKind {
	return m.kind
}

func (m *MockCycleService) Sync(ctx context.Context) (*domain.CycleReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CycleReport), args.Error(1)
}

// MockSyncPipeline is a mock implementation of ports.SyncPipeline
type MockSyncPipeline struct {
	mock.Mock
}

var _ ports.SyncPipeline = (*MockSyncPipeline)(nil)

func NewMockSyncPipeline() *MockSyncPipeline {
	return &MockSyncPipeline{}
}

func (m *MockSyncPipeline) RunCycle(ctx context.Context, kind domain.CycleKind) (*domain.CycleReport, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CycleReport), args.Error(1)
}

func (m *MockSyncPipeline) RunAll(ctx context.Context) ([]*domain.CycleReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CycleReport), args.Error(1)
}

func (m *MockSyncPipeline) Kinds() []domain.CycleKind {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.CycleKind)
}

func (m *MockSyncPipeline) LastReports() []*domain.CycleReport {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.CycleReport)
}
