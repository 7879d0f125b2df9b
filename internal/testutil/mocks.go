package testutil

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/domain"
	"github.com/dafibh/autolot/autolot-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockQuoteRepository is a mock implementation of domain.QuoteRepository
type MockQuoteRepository struct {
	Quotes   map[uuid.UUID]*domain.FinancingQuote
	CreateFn func(quote *domain.FinancingQuote) (*domain.FinancingQuote, error)
	now      time.Time
}

// NewMockQuoteRepository creates a new MockQuoteRepository
func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{
		Quotes: make(map[uuid.UUID]*domain.FinancingQuote),
		now:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Create stores a quote, assigning its ID and timestamps
func (m *MockQuoteRepository) Create(quote *domain.FinancingQuote) (*domain.FinancingQuote, error) {
	if m.CreateFn != nil {
		return m.CreateFn(quote)
	}
	// Strictly increasing timestamps keep listing order deterministic
	m.now = m.now.Add(time.Second)
	quote.ID = uuid.New()
	quote.CreatedAt = m.now
	quote.UpdatedAt = m.now
	m.Quotes[quote.ID] = quote
	return quote, nil
}

// GetByID retrieves a live quote within a dealership
func (m *MockQuoteRepository) GetByID(dealershipID int32, id uuid.UUID) (*domain.FinancingQuote, error) {
	quote, ok := m.Quotes[id]
	if !ok || quote.DealershipID != dealershipID || quote.DeletedAt != nil {
		return nil, domain.ErrQuoteNotFound
	}
	return quote, nil
}

// GetByListing retrieves the live quotes of a listing, newest first
func (m *MockQuoteRepository) GetByListing(dealershipID int32, listingID int32) ([]*domain.FinancingQuote, error) {
	quotes := make([]*domain.FinancingQuote, 0)
	for _, quote := range m.Quotes {
		if quote.DealershipID == dealershipID && quote.ListingID == listingID && quote.DeletedAt == nil {
			quotes = append(quotes, quote)
		}
	}
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].CreatedAt.After(quotes[j].CreatedAt)
	})
	return quotes, nil
}

// SoftDelete marks a quote as deleted
func (m *MockQuoteRepository) SoftDelete(dealershipID int32, id uuid.UUID) error {
	quote, ok := m.Quotes[id]
	if !ok || quote.DealershipID != dealershipID || quote.DeletedAt != nil {
		return domain.ErrQuoteNotFound
	}
	now := time.Now()
	quote.DeletedAt = &now
	return nil
}

// AddQuote adds a quote directly for test setup
func (m *MockQuoteRepository) AddQuote(quote *domain.FinancingQuote) {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	m.Quotes[quote.ID] = quote
}

// MockDealershipRepository is a mock implementation of domain.DealershipRepository
type MockDealershipRepository struct {
	Dealerships map[int32]*domain.Dealership
	ByAuth0ID   map[string]*domain.Dealership
	GetByIDErr  error
}

// NewMockDealershipRepository creates a new MockDealershipRepository
func NewMockDealershipRepository() *MockDealershipRepository {
	return &MockDealershipRepository{
		Dealerships: make(map[int32]*domain.Dealership),
		ByAuth0ID:   make(map[string]*domain.Dealership),
	}
}

// GetByAuth0ID retrieves a dealership by its owner's Auth0 ID
func (m *MockDealershipRepository) GetByAuth0ID(auth0ID string) (*domain.Dealership, error) {
	if dealership, ok := m.ByAuth0ID[auth0ID]; ok {
		return dealership, nil
	}
	return nil, domain.ErrDealershipNotFound
}

// GetByID retrieves a dealership by ID
func (m *MockDealershipRepository) GetByID(id int32) (*domain.Dealership, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	if dealership, ok := m.Dealerships[id]; ok {
		return dealership, nil
	}
	return nil, domain.ErrDealershipNotFound
}

// AddDealership adds a dealership directly for test setup
func (m *MockDealershipRepository) AddDealership(dealership *domain.Dealership) {
	m.Dealerships[dealership.ID] = dealership
	if dealership.Auth0ID != "" {
		m.ByAuth0ID[dealership.Auth0ID] = dealership
	}
}

// MockQuoteCache is an in-memory implementation of domain.QuoteCache
type MockQuoteCache struct {
	mu      sync.Mutex
	Entries map[string][]byte
	TTLs    map[string]time.Duration
	GetErr  error
	SetErr  error
	Gets    int
	Sets    int
}

// NewMockQuoteCache creates a new MockQuoteCache
func NewMockQuoteCache() *MockQuoteCache {
	return &MockQuoteCache{
		Entries: make(map[string][]byte),
		TTLs:    make(map[string]time.Duration),
	}
}

// Get returns the cached value for key
func (m *MockQuoteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	val, ok := m.Entries[key]
	return val, ok, nil
}

// Set stores value under key
func (m *MockQuoteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Entries[key] = value
	m.TTLs[key] = ttl
	return nil
}

// UploadedObject records one call to MockExportRepository.Upload
type UploadedObject struct {
	Path        string
	ContentType string
	Data        []byte
}

// MockExportRepository is an in-memory implementation of storage.ExportRepository
type MockExportRepository struct {
	Uploads    []UploadedObject
	UploadErr  error
	PresignErr error
	Expiries   []time.Duration
}

// NewMockExportRepository creates a new MockExportRepository
func NewMockExportRepository() *MockExportRepository {
	return &MockExportRepository{}
}

// Upload records the object and returns its path
func (m *MockExportRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Uploads = append(m.Uploads, UploadedObject{Path: objectPath, ContentType: contentType, Data: buf})
	return objectPath, nil
}

// GeneratePresignedURL returns a fake signed URL for objectPath
func (m *MockExportRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	m.Expiries = append(m.Expiries, expiry)
	return "https://exports.test/" + objectPath + "?signature=abc", nil
}

// PublishedEvent records one call to MockEventPublisher.Publish
type PublishedEvent struct {
	DealershipID int32
	Event        websocket.Event
}

// MockEventPublisher captures published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(dealershipID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{DealershipID: dealershipID, Event: event})
}
