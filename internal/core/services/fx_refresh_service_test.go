package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
	portsrepo "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/repositories"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/services"
)

// --- Mock RateCache ---
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) GetEntry(ctx context.Context, baseCurrency string) (*domain.CacheEntry, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheEntry), args.Error(1)
}

func (m *MockRateCache) GetPairRate(ctx context.Context, baseCurrency, quoteCurrency string) (float64, error) {
	args := m.Called(ctx, baseCurrency, quoteCurrency)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockRateCache) PutEntry(ctx context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	args := m.Called(ctx, entry, ttl)
	return args.Error(0)
}

// --- Mock RateHistoryRepository ---
type MockRateHistory struct {
	mock.Mock
}

func (m *MockRateHistory) SaveRates(ctx context.Context, records []domain.HistoryRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockRateHistory) FindRecentRates(ctx context.Context, fromCode, toCode string, limit int) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx, fromCode, toCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryRecord), args.Error(1)
}

// --- Mock DistributedLocker ---
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (*domain.LockHandle, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LockHandle), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, handle *domain.LockHandle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

// --- Mock RateProvider ---
type MockProvider struct {
	mock.Mock
	name domain.Provider
}

func (m *MockProvider) Name() domain.Provider {
	return m.name
}

func (m *MockProvider) Fetch(ctx context.Context, baseCurrency string) (*domain.ProviderRates, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderRates), args.Error(1)
}

// fakeRegistry resolves every identifier to the same adapter.
type fakeRegistry struct {
	provider portsrepo.RateProvider
}

func (r fakeRegistry) Resolve(_ domain.Provider) (portsrepo.RateProvider, error) {
	return r.provider, nil
}

// --- Test Suite ---
type FxRefreshServiceTestSuite struct {
	suite.Suite
	mockCache    *MockRateCache
	mockHistory  *MockRateHistory
	mockLocker   *MockLocker
	mockProvider *MockProvider
	service      *services.FxRefreshService
}

func (suite *FxRefreshServiceTestSuite) SetupTest() {
	suite.mockCache = new(MockRateCache)
	suite.mockHistory = new(MockRateHistory)
	suite.mockLocker = new(MockLocker)
	suite.mockProvider = &MockProvider{name: domain.ProviderOpenExchangeRates}

	suite.service = services.NewFxRefreshService(
		suite.mockCache,
		suite.mockHistory,
		suite.mockLocker,
		fakeRegistry{provider: suite.mockProvider},
		slog.Default(),
		services.FxRefreshConfig{
			CacheTTL:       time.Hour,
			StaleWindow:    5 * time.Minute,
			LockTTL:        60 * time.Second,
			BaseCurrencies: []string{"USD", "EUR", "GBP"},
		},
	)
}

func (suite *FxRefreshServiceTestSuite) lockHandle(key string) *domain.LockHandle {
	return &domain.LockHandle{
		Key:        key,
		LockID:     "token-a",
		AcquiredAt: time.Now(),
		TTL:        60 * time.Second,
	}
}

func (suite *FxRefreshServiceTestSuite) providerRates(base string) *domain.ProviderRates {
	return &domain.ProviderRates{
		BaseCurrency: base,
		Rates:        domain.RateTable{"EUR": 0.92, "GBP": 0.79, "JPY": 149.5},
		Timestamp:    time.Now(),
		Source:       domain.ProviderOpenExchangeRates,
	}
}

// --- Test Cases ---

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_ColdCacheFetch() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "EUR").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:EUR", 60*time.Second).Return(suite.lockHandle("fx:refresh:EUR"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "EUR").Return(suite.providerRates("EUR"), nil).Once()
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(nil).Once()
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).Return(3, nil).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "EUR"})

	suite.True(result.Success)
	suite.Equal("EUR", result.BaseCurrency)
	suite.Equal(3, result.RatesCount)
	suite.Greater(result.CacheTTL, int64(0))
	suite.True(result.SavedToDB)
	suite.Equal(domain.ProviderOpenExchangeRates, result.Provider)

	suite.mockCache.AssertExpectations(suite.T())
	suite.mockLocker.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockHistory.AssertExpectations(suite.T())
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_FreshnessShortCircuit() {
	ctx := context.Background()

	entry := &domain.CacheEntry{
		BaseCurrency: "USD",
		Rates:        domain.RateTable{"EUR": 0.92, "GBP": 0.79},
		FetchedAt:    time.Now().Add(-time.Minute),
		Source:       domain.ProviderOpenExchangeRates,
	}
	suite.mockCache.On("GetEntry", ctx, "USD").Return(entry, nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	suite.True(result.Success)
	suite.Equal(2, result.RatesCount)
	suite.False(result.SavedToDB)
	suite.Equal(entry.FetchedAt, result.RatesTimestamp)

	// The fast path must not contend for the lock or call the provider.
	suite.mockLocker.AssertNotCalled(suite.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
	suite.mockProvider.AssertNotCalled(suite.T(), "Fetch", mock.Anything, mock.Anything)
	suite.mockHistory.AssertNotCalled(suite.T(), "SaveRates", mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_StaleEntryTriggersRefresh() {
	ctx := context.Background()

	// Older than TTL-staleWindow (55m) but not yet expired.
	entry := &domain.CacheEntry{
		BaseCurrency: "USD",
		Rates:        domain.RateTable{"EUR": 0.92},
		FetchedAt:    time.Now().Add(-56 * time.Minute),
		Source:       domain.ProviderOpenExchangeRates,
	}
	suite.mockCache.On("GetEntry", ctx, "USD").Return(entry, nil).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(nil).Once()
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).Return(3, nil).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	suite.True(result.Success)
	suite.Equal(3, result.RatesCount)
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_LockContentionSkips() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(nil, apperrors.ErrLockUnavailable).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	// Contention is a deliberate non-failure.
	suite.True(result.Success)
	suite.Equal(0, result.RatesCount)
	suite.Equal("Skipped - concurrent job in progress", result.Error)

	suite.mockProvider.AssertNotCalled(suite.T(), "Fetch", mock.Anything, mock.Anything)
	suite.mockLocker.AssertNotCalled(suite.T(), "Release", mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_LockBackendFailureFailsClosed() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	backendErr := errors.New("lock unavailable: lock backend unreachable: connection refused")
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(nil, backendErr).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	// Backend failure must never proceed unguarded.
	suite.True(result.Success)
	suite.Equal(0, result.RatesCount)
	suite.mockProvider.AssertNotCalled(suite.T(), "Fetch", mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_ProviderOutage() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	fetchErr := errors.New("provider error: openexchangerates request failed: connection reset")
	suite.mockProvider.On("Fetch", ctx, "USD").Return(nil, fetchErr).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	suite.False(result.Success)
	suite.Equal(0, result.RatesCount)
	suite.False(result.SavedToDB)
	suite.Contains(result.Error, "connection reset")

	// No partial writes, and the lock is still released.
	suite.mockCache.AssertNotCalled(suite.T(), "PutEntry", mock.Anything, mock.Anything, mock.Anything)
	suite.mockHistory.AssertNotCalled(suite.T(), "SaveRates", mock.Anything, mock.Anything)
	suite.mockLocker.AssertExpectations(suite.T())
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_HistoryFailureDoesNotFailRefresh() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(nil).Once()
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).Return(0, errors.New("connection refused")).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	suite.True(result.Success)
	suite.Equal(3, result.RatesCount)
	suite.False(result.SavedToDB)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_CacheWriteFailureFailsRefresh() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(errors.New("redis down")).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "USD"})

	suite.False(result.Success)
	suite.mockHistory.AssertNotCalled(suite.T(), "SaveRates", mock.Anything, mock.Anything)
	suite.mockLocker.AssertExpectations(suite.T())
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_ForceSkipsFreshnessCheck() {
	ctx := context.Background()

	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(nil).Once()
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).Return(3, nil).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{BaseCurrency: "usd", ForceRefresh: true})

	suite.True(result.Success)
	suite.Equal("USD", result.BaseCurrency)
	suite.mockCache.AssertNotCalled(suite.T(), "GetEntry", mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_TargetCurrenciesNarrowWrites() {
	ctx := context.Background()

	suite.mockCache.On("GetEntry", ctx, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLocker.On("Acquire", ctx, "fx:refresh:USD", 60*time.Second).Return(suite.lockHandle("fx:refresh:USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()

	var cached domain.CacheEntry
	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).
		Run(func(args mock.Arguments) { cached = args.Get(1).(domain.CacheEntry) }).
		Return(nil).Once()

	var saved []domain.HistoryRecord
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]domain.HistoryRecord) }).
		Return(1, nil).Once()
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil).Once()

	result := suite.service.RefreshRates(ctx, domain.RefreshJob{
		BaseCurrency:     "USD",
		TargetCurrencies: []string{"eur"},
	})

	suite.True(result.Success)
	suite.Equal(1, result.RatesCount)
	suite.Len(cached.Rates, 1)
	suite.Contains(cached.Rates, "EUR")
	suite.Len(saved, 1)
	suite.Equal("EUR", saved[0].ToCurrencyCode)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshRates_InvalidBaseCurrency() {
	result := suite.service.RefreshRates(context.Background(), domain.RefreshJob{BaseCurrency: "DOLLARS"})

	suite.False(result.Success)
	suite.NotEmpty(result.Error)
	suite.mockLocker.AssertNotCalled(suite.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestRefreshAll_IsolatesFailures() {
	ctx := context.Background()

	// USD succeeds, EUR's provider is down, GBP succeeds.
	suite.mockCache.On("GetEntry", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)
	suite.mockLocker.On("Acquire", ctx, mock.AnythingOfType("string"), 60*time.Second).Return(suite.lockHandle("fx:refresh:x"), nil)
	suite.mockLocker.On("Release", ctx, mock.AnythingOfType("*domain.LockHandle")).Return(nil)

	suite.mockProvider.On("Fetch", ctx, "USD").Return(suite.providerRates("USD"), nil).Once()
	suite.mockProvider.On("Fetch", ctx, "EUR").Return(nil, errors.New("provider error: timeout")).Once()
	suite.mockProvider.On("Fetch", ctx, "GBP").Return(suite.providerRates("GBP"), nil).Once()

	suite.mockCache.On("PutEntry", ctx, mock.AnythingOfType("domain.CacheEntry"), time.Hour).Return(nil)
	suite.mockHistory.On("SaveRates", ctx, mock.AnythingOfType("[]domain.HistoryRecord")).Return(3, nil)

	results := suite.service.RefreshAll(ctx, false)

	suite.Len(results, 3)
	suite.True(results[0].Success)
	suite.False(results[1].Success)
	suite.Contains(results[1].Error, "timeout")
	suite.True(results[2].Success)
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *FxRefreshServiceTestSuite) TestGetLatestRates_Validation() {
	_, err := suite.service.GetLatestRates(context.Background(), "US")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FxRefreshServiceTestSuite) TestGetLatestRates_ReadsCacheOnly() {
	ctx := context.Background()
	entry := &domain.CacheEntry{BaseCurrency: "USD", Rates: domain.RateTable{"EUR": 0.92}}
	suite.mockCache.On("GetEntry", ctx, "USD").Return(entry, nil).Once()

	got, err := suite.service.GetLatestRates(ctx, "usd")

	suite.NoError(err)
	suite.Equal(entry, got)
	suite.mockLocker.AssertNotCalled(suite.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestGetRateHistory_Validation() {
	_, err := suite.service.GetRateHistory(context.Background(), "USD", "EURO", 10)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockHistory.AssertNotCalled(suite.T(), "FindRecentRates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FxRefreshServiceTestSuite) TestGetRateHistory_NormalizesCodes() {
	ctx := context.Background()
	suite.mockHistory.On("FindRecentRates", ctx, "USD", "EUR", 10).Return([]domain.HistoryRecord{}, nil).Once()

	records, err := suite.service.GetRateHistory(ctx, "usd", " eur ", 10)

	suite.NoError(err)
	suite.Empty(records)
	suite.mockHistory.AssertExpectations(suite.T())
}

func TestFxRefreshServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FxRefreshServiceTestSuite))
}
