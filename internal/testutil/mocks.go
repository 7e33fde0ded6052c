package testutil

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

type MockCall struct {
	Method string
	Args   []interface{}
}

// callLog records calls safely from concurrent goroutines
type callLog struct {
	mu    sync.Mutex
	Calls []MockCall
}

func (l *callLog) record(method string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns how many times method was called
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Ensure mocks implement their interfaces
var (
	_ repositories.PoolRepository       = (*MockPoolRepository)(nil)
	_ repositories.ExplorerRepository   = (*MockExplorerRepository)(nil)
	_ repositories.ChainReader          = (*MockChainReader)(nil)
	_ repositories.LockerRegistry       = (*MockLockerRegistry)(nil)
	_ repositories.AssessmentRepository = (*MockAssessmentRepository)(nil)
	_ repositories.ChatCompleter        = (*MockChatCompleter)(nil)
	_ repositories.ForkLauncher         = (*MockForkLauncher)(nil)
	_ repositories.ForkSession          = (*MockForkSession)(nil)
)

// MockPoolRepository is a mock implementation of PoolRepository
type MockPoolRepository struct {
	callLog
	mu      sync.RWMutex
	pools   map[poolQuery][]entities.PoolInfo
	holders map[string][]entities.HolderEntry

	// Function hooks for custom behavior
	TopPoolsFunc         func(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error)
	LiquidityHoldersFunc func(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) ([]entities.HolderEntry, error)
}

type poolQuery struct {
	dex      entities.DEX
	position entities.TokenPosition
}

func NewMockPoolRepository() *MockPoolRepository {
	return &MockPoolRepository{
		pools:   make(map[poolQuery][]entities.PoolInfo),
		holders: make(map[string][]entities.HolderEntry),
	}
}

// AddPools registers pools; the DEX and target position are read from each pool
func (m *MockPoolRepository) AddPools(pools ...entities.PoolInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pools {
		pos := entities.PositionToken1
		if p.IsTargetToken0 {
			pos = entities.PositionToken0
		}
		key := poolQuery{dex: p.DEX, position: pos}
		m.pools[key] = append(m.pools[key], p)
	}
}

// SetLiquidityHolders registers LP holders for a pool address
func (m *MockPoolRepository) SetLiquidityHolders(pool string, holders ...entities.HolderEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[strings.ToLower(pool)] = holders
}

func (m *MockPoolRepository) TopPools(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error) {
	m.record("TopPools", chain, dex, token, position)

	if m.TopPoolsFunc != nil {
		return m.TopPoolsFunc(ctx, chain, dex, token, position)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.PoolInfo, 0)
	for _, p := range m.pools[poolQuery{dex: dex, position: position}] {
		if entities.SameAddress(p.TargetToken(), token) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPoolRepository) LiquidityHolders(ctx context.Context, chain entities.Chain, pool *entities.PoolInfo) ([]entities.HolderEntry, error) {
	m.record("LiquidityHolders", chain, pool)

	if m.LiquidityHoldersFunc != nil {
		return m.LiquidityHoldersFunc(ctx, chain, pool)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holders[strings.ToLower(pool.Address)], nil
}

// MockExplorerRepository is a mock implementation of ExplorerRepository
type MockExplorerRepository struct {
	callLog

	Source  *entities.ContractSource
	Profile *entities.TokenProfile
	Holders []entities.HolderEntry

	GetSourceCodeFunc   func(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error)
	GetTokenProfileFunc func(ctx context.Context, chain entities.Chain, address string) (*entities.TokenProfile, error)
	GetTokenHoldersFunc func(ctx context.Context, chain entities.Chain, token string, limit int) ([]entities.HolderEntry, error)
}

func NewMockExplorerRepository() *MockExplorerRepository {
	return &MockExplorerRepository{
		Source:  &entities.ContractSource{},
		Profile: &entities.TokenProfile{},
	}
}

func (m *MockExplorerRepository) GetSourceCode(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error) {
	m.record("GetSourceCode", chain, address)
	if m.GetSourceCodeFunc != nil {
		return m.GetSourceCodeFunc(ctx, chain, address)
	}
	return m.Source, nil
}

func (m *MockExplorerRepository) GetTokenProfile(ctx context.Context, chain entities.Chain, address string) (*entities.TokenProfile, error) {
	m.record("GetTokenProfile", chain, address)
	if m.GetTokenProfileFunc != nil {
		return m.GetTokenProfileFunc(ctx, chain, address)
	}
	return m.Profile, nil
}

func (m *MockExplorerRepository) GetTokenHolders(ctx context.Context, chain entities.Chain, token string, limit int) ([]entities.HolderEntry, error) {
	m.record("GetTokenHolders", chain, token, limit)
	if m.GetTokenHoldersFunc != nil {
		return m.GetTokenHoldersFunc(ctx, chain, token, limit)
	}
	return m.Holders, nil
}

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	callLog
	mu       sync.RWMutex
	tokens   map[string]*entities.Token
	supplies map[string]*big.Int

	TokenMetadataFunc func(ctx context.Context, chain entities.Chain, token string) (*entities.Token, error)
	TotalSupplyFunc   func(ctx context.Context, chain entities.Chain, asset string) (*big.Int, error)
}

func NewMockChainReader() *MockChainReader {
	return &MockChainReader{
		tokens:   make(map[string]*entities.Token),
		supplies: make(map[string]*big.Int),
	}
}

// AddToken registers token metadata and its total supply
func (m *MockChainReader) AddToken(token entities.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := strings.ToLower(token.Address)
	m.tokens[addr] = &token
	if token.TotalSupply != nil {
		m.supplies[addr] = token.TotalSupply
	}
}

// SetTotalSupply registers the total supply of any asset, e.g. an LP token
func (m *MockChainReader) SetTotalSupply(asset string, supply *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[strings.ToLower(asset)] = supply
}

func (m *MockChainReader) TokenMetadata(ctx context.Context, chain entities.Chain, token string) (*entities.Token, error) {
	m.record("TokenMetadata", chain, token)
	if m.TokenMetadataFunc != nil {
		return m.TokenMetadataFunc(ctx, chain, token)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[strings.ToLower(token)]
	if !ok {
		return nil, errors.New("token not found")
	}
	return t, nil
}

func (m *MockChainReader) TotalSupply(ctx context.Context, chain entities.Chain, asset string) (*big.Int, error) {
	m.record("TotalSupply", chain, asset)
	if m.TotalSupplyFunc != nil {
		return m.TotalSupplyFunc(ctx, chain, asset)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.supplies[strings.ToLower(asset)]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return s, nil
}

// MockLockerRegistry is a mock implementation of LockerRegistry
type MockLockerRegistry struct {
	lockers map[string]bool
}

// NewMockLockerRegistry treats the zero and dead addresses plus lockers as locked
func NewMockLockerRegistry(lockers ...string) *MockLockerRegistry {
	m := &MockLockerRegistry{lockers: map[string]bool{
		ZeroAddress: true,
		DeadAddress: true,
	}}
	for _, l := range lockers {
		m.lockers[strings.ToLower(l)] = true
	}
	return m
}

func (m *MockLockerRegistry) IsLockerOrBurn(chain entities.Chain, address string) bool {
	return m.lockers[strings.ToLower(address)]
}

// MockAssessmentRepository is a mock implementation of AssessmentRepository
type MockAssessmentRepository struct {
	callLog
	mu      sync.RWMutex
	reports []entities.AssessmentReport
	nextID  int64

	SaveFunc       func(ctx context.Context, report *entities.AssessmentReport) error
	GetLatestFunc  func(ctx context.Context, chain entities.Chain, tokenAddress string) (*entities.AssessmentReport, error)
	ListRecentFunc func(ctx context.Context, limit int) ([]entities.AssessmentReport, error)
}

func NewMockAssessmentRepository() *MockAssessmentRepository {
	return &MockAssessmentRepository{nextID: 1}
}

func (m *MockAssessmentRepository) Save(ctx context.Context, report *entities.AssessmentReport) error {
	m.record("Save", report)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, report)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = m.nextID
	m.nextID++
	m.reports = append(m.reports, *report)
	return nil
}

func (m *MockAssessmentRepository) GetLatest(ctx context.Context, chain entities.Chain, tokenAddress string) (*entities.AssessmentReport, error) {
	m.record("GetLatest", chain, tokenAddress)
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, chain, tokenAddress)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *entities.AssessmentReport
	for i := range m.reports {
		r := &m.reports[i]
		if r.CheckList.Chain != chain || !entities.SameAddress(r.CheckList.Address, tokenAddress) {
			continue
		}
		if latest == nil || !r.AssessedAt.Before(latest.AssessedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (m *MockAssessmentRepository) ListRecent(ctx context.Context, limit int) ([]entities.AssessmentReport, error) {
	m.record("ListRecent", limit)
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entities.AssessmentReport, len(m.reports))
	copy(out, m.reports)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AssessedAt.After(out[j].AssessedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockChatCompleter is a mock implementation of ChatCompleter.
// Responses are matched by the first system-prompt substring found in ResponsesByPersona.
type MockChatCompleter struct {
	callLog
	mu sync.RWMutex

	Limit              int
	Provider           string
	Response           string
	ResponsesByPersona map[string]string

	CompleteFunc func(ctx context.Context, system, user string) (string, error)
}

func NewMockChatCompleter(response string) *MockChatCompleter {
	return &MockChatCompleter{
		Limit:              10000,
		Provider:           "mock",
		Response:           response,
		ResponsesByPersona: make(map[string]string),
	}
}

func (m *MockChatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.record("Complete", system, user)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for marker, resp := range m.ResponsesByPersona {
		if strings.Contains(system, marker) {
			return resp, nil
		}
	}
	return m.Response, nil
}

func (m *MockChatCompleter) ContentLimit() int {
	return m.Limit
}

func (m *MockChatCompleter) ProviderName() string {
	return m.Provider
}

// MockForkLauncher is a mock implementation of ForkLauncher
type MockForkLauncher struct {
	callLog
	Session *MockForkSession

	LaunchFunc func(ctx context.Context, chain entities.Chain) (repositories.ForkSession, error)
}

func NewMockForkLauncher(session *MockForkSession) *MockForkLauncher {
	return &MockForkLauncher{Session: session}
}

func (m *MockForkLauncher) Launch(ctx context.Context, chain entities.Chain) (repositories.ForkSession, error) {
	m.record("Launch", chain)
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, chain)
	}
	return m.Session, nil
}

// MockForkSession is a mock implementation of ForkSession.
// By default it behaves like a healthy pool: quotes succeed and swaps mine.
type MockForkSession struct {
	callLog
	mu     sync.Mutex
	closed int

	BuyQuote  *big.Int
	SellQuote *big.Int
	Balance   *big.Int

	FundErr      error
	QuoteBuyErr  error
	BuyErr       error
	ApproveErr   error
	QuoteSellErr error
	SellErr      error

	// Delay blocks Buy until it elapses or ctx is done
	Delay time.Duration
}

func NewMockForkSession() *MockForkSession {
	return &MockForkSession{
		BuyQuote:  big.NewInt(1_000_000),
		SellQuote: big.NewInt(9_000_000_000_000_000),
		Balance:   big.NewInt(990_000),
	}
}

func (m *MockForkSession) Fund(ctx context.Context, amount *big.Int) error {
	m.record("Fund", amount)
	return m.FundErr
}

func (m *MockForkSession) QuoteBuy(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error) {
	m.record("QuoteBuy", pool, amountIn)
	if m.QuoteBuyErr != nil {
		return nil, m.QuoteBuyErr
	}
	return m.BuyQuote, nil
}

func (m *MockForkSession) Buy(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error) {
	m.record("Buy", pool, amountIn, minOut)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.BuyErr != nil {
		return "", m.BuyErr
	}
	return "0xbuy", nil
}

func (m *MockForkSession) TokenBalance(ctx context.Context, token string) (*big.Int, error) {
	m.record("TokenBalance", token)
	return m.Balance, nil
}

func (m *MockForkSession) Approve(ctx context.Context, pool *entities.PoolInfo, amount *big.Int) (string, error) {
	m.record("Approve", pool, amount)
	if m.ApproveErr != nil {
		return "", m.ApproveErr
	}
	return "0xapprove", nil
}

func (m *MockForkSession) QuoteSell(ctx context.Context, pool *entities.PoolInfo, amountIn *big.Int) (*big.Int, error) {
	m.record("QuoteSell", pool, amountIn)
	if m.QuoteSellErr != nil {
		return nil, m.QuoteSellErr
	}
	return m.SellQuote, nil
}

func (m *MockForkSession) Sell(ctx context.Context, pool *entities.PoolInfo, amountIn, minOut *big.Int) (string, error) {
	m.record("Sell", pool, amountIn, minOut)
	if m.SellErr != nil {
		return "", m.SellErr
	}
	return "0xsell", nil
}

func (m *MockForkSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Closed returns how many times Close was called
func (m *MockForkSession) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	callLog
	mu sync.RWMutex

	Healthy bool
	Error   error
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Healthy: healthy,
		Error:   err,
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.record("HealthCheck")

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Error
}

func (m *MockHealthChecker) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Healthy = healthy
	if healthy {
		m.Error = nil
	} else {
		m.Error = errors.New("health check failed")
	}
}
