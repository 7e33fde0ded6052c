package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
	"github.com/chain-shield/tokencheck-backend-sub000/internal/testutil"
)

const (
	cleanCodeAnswer   = `{"possible_scam":false,"reason":"standard ERC20","could_legitimately_justify_suspicious_code":false,"reason_for_justification":""}`
	cleanSocialAnswer = `{"possible_scam":false,"reason":"organic community"}`
	finalScoreAnswer  = `{"score":3,"reason":"healthy but young token"}`
)

type assessmentFixture struct {
	svc       *AssessmentService
	pools     *testutil.MockPoolRepository
	chain     *testutil.MockChainReader
	explorer  *testutil.MockExplorerRepository
	completer *testutil.MockChatCompleter
	session   *testutil.MockForkSession
	launcher  *testutil.MockForkLauncher
	store     *testutil.MockAssessmentRepository
}

func setupAssessmentTest(strategy entities.ScoringStrategy) *assessmentFixture {
	f := &assessmentFixture{
		pools:     testutil.NewMockPoolRepository(),
		chain:     testutil.NewMockChainReader(),
		explorer:  testutil.NewMockExplorerRepository(),
		completer: testutil.NewMockChatCompleter(`{}`),
		session:   testutil.NewMockForkSession(),
		store:     testutil.NewMockAssessmentRepository(),
	}
	f.launcher = testutil.NewMockForkLauncher(f.session)

	f.pools.AddPools(testutil.CreateTestPool())
	f.pools.SetLiquidityHolders(testutil.PairAddress,
		entities.HolderEntry{Address: testutil.LockerAddress, Quantity: testutil.Tokens(95)},
		entities.HolderEntry{Address: testutil.AliceAddress, Quantity: testutil.Tokens(5)},
	)
	f.chain.AddToken(testutil.CreateTestToken())
	f.chain.SetTotalSupply(testutil.PairAddress, testutil.Tokens(100))
	f.explorer.Holders = []entities.HolderEntry{
		{Address: testutil.PairAddress, Quantity: testutil.Tokens(400_000)},
		{Address: testutil.BobAddress, Quantity: testutil.Tokens(30_000)},
	}
	f.explorer.Source = &entities.ContractSource{ContractName: "PepeToken", SourceCode: "contract PepeToken {}"}
	f.explorer.Profile = &entities.TokenProfile{
		Website:        "https://pepe.vip",
		Twitter:        "https://x.com/pepecoineth",
		CreatorAddress: testutil.CreatorAddress,
	}

	f.completer.ResponsesByPersona["smart contract security auditor"] = cleanCodeAnswer
	f.completer.ResponsesByPersona["social media presence"] = cleanSocialAnswer
	f.completer.ResponsesByPersona["final decision maker"] = finalScoreAnswer

	logger := zap.NewNop()
	reviewer := NewReviewer(f.completer, nil, logger)

	f.svc = NewAssessmentService(AssessmentComponents{
		ChainReader: f.chain,
		Explorer:    f.explorer,
		Resolver:    NewPoolResolver(f.pools, nil, logger),
		Analyzer:    NewLiquidityAnalyzer(f.pools, f.chain, f.explorer, testutil.NewMockLockerRegistry(testutil.LockerAddress), 0, logger),
		Simulator:   NewHoneypotSimulator(f.launcher, testSimulatorSettings(), nil, logger),
		Reviews:     NewReviewService(reviewer, nil, logger),
		Rules:       NewRulesScorer(testScoringConfig()),
		AIScorer:    NewAIScorer(reviewer, logger),
		Strategy:    strategy,
		Store:       f.store,
	}, logger)

	return f
}

func (f *assessmentFixture) finalScoreCalls() int {
	n := 0
	for _, c := range f.completer.Calls {
		if c.Args[0].(string) == finalScorePersona {
			n++
		}
	}
	return n
}

func testRequest() entities.AssessmentRequest {
	return entities.AssessmentRequest{
		Chain:        entities.ChainEthereum,
		TokenAddress: "0x6982508145454Ce325dDbE47a25d4ec3d2311933",
	}
}

func TestAssessmentService_Assess_Healthy(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Score != entities.ScoreLegit {
		t.Errorf("expected legit, got %s (%s)", report.Score, report.Reason)
	}
	if report.ScoreLabel != "legit" {
		t.Errorf("expected label legit, got %s", report.ScoreLabel)
	}
	if report.Strategy != entities.StrategyRules {
		t.Errorf("expected rules strategy, got %s", report.Strategy)
	}
	if len(report.SignalErrors) != 0 {
		t.Errorf("expected no signal errors, got %v", report.SignalErrors)
	}

	cl := report.CheckList
	if cl.Address != testutil.TokenAddress {
		t.Errorf("expected lower-case address, got %s", cl.Address)
	}
	if cl.Name != "Pepe" || cl.Symbol != "PEPE" {
		t.Errorf("unexpected identity %s/%s", cl.Name, cl.Symbol)
	}
	if cl.IsContractVerified == nil || !*cl.IsContractVerified {
		t.Error("expected verified contract")
	}
	if cl.CreatorAddress != testutil.CreatorAddress {
		t.Errorf("expected creator %s, got %s", testutil.CreatorAddress, cl.CreatorAddress)
	}
	if cl.Pool == nil || cl.Pool.Address != testutil.PairAddress {
		t.Errorf("expected pool %s, got %+v", testutil.PairAddress, cl.Pool)
	}
	if cl.IsTokenSellable == nil || !*cl.IsTokenSellable {
		t.Error("expected sellable token")
	}
	if cl.Simulation == nil || cl.Simulation.Outcome != entities.SimulationLegit {
		t.Errorf("expected legit simulation, got %+v", cl.Simulation)
	}
	if cl.HasWebsite == nil || !*cl.HasWebsite || cl.HasTwitterOrDiscord == nil || !*cl.HasTwitterOrDiscord {
		t.Error("expected website and social presence")
	}
	if cl.CodeReview == nil || cl.CodeReview.PossibleScam {
		t.Errorf("expected clean code review, got %+v", cl.CodeReview)
	}
	if cl.WebsiteReview != nil {
		t.Error("expected no website review without website content")
	}
	if cl.SocialReview == nil {
		t.Error("expected social review")
	}
	assertPct(t, "liquidity locked", cl.PercentageLiquidityLockedOrBurned, 95)
	assertPct(t, "top holder", cl.TopHolderPercentage, 3)

	if f.session.Closed() != 1 {
		t.Errorf("expected fork closed once, got %d", f.session.Closed())
	}
	if report.ID != 1 || f.store.CallCount("Save") != 1 {
		t.Errorf("expected report to be stored, got ID %d", report.ID)
	}
}

func (f *assessmentFixture) reviewedCode() []string {
	var contents []string
	for _, c := range f.completer.Calls {
		if c.Args[0].(string) == codeReviewPersona {
			contents = append(contents, c.Args[1].(string))
		}
	}
	return contents
}

func TestAssessmentService_Assess_ProxyReviewsImplementation(t *testing.T) {
	const implAddress = "0x9999999999999999999999999999999999999999"

	tests := []struct {
		name        string
		impl        *entities.ContractSource
		implErr     error
		wantContent string
	}{
		{
			name:        "verified implementation is reviewed",
			impl:        &entities.ContractSource{ContractName: "PepeLogic", SourceCode: "contract PepeLogic { function mint() external {} }"},
			wantContent: "contract PepeLogic",
		},
		{
			name:        "unverified implementation falls back to proxy",
			impl:        &entities.ContractSource{},
			wantContent: "contract PepeProxy",
		},
		{
			name:        "implementation lookup failure falls back to proxy",
			implErr:     errors.New("explorer down"),
			wantContent: "contract PepeProxy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAssessmentTest(entities.StrategyRules)
			f.explorer.GetSourceCodeFunc = func(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error) {
				if address == implAddress {
					return tt.impl, tt.implErr
				}
				return &entities.ContractSource{
					ContractName:   "PepeProxy",
					SourceCode:     "contract PepeProxy {}",
					IsProxy:        true,
					Implementation: implAddress,
				}, nil
			}

			report, err := f.svc.Assess(context.Background(), testRequest())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			reviewed := f.reviewedCode()
			if len(reviewed) != 1 {
				t.Fatalf("expected 1 code review, got %d", len(reviewed))
			}
			if !strings.Contains(reviewed[0], tt.wantContent) {
				t.Errorf("expected review of %q, got %q", tt.wantContent, reviewed[0])
			}
			if report.CheckList.CodeReview == nil {
				t.Error("expected code review verdict")
			}
			if _, failed := report.SignalErrors[entities.SignalCode]; failed {
				t.Errorf("expected no code signal error, got %v", report.SignalErrors)
			}
		})
	}
}

func TestAssessmentService_Assess_HoneypotOverridesAI(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyAI)
	f.session.SellErr = revert("sell", "TRANSFER_FAILED")

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Score != entities.ScoreScam {
		t.Errorf("expected scam, got %s", report.Score)
	}
	if report.Strategy != entities.StrategyRules {
		t.Errorf("expected rules strategy, got %s", report.Strategy)
	}
	if report.CheckList.Simulation.Reason != "TRANSFER_FAILED" {
		t.Errorf("expected reason TRANSFER_FAILED, got %q", report.CheckList.Simulation.Reason)
	}
	if f.finalScoreCalls() != 0 {
		t.Error("expected no AI scoring for a honeypot")
	}
}

func TestAssessmentService_Assess_AIStrategy(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyAI)

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Strategy != entities.StrategyAI {
		t.Errorf("expected ai strategy, got %s", report.Strategy)
	}
	if report.Score != entities.ScoreLikelyLegit {
		t.Errorf("expected likely_legit, got %s", report.Score)
	}
	if report.Reason != "healthy but young token" {
		t.Errorf("unexpected reason %q", report.Reason)
	}
	if f.finalScoreCalls() != 1 {
		t.Errorf("expected 1 AI scoring call, got %d", f.finalScoreCalls())
	}
}

func TestAssessmentService_Assess_AIFallsBackToRules(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		answerErr error
		wantError bool
	}{
		{"invalid json", "score: four", nil, false},
		{"out of range", `{"score":9,"reason":"x"}`, nil, false},
		{"provider error", "", errors.New("429 rate limited"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAssessmentTest(entities.StrategyAI)
			f.completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
				switch system {
				case finalScorePersona:
					return tt.answer, tt.answerErr
				case codeReviewPersona:
					return cleanCodeAnswer, nil
				default:
					return cleanSocialAnswer, nil
				}
			}

			report, err := f.svc.Assess(context.Background(), testRequest())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.Strategy != entities.StrategyRules || report.Score != entities.ScoreLegit {
				t.Errorf("expected rules legit, got %s %s", report.Strategy, report.Score)
			}
			_, hasErr := report.SignalErrors[entities.SignalScoring]
			if hasErr != tt.wantError {
				t.Errorf("expected scoring signal error %v, got %v", tt.wantError, report.SignalErrors)
			}
		})
	}
}

func TestAssessmentService_Assess_NoPool(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)
	f.pools.TopPoolsFunc = func(ctx context.Context, chain entities.Chain, dex entities.DEX, token string, position entities.TokenPosition) ([]entities.PoolInfo, error) {
		return nil, nil
	}

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cl := report.CheckList
	if cl.Pool != nil || cl.LiquidityUSD != nil {
		t.Error("expected no pool and undetermined liquidity")
	}
	if cl.PercentageLiquidityLockedOrBurned != nil {
		t.Error("expected undetermined liquidity lock")
	}
	if cl.Simulation != nil || cl.IsTokenSellable != nil {
		t.Error("expected no simulation without a pool")
	}
	if f.launcher.CallCount("Launch") != 0 {
		t.Error("expected no fork launch")
	}
	if report.Score == entities.ScoreLegit {
		t.Error("a token without liquidity must not score legit")
	}
}

func TestAssessmentService_Assess_PartialFailures(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)
	f.chain.TokenMetadataFunc = func(ctx context.Context, chain entities.Chain, token string) (*entities.Token, error) {
		return nil, errors.New("rpc timeout")
	}
	f.explorer.GetSourceCodeFunc = func(ctx context.Context, chain entities.Chain, address string) (*entities.ContractSource, error) {
		return nil, errors.New("explorer down")
	}
	f.explorer.GetTokenProfileFunc = func(ctx context.Context, chain entities.Chain, address string) (*entities.TokenProfile, error) {
		return nil, errors.New("explorer down")
	}
	f.session.BuyErr = errors.New("websocket closed")

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, signal := range []string{entities.SignalMetadata, entities.SignalSource, entities.SignalProfile, entities.SignalSimulation} {
		if _, ok := report.SignalErrors[signal]; !ok {
			t.Errorf("expected signal error for %s, got %v", signal, report.SignalErrors)
		}
	}

	cl := report.CheckList
	if cl.IsContractVerified != nil {
		t.Error("expected undetermined verification")
	}
	if cl.HasWebsite != nil || cl.HasTwitterOrDiscord != nil {
		t.Error("expected undetermined presence")
	}
	if cl.IsTokenSellable != nil {
		t.Error("expected undetermined sellability")
	}
	if cl.CodeReview != nil {
		t.Error("expected no code review")
	}
	if cl.Pool == nil || cl.TopHolderPercentage == nil {
		t.Error("expected the on-chain signals that succeeded to be present")
	}
	if f.session.Closed() != 1 {
		t.Errorf("expected fork closed, got %d", f.session.Closed())
	}
}

func TestAssessmentService_Assess_StoreFailureIsNotFatal(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)
	f.store.SaveFunc = func(ctx context.Context, report *entities.AssessmentReport) error {
		return errors.New("connection refused")
	}

	report, err := f.svc.Assess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report == nil || report.ID != 0 {
		t.Errorf("expected unsaved report, got %+v", report)
	}
}

func TestAssessmentService_Assess_InvalidInput(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)

	tests := []struct {
		name    string
		req     entities.AssessmentRequest
		wantErr error
	}{
		{"unsupported chain", entities.AssessmentRequest{Chain: 56, TokenAddress: testutil.TokenAddress}, entities.ErrUnsupportedChain},
		{"bad address", entities.AssessmentRequest{Chain: entities.ChainEthereum, TokenAddress: "0x1234"}, ErrInvalidAddress},
		{"empty address", entities.AssessmentRequest{Chain: entities.ChainBase}, ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assess(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if f.pools.CallCount("TopPools") != 0 {
		t.Error("expected no data source calls for invalid input")
	}
}

func TestAssessmentService_GetLatest(t *testing.T) {
	f := setupAssessmentTest(entities.StrategyRules)
	ctx := context.Background()

	missing, err := f.svc.GetLatest(ctx, entities.ChainEthereum, testutil.TokenAddress)
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", missing, err)
	}

	if _, err := f.svc.Assess(ctx, testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err := f.svc.GetLatest(ctx, entities.ChainEthereum, "0x6982508145454CE325DDBE47A25D4EC3D2311933")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest == nil || latest.Score != entities.ScoreLegit {
		t.Errorf("expected stored legit report, got %+v", latest)
	}
	if time.Since(latest.AssessedAt) > time.Minute {
		t.Errorf("unexpected assessed_at %s", latest.AssessedAt)
	}
}

func TestResolveLinks(t *testing.T) {
	profile := &entities.TokenProfile{Website: "https://profile.site", Discord: "https://discord.gg/x"}

	tests := []struct {
		name        string
		req         entities.AssessmentRequest
		profile     *entities.TokenProfile
		wantWebsite string
		wantHasWeb  *bool
		wantHasSoc  *bool
	}{
		{"request wins", entities.AssessmentRequest{WebsiteURL: "https://req.site"}, profile, "https://req.site", yes, yes},
		{"profile fallback", entities.AssessmentRequest{}, profile, "https://profile.site", yes, yes},
		{"profile without links", entities.AssessmentRequest{}, &entities.TokenProfile{}, "", no, no},
		{"no profile, no request", entities.AssessmentRequest{}, nil, "", nil, nil},
		{"no profile, request twitter", entities.AssessmentRequest{TwitterURL: "https://x.com/a"}, nil, "", nil, yes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := resolveLinks(tt.req, tt.profile)
			if l.website != tt.wantWebsite {
				t.Errorf("expected website %q, got %q", tt.wantWebsite, l.website)
			}
			if !sameBoolPtr(l.hasWebsite, tt.wantHasWeb) {
				t.Errorf("expected has website %v, got %v", fmtBoolPtr(tt.wantHasWeb), fmtBoolPtr(l.hasWebsite))
			}
			if !sameBoolPtr(l.hasSocial, tt.wantHasSoc) {
				t.Errorf("expected has social %v, got %v", fmtBoolPtr(tt.wantHasSoc), fmtBoolPtr(l.hasSocial))
			}
		})
	}
}

func sameBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtBoolPtr(b *bool) string {
	if b == nil {
		return "nil"
	}
	if *b {
		return "true"
	}
	return "false"
}
