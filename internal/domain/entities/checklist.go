package entities

// TokenCheckList aggregates every signal gathered for one token.
// Pointer fields are nil when the signal is undetermined, never defaulted.
type TokenCheckList struct {
	Chain   Chain  `json:"chain_id"`
	Address string `json:"token_address"`
	Name    string `json:"token_name"`
	Symbol  string `json:"token_symbol"`

	IsContractVerified *bool  `json:"is_contract_verified"`
	CreatorAddress     string `json:"creator_address,omitempty"`

	Pool                              *PoolInfo `json:"pool"`
	LiquidityUSD                      *float64  `json:"liquidity_usd"`
	TopHolderPercentage               *float64  `json:"top_holder_percentage"`
	PercentageLockedOrBurned          *float64  `json:"percentage_locked_or_burned"`
	PercentageLiquidityLockedOrBurned *float64  `json:"percentage_liquidity_locked_or_burned"`

	Simulation      *SimulationResult `json:"simulation"`
	IsTokenSellable *bool             `json:"is_token_sellable"`

	CodeReview    *CodeReviewVerdict    `json:"code_review"`
	WebsiteReview *WebsiteReviewVerdict `json:"website_review"`
	SocialReview  *SocialReviewVerdict  `json:"social_review"`

	HasWebsite          *bool `json:"has_website"`
	HasTwitterOrDiscord *bool `json:"has_twitter_or_discord"`
}

// ApplyLiquidityReport copies analyzer output into the checklist
func (c *TokenCheckList) ApplyLiquidityReport(r *LiquidityHolderReport) {
	if r == nil {
		return
	}
	c.TopHolderPercentage = r.TopHolderPercentage
	c.PercentageLockedOrBurned = r.PercentageLockedOrBurned
	c.PercentageLiquidityLockedOrBurned = r.PercentageLiquidityLockedOrBurned
}

// ApplySimulation copies simulator output into the checklist
func (c *TokenCheckList) ApplySimulation(r *SimulationResult) {
	if r == nil {
		return
	}
	c.Simulation = r
	c.IsTokenSellable = r.Sellable()
}

// ApplyPool records the resolved pool and its USD liquidity
func (c *TokenCheckList) ApplyPool(p *PoolInfo) {
	if p == nil {
		return
	}
	c.Pool = p
	usd := p.LiquidityUSD
	c.LiquidityUSD = &usd
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
