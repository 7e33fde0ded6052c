package thegraph

import (
	"fmt"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// Pools returned per protocol and token position
const topPoolsLimit = 5

// Upper bound on holder pages fetched for one pool
const maxHolderPages = 10

func positionField(position entities.TokenPosition) string {
	if position == entities.PositionToken1 {
		return "token1"
	}
	return "token0"
}

func topPairsQuery(position entities.TokenPosition) string {
	return fmt.Sprintf(`query TopPairs($token: String!) {
  pairs(first: %d, where: {%s: $token}, orderBy: reserveUSD, orderDirection: desc) {
    id
    token0 { id symbol }
    token1 { id symbol }
    reserveUSD
    createdAtBlockNumber
  }
}`, topPoolsLimit, positionField(position))
}

func topPoolsQuery(position entities.TokenPosition) string {
	return fmt.Sprintf(`query TopPools($token: String!) {
  pools(first: %d, where: {%s: $token}, orderBy: totalValueLockedUSD, orderDirection: desc) {
    id
    token0 { id symbol }
    token1 { id symbol }
    feeTier
    totalValueLockedUSD
    createdAtBlockNumber
  }
}`, topPoolsLimit, positionField(position))
}

const liquidityPositionsQuery = `query LiquidityPositions($pair: String!, $first: Int!, $lastID: String!) {
  liquidityPositions(first: $first, orderBy: id, orderDirection: asc, where: {pair: $pair, liquidityTokenBalance_gt: "0", id_gt: $lastID}) {
    id
    user { id }
    liquidityTokenBalance
  }
}`

const positionsQuery = `query Positions($pool: String!, $first: Int!, $lastID: String!) {
  positions(first: $first, orderBy: id, orderDirection: asc, where: {pool: $pool, liquidity_gt: "0", id_gt: $lastID}) {
    id
    owner
    liquidity
  }
}`

type tokenRef struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

type pairNode struct {
	ID                   string   `json:"id"`
	Token0               tokenRef `json:"token0"`
	Token1               tokenRef `json:"token1"`
	ReserveUSD           string   `json:"reserveUSD"`
	CreatedAtBlockNumber string   `json:"createdAtBlockNumber"`
}

type poolNode struct {
	ID                   string   `json:"id"`
	Token0               tokenRef `json:"token0"`
	Token1               tokenRef `json:"token1"`
	FeeTier              string   `json:"feeTier"`
	TotalValueLockedUSD  string   `json:"totalValueLockedUSD"`
	CreatedAtBlockNumber string   `json:"createdAtBlockNumber"`
}

type liquidityPositionNode struct {
	ID   string `json:"id"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	LiquidityTokenBalance string `json:"liquidityTokenBalance"`
}

type positionNode struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Liquidity string `json:"liquidity"`
}

type graphRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphError struct {
	Message string `json:"message"`
}
