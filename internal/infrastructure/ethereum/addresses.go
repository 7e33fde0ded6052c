package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

// Well-known burn destinations, identical on every EVM chain
var (
	ZeroAddress = common.HexToAddress("0x0000000000000000000000000000000000000000")
	DeadAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
)

// AddressBook holds the per-chain contract addresses the engine talks to
type AddressBook struct {
	WETH         common.Address
	V2Router     common.Address
	V3SwapRouter common.Address
	V3Quoter     common.Address
	// Third-party liquidity lockers
	Lockers []common.Address
}

var addressBooks = map[entities.Chain]AddressBook{
	entities.ChainEthereum: {
		WETH:         common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		V2Router:     common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		V3SwapRouter: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
		V3Quoter:     common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
		Lockers: []common.Address{
			common.HexToAddress("0x663A5C229c09b049E36dCc11a9B0d4a8Eb9db214"), // UNCX V2
			common.HexToAddress("0xFD235968e65B0990584585763f837A5b5330e6DE"), // UNCX V3
			common.HexToAddress("0xE2fE530C047f2d85298b07D9333C05737f1435fB"), // Team Finance
			common.HexToAddress("0x71B5759d73262FBb223956913ecF4ecC51057641"), // PinkLock V2
		},
	},
	entities.ChainBase: {
		WETH:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
		V2Router:     common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
		V3SwapRouter: common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"),
		V3Quoter:     common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"),
		Lockers: []common.Address{
			common.HexToAddress("0xc4E637D37113192F4F1F060DaEbD7758De7F4131"), // UNCX V2
			common.HexToAddress("0x231278eDd38B00B07fBd52120CEf685B9BaEBCC1"), // UNCX V3
			common.HexToAddress("0x4F0Fd563BE89ec8C3e7D595bf3639128C0a7C33A"), // Team Finance
			common.HexToAddress("0xdD6E31A046b828CbBAfb939C2a394629aff8BBdC"), // PinkLock
		},
	},
}

// LookupAddressBook returns the address book for a supported chain
func LookupAddressBook(chain entities.Chain) (AddressBook, bool) {
	book, ok := addressBooks[chain]
	return book, ok
}

// LockerSet is a case-insensitive set of locker and burn addresses
type LockerSet map[string]struct{}

// NewLockerSet builds the allow-list for a chain: known lockers, burn addresses and extras
func NewLockerSet(book AddressBook, extra []string) LockerSet {
	set := make(LockerSet, len(book.Lockers)+len(extra)+2)
	set.add(ZeroAddress.Hex())
	set.add(DeadAddress.Hex())
	for _, a := range book.Lockers {
		set.add(a.Hex())
	}
	for _, a := range extra {
		if common.IsHexAddress(strings.TrimSpace(a)) {
			set.add(strings.TrimSpace(a))
		}
	}
	return set
}

func (s LockerSet) add(addr string) {
	s[strings.ToLower(addr)] = struct{}{}
}

// Contains reports whether addr is a locker or burn address
func (s LockerSet) Contains(addr string) bool {
	_, ok := s[strings.ToLower(addr)]
	return ok
}

// IsBurnAddress reports whether addr is the zero or dead address
func IsBurnAddress(addr string) bool {
	return strings.EqualFold(addr, ZeroAddress.Hex()) || strings.EqualFold(addr, DeadAddress.Hex())
}
