package ethereum

import (
	"errors"
	"testing"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/entities"
)

func TestLookupAddressBook(t *testing.T) {
	for _, chain := range []entities.Chain{entities.ChainEthereum, entities.ChainBase} {
		book, ok := LookupAddressBook(chain)
		if !ok {
			t.Fatalf("expected address book for %s", chain)
		}
		if book.WETH == ZeroAddress || book.V2Router == ZeroAddress || book.V3Quoter == ZeroAddress {
			t.Errorf("%s: incomplete address book", chain)
		}
		if len(book.Lockers) == 0 {
			t.Errorf("%s: expected lockers", chain)
		}
	}

	if _, ok := LookupAddressBook(entities.Chain(56)); ok {
		t.Error("expected no address book for BSC")
	}
}

func TestLockerSet(t *testing.T) {
	book, _ := LookupAddressBook(entities.ChainEthereum)
	extra := "0x1111111111111111111111111111111111111111"
	set := NewLockerSet(book, []string{extra, "not-an-address"})

	tests := []struct {
		addr     string
		expected bool
	}{
		{"0x0000000000000000000000000000000000000000", true},
		{"0x000000000000000000000000000000000000DEAD", true},
		{"0x663a5c229c09b049e36dcc11a9b0d4a8eb9db214", true},
		{extra, true},
		{"0x2222222222222222222222222222222222222222", false},
		{"not-an-address", false},
	}

	for _, tt := range tests {
		if got := set.Contains(tt.addr); got != tt.expected {
			t.Errorf("Contains(%s): expected %v, got %v", tt.addr, tt.expected, got)
		}
	}
}

func TestIsBurnAddress(t *testing.T) {
	if !IsBurnAddress("0x000000000000000000000000000000000000dead") {
		t.Error("expected dead address to be a burn address")
	}
	if IsBurnAddress("0x663A5C229c09b049E36dCc11a9B0d4a8Eb9db214") {
		t.Error("expected locker not to be a burn address")
	}
}

func TestRegistry_UnsupportedChain(t *testing.T) {
	r := NewStaticRegistry(map[entities.Chain]*ChainEntry{}, nil)

	_, err := r.Entry(entities.ChainBase)
	if !errors.Is(err, entities.ErrUnsupportedChain) {
		t.Errorf("expected ErrUnsupportedChain, got %v", err)
	}
}

func TestRegistry_IsLockerOrBurn(t *testing.T) {
	book, _ := LookupAddressBook(entities.ChainBase)
	r := NewStaticRegistry(map[entities.Chain]*ChainEntry{
		entities.ChainBase: {Book: book, Lockers: NewLockerSet(book, nil)},
	}, nil)

	if !r.IsLockerOrBurn(entities.ChainBase, "0xc4e637d37113192f4f1f060daebd7758de7f4131") {
		t.Error("expected Base UNCX locker to be recognized")
	}
	if r.IsLockerOrBurn(entities.ChainBase, "0x663A5C229c09b049E36dCc11a9B0d4a8Eb9db214") {
		t.Error("expected mainnet locker not to count on Base")
	}
	if !r.IsLockerOrBurn(entities.ChainEthereum, "0x000000000000000000000000000000000000dEaD") {
		t.Error("expected burn address to count on any chain")
	}
}
