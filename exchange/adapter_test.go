package exchange

import (
	"errors"
	"testing"
)

func TestSupportedLookups(t *testing.T) {
	for _, info := range Supported() {
		byName, ok := ByName(info.Name)
		if !ok || byName.ID != info.ID {
			t.Fatalf("ByName(%q) = %+v %v", info.Name, byName, ok)
		}
		byID, ok := ByID(info.ID)
		if !ok || byID.Name != info.Name {
			t.Fatalf("ByID(%d) = %+v %v", info.ID, byID, ok)
		}
	}
	if _, ok := ByName("mtgox"); ok {
		t.Fatal("unknown name resolved")
	}
	if _, ok := ByID(99); ok {
		t.Fatal("unknown id resolved")
	}
}

func TestNewAdapterPerExchange(t *testing.T) {
	for _, info := range Supported() {
		secret := "secret"
		if info.ID == KrakenInfo.ID {
			secret = krakenTestSecret
		}
		api, err := New(info.ID, "key", secret, Deps{})
		if err != nil {
			t.Fatalf("New(%d): %v", info.ID, err)
		}
		if api.Info().Name != info.Name {
			t.Fatalf("adapter reports %q, want %q", api.Info().Name, info.Name)
		}
	}
}

func TestNewAdapterUnsupportedID(t *testing.T) {
	_, err := New(99, "key", "secret", Deps{})
	if !errors.Is(err, ErrUnsupportedExchange) {
		t.Fatalf("want ErrUnsupportedExchange, got %v", err)
	}
}
