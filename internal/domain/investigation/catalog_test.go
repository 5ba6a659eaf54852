package investigation

import (
	"errors"
	"testing"

	"github.com/practice/console/pkg/wire"
)

func testCatalog() Catalog {
	return Catalog{
		{Code: "CBC", Name: "Complete Blood Count", Price: 1000, Currency: "NGN", Category: "haematology"},
		{Code: "LFT", Name: "Liver Function Test", Price: 2500, Currency: "NGN"},
		{Code: "FREE", Name: "Free Screening", Price: 0, Currency: "NGN"},
		{Code: "CBC2", Name: "Complete Blood Count", Price: 1800, Currency: "NGN"},
	}
}

func TestFindListingByTestName_CaseInsensitive(t *testing.T) {
	l, ok := testCatalog().FindListingByTestName("complete blood count")
	if !ok {
		t.Fatal("expected a match")
	}
	if l.Code != "CBC" {
		t.Errorf("expected CBC, got %s", l.Code)
	}
}

func TestFindListingByTestName_MatchesCode(t *testing.T) {
	l, ok := testCatalog().FindListingByTestName("  lft ")
	if !ok || l.Name != "Liver Function Test" {
		t.Errorf("expected code match on trimmed input, got %+v %v", l, ok)
	}
}

func TestFindListingByTestName_FirstMatchWins(t *testing.T) {
	l, _ := testCatalog().FindListingByTestName("COMPLETE BLOOD COUNT")
	if l.Price.Float() != 1000 {
		t.Errorf("expected first listing in catalog order, got price %v", l.Price)
	}
}

func TestFindListingByTestName_NoMatch(t *testing.T) {
	if _, ok := testCatalog().FindListingByTestName("MRI"); ok {
		t.Error("expected no match")
	}
	if _, ok := testCatalog().FindListingByTestName("   "); ok {
		t.Error("expected blank name not to match")
	}
}

func TestResolveListingForInvestigation(t *testing.T) {
	ref, err := ResolveListingForInvestigation(Investigation{TestType: "Liver function test"}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Code != "LFT" || ref.Price.Float() != 2500 {
		t.Errorf("unexpected ref %+v", ref)
	}
}

func TestResolveListingForInvestigation_FallsBackToListingCode(t *testing.T) {
	inv := Investigation{TestType: "Old name", Listing: &ListingRef{Code: "cbc", Price: 900}}
	ref, err := ResolveListingForInvestigation(inv, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Price.Float() != 1000 {
		t.Errorf("expected current catalog price 1000, got %v", ref.Price)
	}
}

func TestResolveListingForInvestigation_Errors(t *testing.T) {
	_, err := ResolveListingForInvestigation(Investigation{TestType: "MRI"}, testCatalog())
	if !errors.Is(err, ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}

	_, err = ResolveListingForInvestigation(Investigation{TestType: "Free Screening"}, testCatalog())
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice for zero price, got %v", err)
	}

	nan := Catalog{{Code: "X", Name: "X", Price: wire.ParseAmount("n/a")}}
	_, err = ResolveListingForInvestigation(Investigation{TestType: "x"}, nan)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice for NaN price, got %v", err)
	}
}

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		status   PaymentStatus
		valid    bool
		settled  bool
		terminal bool
	}{
		{PaymentPending, true, false, false},
		{PaymentProcessing, true, false, false},
		{PaymentPaid, true, true, true},
		{PaymentCompleted, true, true, true},
		{PaymentFailed, true, false, true},
		{PaymentRefunded, true, false, true},
		{PaymentCancelled, true, false, true},
		{"unknown", false, false, false},
	}
	for _, tt := range tests {
		if tt.status.Valid() != tt.valid || tt.status.IsSettled() != tt.settled || tt.status.IsTerminal() != tt.terminal {
			t.Errorf("%s: unexpected classification", tt.status)
		}
	}
}
