package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vionex/vionex-mlm-service/internal/domain"
)

var (
	volFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	volTo   = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
)

func newBinaryFixture(t *testing.T) (*fakeStore, *fakeCache, *DefaultBinaryUsecase) {
	t.Helper()
	store := newFakeStore()
	cache := newFakeCache()
	uc := NewDefaultBinaryUsecase(store, cache, newFakePublisher(), nil, 10, false, time.Minute)
	return store, cache, uc
}

func mustPlace(t *testing.T, uc *DefaultBinaryUsecase, memberID, sponsorID string) {
	t.Helper()
	if _, err := uc.Place(context.Background(), memberID, sponsorID); err != nil {
		t.Fatalf("Place(%s under %s): %v", memberID, sponsorID, err)
	}
}

func TestPlace_FillsLeftThenRightThenDescends(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	for _, id := range []string{"s", "a", "b", "c"} {
		store.addMember(id, nil, "member")
	}

	resA, err := uc.Place(context.Background(), "a", "s")
	if err != nil {
		t.Fatalf("place a: %v", err)
	}
	if resA.ParentID != "s" || resA.Position != "left" {
		t.Errorf("a placed at %s/%s, want s/left", resA.ParentID, resA.Position)
	}

	resB, err := uc.Place(context.Background(), "b", "s")
	if err != nil {
		t.Fatalf("place b: %v", err)
	}
	if resB.ParentID != "s" || resB.Position != "right" {
		t.Errorf("b placed at %s/%s, want s/right", resB.ParentID, resB.Position)
	}

	// Sponsor is full; BFS descends to the leftmost grandchild slot.
	resC, err := uc.Place(context.Background(), "c", "s")
	if err != nil {
		t.Fatalf("place c: %v", err)
	}
	if resC.ParentID != "a" || resC.Position != "left" {
		t.Errorf("c placed at %s/%s, want a/left", resC.ParentID, resC.Position)
	}

	c, _ := store.GetMemberByID(context.Background(), "c")
	if c.BinaryParentID == nil || *c.BinaryParentID != "a" || c.PlacementPosition != domain.PositionLeft {
		t.Errorf("stored c = parent %v position %s", c.BinaryParentID, c.PlacementPosition)
	}
}

func TestPlace_SecondPlacementRejected(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	for _, id := range []string{"s", "s2", "a"} {
		store.addMember(id, nil, "member")
	}
	mustPlace(t, uc, "a", "s")

	_, err := uc.Place(context.Background(), "a", "s2")
	if !errors.Is(err, domain.ErrAlreadyPlaced) {
		t.Fatalf("err = %v, want ErrAlreadyPlaced", err)
	}

	a, _ := store.GetMemberByID(context.Background(), "a")
	if *a.BinaryParentID != "s" {
		t.Errorf("parent = %s, want s (first placement kept)", *a.BinaryParentID)
	}
}

func TestPlace_SelfSponsorRejected(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	store.addMember("s", nil, "member")

	_, err := uc.Place(context.Background(), "s", "s")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestPlace_UnknownSponsorIsNotFound(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	store.addMember("a", nil, "member")

	_, err := uc.Place(context.Background(), "a", "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// seedVolumeTree builds s with a left subtree (a, c) and right subtree (b),
// and purchases giving left volume 750.00 and right volume 1200.00.
func seedVolumeTree(t *testing.T, store *fakeStore, uc *DefaultBinaryUsecase) {
	t.Helper()
	store.addRank("member", 1, domain.Rank{})
	for _, id := range []string{"s", "a", "b", "c"} {
		store.addMember(id, nil, "member")
	}
	mustPlace(t, uc, "a", "s")
	mustPlace(t, uc, "b", "s")
	mustPlace(t, uc, "c", "s") // lands at a/left

	store.addProduct("prod", "1.00")
	in := volFrom.AddDate(0, 0, 10)
	store.addCompletedPurchase("pa", "a", "prod", "300.00", in)
	store.addCompletedPurchase("pc", "c", "prod", "450.00", in)
	store.addCompletedPurchase("pb", "b", "prod", "1200.00", in)
}

func TestLegVolume_SumsSubtreeWithinRange(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	seedVolumeTree(t, store, uc)

	// A purchase outside the range must not count.
	store.addCompletedPurchase("late", "c", "prod", "999.00", volTo.AddDate(0, 1, 0))

	left, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volFrom, volTo)
	if err != nil {
		t.Fatalf("LegVolume left: %v", err)
	}
	if left.Volume.StringFixed(2) != "750.00" {
		t.Errorf("left volume = %s, want 750.00", left.Volume)
	}

	right, err := uc.LegVolume(context.Background(), "s", domain.PositionRight, volFrom, volTo)
	if err != nil {
		t.Fatalf("LegVolume right: %v", err)
	}
	if right.Volume.StringFixed(2) != "1200.00" {
		t.Errorf("right volume = %s, want 1200.00", right.Volume)
	}
}

func TestLegVolume_EmptyLegIsZero(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	store.addMember("s", nil, "member")

	res, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volFrom, volTo)
	if err != nil {
		t.Fatalf("LegVolume: %v", err)
	}
	if !res.Volume.IsZero() {
		t.Errorf("volume = %s, want 0", res.Volume)
	}
}

func TestLegVolume_RejectsBadInput(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	store.addRank("member", 1, domain.Rank{})
	store.addMember("s", nil, "member")

	if _, err := uc.LegVolume(context.Background(), "s", domain.Position("up"), volFrom, volTo); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad leg: err = %v, want ErrValidation", err)
	}
	if _, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volTo, volFrom); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("inverted range: err = %v, want ErrValidation", err)
	}
}

func TestMatchingCommission_PaysOnWeakerLeg(t *testing.T) {
	store, _, uc := newBinaryFixture(t)
	seedVolumeTree(t, store, uc)

	res, err := uc.MatchingCommission(context.Background(), "s", volFrom, volTo)
	if err != nil {
		t.Fatalf("MatchingCommission: %v", err)
	}
	if res.MatchedVolume.StringFixed(2) != "750.00" {
		t.Errorf("matched = %s, want 750.00", res.MatchedVolume)
	}
	if res.Commission.StringFixed(2) != "75.00" {
		t.Errorf("commission = %s, want 75.00", res.Commission)
	}
	if !res.CarriedForward.IsZero() {
		t.Errorf("carried = %s, want 0 with carry-forward disabled", res.CarriedForward)
	}
}

func TestMatchingCommission_CarryForwardReportsExcess(t *testing.T) {
	store := newFakeStore()
	uc := NewDefaultBinaryUsecase(store, newFakeCache(), newFakePublisher(), nil, 10, true, time.Minute)
	seedVolumeTree(t, store, uc)

	res, err := uc.MatchingCommission(context.Background(), "s", volFrom, volTo)
	if err != nil {
		t.Fatalf("MatchingCommission: %v", err)
	}
	if res.CarriedForward.StringFixed(2) != "450.00" {
		t.Errorf("carried = %s, want 450.00", res.CarriedForward)
	}
	if res.Commission.StringFixed(2) != "75.00" {
		t.Errorf("commission = %s, want 75.00 (excess never matched)", res.Commission)
	}
}

func TestLegVolume_CachedUntilPlacementInvalidates(t *testing.T) {
	store, cache, uc := newBinaryFixture(t)
	seedVolumeTree(t, store, uc)
	cache.mu.Lock()
	cache.computeCalls = 0
	cache.mu.Unlock()

	if _, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volFrom, volTo); err != nil {
		t.Fatalf("first LegVolume: %v", err)
	}
	if _, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volFrom, volTo); err != nil {
		t.Fatalf("second LegVolume: %v", err)
	}
	if cache.computeCalls != 1 {
		t.Errorf("compute calls = %d, want 1 (second read served from cache)", cache.computeCalls)
	}

	// A new placement changes subtree membership, so volumes are recomputed.
	store.addMember("d", nil, "member")
	mustPlace(t, uc, "d", "s")

	if _, err := uc.LegVolume(context.Background(), "s", domain.PositionLeft, volFrom, volTo); err != nil {
		t.Fatalf("post-placement LegVolume: %v", err)
	}
	if cache.computeCalls != 2 {
		t.Errorf("compute calls = %d, want 2 after invalidation", cache.computeCalls)
	}
}
