package signal

import "testing"

func spike(side Side) *Intent {
	return &Intent{Symbol: "PEPEUSDT_UMCBL", Side: side, Reason: ReasonBookSpike}
}

func TestConfirmerHoldsFirstSpike(t *testing.T) {
	c := NewConfirmer(2)

	if got := c.Filter("PEPE", spike(SideLong)); got != nil {
		t.Errorf("first observation should be held, got %+v", got)
	}
	if got := c.Filter("PEPE", spike(SideLong)); got == nil {
		t.Error("second consecutive observation should pass")
	}
	// Streak consumed; the next spike starts over.
	if got := c.Filter("PEPE", spike(SideLong)); got != nil {
		t.Errorf("streak should reset after confirmation, got %+v", got)
	}
}

func TestConfirmerDirectionFlipResets(t *testing.T) {
	c := NewConfirmer(2)

	c.Filter("PEPE", spike(SideLong))
	if got := c.Filter("PEPE", spike(SideShort)); got != nil {
		t.Errorf("flipped direction should restart the streak, got %+v", got)
	}
	if got := c.Filter("PEPE", spike(SideShort)); got == nil {
		t.Error("second short observation should pass")
	}
}

func TestConfirmerNonSpikeBreaksStreak(t *testing.T) {
	c := NewConfirmer(2)

	c.Filter("PEPE", spike(SideLong))
	if got := c.Filter("PEPE", nil); got != nil {
		t.Errorf("nil should pass through as nil, got %+v", got)
	}
	// The gap reset the streak, so this spike is a fresh first sighting.
	if got := c.Filter("PEPE", spike(SideLong)); got != nil {
		t.Errorf("spike after gap should be held, got %+v", got)
	}
}

func TestConfirmerPassesOtherReasonsImmediately(t *testing.T) {
	c := NewConfirmer(2)

	trend := &Intent{Symbol: "X", Side: SideLong, Reason: ReasonTrendBreakout}
	if got := c.Filter("X", trend); got != trend {
		t.Errorf("non-spike intents pass through, got %+v", got)
	}
}

func TestConfirmerSingleRequirementIsTransparent(t *testing.T) {
	c := NewConfirmer(1)
	s := spike(SideLong)
	if got := c.Filter("X", s); got != s {
		t.Errorf("required=1 should pass everything, got %+v", got)
	}
}

func TestConfirmerTracksSymbolsIndependently(t *testing.T) {
	c := NewConfirmer(2)

	c.Filter("A", spike(SideLong))
	if got := c.Filter("B", spike(SideLong)); got != nil {
		t.Errorf("streaks must be per symbol, got %+v", got)
	}
	if got := c.Filter("A", spike(SideLong)); got == nil {
		t.Error("symbol A streak should complete")
	}
}
