package target

import (
	"testing"
	"time"
)

func testModes() map[string]ModeConfig {
	return map[string]ModeConfig{
		"normal": {BaseTarget: 30, Multiplier: 3, SwitchBalance: 3000},
		"sniper": {BaseTarget: 40, Multiplier: 1.5, SwitchBalance: 3000},
	}
}

func day(n int) time.Time {
	return time.Date(2026, 8, n, 12, 0, 0, 0, time.UTC)
}

func TestGeometricProgression(t *testing.T) {
	tr := NewTracker(testModes(), day(1))

	wantNormal := []float64{30, 90, 270}
	wantSniper := []float64{40, 60, 90}
	for i := 0; i < 3; i++ {
		if got := tr.CurrentTarget("normal"); got != wantNormal[i] {
			t.Errorf("normal day %d: target = %v, want %v", i+1, got, wantNormal[i])
		}
		if got := tr.CurrentTarget("sniper"); got != wantSniper[i] {
			t.Errorf("sniper day %d: target = %v, want %v", i+1, got, wantSniper[i])
		}
		tr.RolloverIfNewDay(day(i + 2))
	}
}

func TestSingleRolloverPerDay(t *testing.T) {
	tr := NewTracker(testModes(), day(1))

	// Many checks within the same day must not advance anything.
	for i := 0; i < 5; i++ {
		if tr.RolloverIfNewDay(day(1).Add(time.Duration(i) * time.Hour)) {
			t.Fatal("rollover fired within the same day")
		}
	}
	if got := tr.CurrentTarget("normal"); got != 30 {
		t.Errorf("target = %v, want 30", got)
	}

	if !tr.RolloverIfNewDay(day(2)) {
		t.Fatal("calendar day changed, rollover expected")
	}
	if tr.RolloverIfNewDay(day(2).Add(time.Hour)) {
		t.Error("second rollover on the same day")
	}
	if got := tr.CurrentTarget("normal"); got != 90 {
		t.Errorf("target after one rollover = %v, want 90", got)
	}
}

func TestSwitchBalanceFlattensTarget(t *testing.T) {
	tr := NewTracker(testModes(), day(1))
	tr.RolloverIfNewDay(day(2))
	tr.RolloverIfNewDay(day(3)) // normal target now 270

	tr.AddProfit("normal", 3000)
	if got := tr.CurrentTarget("normal"); got != 30 {
		t.Errorf("target after switch = %v, want base 30", got)
	}

	// The latch survives further days and losses.
	tr.RolloverIfNewDay(day(4))
	tr.AddProfit("normal", -2500)
	if got := tr.CurrentTarget("normal"); got != 30 {
		t.Errorf("flattened target must stay at base, got %v", got)
	}

	// Other mode keeps compounding.
	if got := tr.CurrentTarget("sniper"); got == 40 {
		t.Error("sniper should still be compounding")
	}
}

func TestDayGoalMet(t *testing.T) {
	tr := NewTracker(testModes(), day(1))

	if tr.IsDayGoalMet("normal") {
		t.Error("goal met with no profit")
	}
	tr.AddProfit("normal", 29)
	if tr.IsDayGoalMet("normal") {
		t.Error("goal met below target")
	}
	tr.AddProfit("normal", 1)
	if !tr.IsDayGoalMet("normal") {
		t.Error("goal should be met at target")
	}
	if tr.IsDayGoalMet("sniper") {
		t.Error("modes are independent")
	}

	// Rollover raises the bar: 30 accumulated against a day-2 target of 90.
	tr.RolloverIfNewDay(day(2))
	if tr.IsDayGoalMet("normal") {
		t.Error("accumulated 30 does not reach the day-2 target of 90")
	}
	if got := tr.Snapshot()["normal"].Accumulated; got != 30 {
		t.Errorf("accumulated = %v, want 30", got)
	}
}

func TestGoalBasisIsAccumulatedProfit(t *testing.T) {
	tr := NewTracker(testModes(), day(1))

	// 100 booked on day one carries into day two (target 90), so the
	// goal is already met with zero profit booked today.
	tr.AddProfit("normal", 100)
	tr.RolloverIfNewDay(day(2))
	if !tr.IsDayGoalMet("normal") {
		t.Error("accumulated 100 reaches the day-2 target of 90")
	}
	st := tr.Snapshot()["normal"]
	if !st.GoalMet || st.DailyProfit != 0 {
		t.Errorf("status = %+v, want goal met with zero daily profit", st)
	}

	// Losses pull accumulated back under the bar.
	tr.AddProfit("normal", -50)
	if tr.IsDayGoalMet("normal") {
		t.Error("accumulated 50 is under the day-2 target of 90")
	}
}

func TestUnknownModeIsInert(t *testing.T) {
	tr := NewTracker(testModes(), day(1))
	tr.AddProfit("scalper", 100)
	if got := tr.CurrentTarget("scalper"); got != 0 {
		t.Errorf("unknown mode target = %v, want 0", got)
	}
	if tr.IsDayGoalMet("scalper") {
		t.Error("unknown mode cannot meet a goal")
	}
}
