package cpp

import "testing"

func TestConditionalStackBasicIf(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, true)
	if !cs.IsActive() {
		t.Fatalf("IsActive() = false after a true #if")
	}
	if err := cs.Endif(); err != nil {
		t.Fatalf("Endif() error: %v", err)
	}
	if cs.Depth() != 0 {
		t.Errorf("Depth() = %d after Endif, want 0", cs.Depth())
	}
}

func TestConditionalStackFalseIfSuppresses(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, false)
	if cs.IsActive() {
		t.Fatalf("IsActive() = true after a false #if")
	}
}

func TestConditionalStackElifAfterFalseIf(t *testing.T) {
	// #if false \n ... \n #elif true \n ... \n #endif branching, exercised
	// directly against the stack: the #elif branch becomes active.
	cs := NewConditionalStack()
	cs.PushResult(CondIf, false)
	err := cs.Elif(func() (bool, error) { return true, nil })
	if err != nil {
		t.Fatalf("Elif error: %v", err)
	}
	if !cs.IsActive() {
		t.Errorf("IsActive() = false, want true (the #elif branch should be active)")
	}
}

func TestConditionalStackElifSkippedOncePriorBranchSucceeded(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, true)
	evaluated := false
	err := cs.Elif(func() (bool, error) {
		evaluated = true
		return true, nil
	})
	if err != nil {
		t.Fatalf("Elif error: %v", err)
	}
	if evaluated {
		t.Errorf("Elif evaluated its condition even though a prior branch already succeeded")
	}
	if cs.IsActive() {
		t.Errorf("IsActive() = true, want false (this #elif must stay suppressed)")
	}
}

func TestConditionalStackElseAfterElseIsError(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, true)
	if err := cs.Else(); err != nil {
		t.Fatalf("Else() error: %v", err)
	}
	if err := cs.Else(); err == nil {
		t.Errorf("second Else() succeeded, want error (duplicate #else)")
	}
}

func TestConditionalStackElifAfterElseIsError(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, true)
	cs.Else()
	err := cs.Elif(func() (bool, error) { return true, nil })
	if err == nil {
		t.Errorf("Elif after Else succeeded, want error")
	}
}

func TestConditionalStackNestedInsideInactiveStaysSuppressed(t *testing.T) {
	cs := NewConditionalStack()
	cs.PushResult(CondIf, false)
	cs.PushSkipped(CondIf)
	if cs.IsActive() {
		t.Errorf("IsActive() = true inside a nested conditional under a false #if")
	}
	cs.Endif()
	if cs.IsActive() {
		t.Errorf("IsActive() = true after closing the nested conditional; outer #if is still false")
	}
}

func TestConditionalStackEndifWithoutIfIsError(t *testing.T) {
	cs := NewConditionalStack()
	if err := cs.Endif(); err == nil {
		t.Errorf("Endif() on an empty stack succeeded, want error")
	}
}

func TestConditionalStackCheckBalanced(t *testing.T) {
	cs := NewConditionalStack()
	if err := cs.CheckBalanced(); err != nil {
		t.Fatalf("CheckBalanced() on empty stack error: %v", err)
	}
	cs.PushResult(CondIf, true)
	if err := cs.CheckBalanced(); err == nil {
		t.Errorf("CheckBalanced() with an open #if succeeded, want error")
	}
}

func TestConditionalStackDefinedElifBranch(t *testing.T) {
	// End-to-end scenario 8: #if defined(FOO) / #elif defined(BAR) /
	// #else, with only BAR defined: only the #elif branch is active.
	cs := NewConditionalStack()
	cs.PushResult(CondIf, false) // defined(FOO) is false
	cs.Elif(func() (bool, error) { return true, nil }) // defined(BAR) is true
	if !cs.IsActive() {
		t.Fatalf("IsActive() = false in the #elif branch, want true")
	}
	cs.Else()
	if cs.IsActive() {
		t.Errorf("IsActive() = true in the trailing #else, want false (an earlier branch already won)")
	}
}
