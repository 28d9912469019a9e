package plan

import "testing"

func TestPlanValidate(t *testing.T) {
	base := func() Plan {
		return Plan{
			ID: "daily-etl",
			Steps: []Step{
				{Name: "fetch", Description: "download", Kind: KindAction, Command: []string{"curl"}},
				{Name: "cleanup", Description: "remove partial", Kind: KindRecovery, Parent: "fetch", Command: []string{"rm"}},
			},
		}
	}

	t.Run("valid plan", func(t *testing.T) {
		t.Parallel()
		if err := base().Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.ID = ""
		if err := p.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error for missing id")
		}
	})

	t.Run("parent not yet seen", func(t *testing.T) {
		t.Parallel()
		p := Plan{
			ID: "x",
			Steps: []Step{
				{Name: "cleanup", Description: "d", Kind: KindRecovery, Parent: "fetch", Command: []string{"rm"}},
				{Name: "fetch", Description: "d", Kind: KindAction, Command: []string{"curl"}},
			},
		}
		if err := p.Validate(); err == nil {
			t.Fatal("Validate() = nil, want error for forward parent reference")
		}
	})
}

func TestPlanStepByName(t *testing.T) {
	t.Parallel()
	p := Plan{Steps: []Step{{Name: "a"}, {Name: "b"}}}

	if _, ok := p.StepByName("a"); !ok {
		t.Fatal("expected to find step a")
	}
	if _, ok := p.StepByName("missing"); ok {
		t.Fatal("expected not to find step missing")
	}
}
