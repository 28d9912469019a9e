package plan

import "testing"

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{
			name: "valid action step",
			step: Step{Name: "fetch", Description: "download", Kind: KindAction, Command: []string{"curl", "-O", "url"}},
		},
		{
			name:    "missing name",
			step:    Step{Description: "x", Kind: KindAction, Command: []string{"true"}},
			wantErr: true,
		},
		{
			name:    "missing description",
			step:    Step{Name: "a", Kind: KindAction, Command: []string{"true"}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			step:    Step{Name: "a", Description: "d", Kind: StepKind("bogus"), Command: []string{"true"}},
			wantErr: true,
		},
		{
			name:    "recovery without parent",
			step:    Step{Name: "r", Description: "d", Kind: KindRecovery, Command: []string{"true"}},
			wantErr: true,
		},
		{
			name: "recovery with parent",
			step: Step{Name: "r", Description: "d", Kind: KindRecovery, Parent: "a", Command: []string{"true"}},
		},
		{
			name:    "empty command",
			step:    Step{Name: "a", Description: "d", Kind: KindAction},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStepRenderedCommand(t *testing.T) {
	t.Parallel()

	s := Step{Command: []string{"curl", "-O", "https://example.org/data.csv"}}
	if got, want := s.RenderedCommand(), "curl -O https://example.org/data.csv"; got != want {
		t.Fatalf("RenderedCommand() = %q, want %q", got, want)
	}

	s.WorkDir = "/var/work"
	if got, want := s.RenderedCommand(), "cd /var/work && curl -O https://example.org/data.csv"; got != want {
		t.Fatalf("RenderedCommand() = %q, want %q", got, want)
	}
}
