package domain

import "testing"

func TestResultSet_AllGreen(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]TaskResult
		want    bool
	}{
		{
			name:    "empty set is not green",
			results: map[string]TaskResult{},
			want:    false,
		},
		{
			name: "all ok",
			results: map[string]TaskResult{
				"ruff": {TaskID: "ruff", Status: StatusOK},
				"mypy": {TaskID: "mypy", Status: StatusOK},
			},
			want: true,
		},
		{
			name: "required failure",
			results: map[string]TaskResult{
				"ruff": {TaskID: "ruff", Status: StatusFail},
			},
			want: false,
		},
		{
			name: "required skip is not green",
			results: map[string]TaskResult{
				"ruff": {TaskID: "ruff", Status: StatusOK},
				"mypy": {TaskID: "mypy", Status: StatusSkip, SkipReason: "ruff"},
			},
			want: false,
		},
		{
			name: "optional failure is still green",
			results: map[string]TaskResult{
				"ruff":   {TaskID: "ruff", Status: StatusOK},
				"bandit": {TaskID: "bandit", Status: StatusFail, Optional: true},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &ResultSet{Results: tt.results}
			if got := rs.AllGreen(); got != tt.want {
				t.Errorf("AllGreen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultSet_Failed(t *testing.T) {
	rs := &ResultSet{Results: map[string]TaskResult{
		"a": {TaskID: "a", Status: StatusFail},
		"b": {TaskID: "b", Status: StatusFail, Optional: true},
		"c": {TaskID: "c", Status: StatusOK},
	}}
	failed := rs.Failed()
	if len(failed) != 1 || failed[0] != "a" {
		t.Errorf("Failed() = %v, want [a]", failed)
	}
}

func TestCacheKey_Digest(t *testing.T) {
	k := CacheKey{TaskID: "mypy:src", CommandHash: "abc", InputFingerprint: "def", Salt: "s"}

	if k.Digest() != k.Digest() {
		t.Fatal("Digest() is not deterministic")
	}

	variants := []CacheKey{
		{TaskID: "mypy:lib", CommandHash: "abc", InputFingerprint: "def", Salt: "s"},
		{TaskID: "mypy:src", CommandHash: "xyz", InputFingerprint: "def", Salt: "s"},
		{TaskID: "mypy:src", CommandHash: "abc", InputFingerprint: "ghi", Salt: "s"},
		{TaskID: "mypy:src", CommandHash: "abc", InputFingerprint: "def", Salt: "t"},
	}
	for _, v := range variants {
		if v.Digest() == k.Digest() {
			t.Errorf("Digest() collision between %+v and %+v", v, k)
		}
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"valid", Task{ID: "ruff", Command: []string{"ruff", "check", "."}}, false},
		{"missing id", Task{Command: []string{"ruff"}}, true},
		{"missing command", Task{ID: "ruff"}, true},
		{"self dependency", Task{ID: "ruff", Command: []string{"ruff"}, DependsOn: []string{"ruff"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlan_PhaseTasks(t *testing.T) {
	plan := &Plan{
		Tasks: map[string]*Task{
			"ruff":   {ID: "ruff", Phase: PhaseFast},
			"black":  {ID: "black", Phase: PhaseMutating},
			"pytest": {ID: "pytest", Phase: PhaseSlow},
			"mypy":   {ID: "mypy", Phase: PhaseFast},
		},
		Order: []string{"ruff", "black", "pytest", "mypy"},
	}

	fast := plan.PhaseTasks(PhaseFast)
	if len(fast) != 2 || fast[0].ID != "ruff" || fast[1].ID != "mypy" {
		t.Errorf("PhaseTasks(fast) = %v, want [ruff mypy] in plan order", fast)
	}
	if got := plan.PhaseTasks(PhaseMutating); len(got) != 1 || got[0].ID != "black" {
		t.Errorf("PhaseTasks(mutating) = %v, want [black]", got)
	}
}
