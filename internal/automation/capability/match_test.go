package capability

import "testing"

func TestFindBestTieBreak(t *testing.T) {
	candidates := []Candidate{
		{ID: "Ra", Capabilities: "python"},
		{ID: "Rb", Capabilities: "python chrome"},
	}
	best, ok := FindBest("python", candidates)
	if !ok || best.ID != "Ra" {
		t.Fatalf("expected Ra, got %+v ok=%v", best, ok)
	}
}

func TestFindBestNoCompatibleResource(t *testing.T) {
	candidates := []Candidate{{ID: "R3", Capabilities: "java"}}
	_, ok := FindBest("python linux", candidates)
	if ok {
		t.Fatal("expected no match")
	}
}

func TestFindBestEmptyRequirements(t *testing.T) {
	candidates := []Candidate{{ID: "R1", Capabilities: "python"}}
	_, ok := FindBest("", candidates)
	if ok {
		t.Fatal("empty requirements must never match")
	}
}

func TestFindBestEmptyCandidates(t *testing.T) {
	_, ok := FindBest("python", nil)
	if ok {
		t.Fatal("empty candidate list must never match")
	}
}

func TestFindBestWorkqueueScenario(t *testing.T) {
	candidates := []Candidate{
		{ID: "R1", Capabilities: "python linux"},
		{ID: "R2", Capabilities: "python linux docker"},
		{ID: "R3", Capabilities: "java"},
	}
	best, ok := FindBest("python linux", candidates)
	if !ok || best.ID != "R1" {
		t.Fatalf("expected R1 (fewest extra capabilities), got %+v ok=%v", best, ok)
	}
}

func TestTokensDoesNotLowercase(t *testing.T) {
	toks := Tokens("Python,LINUX docker")
	if _, ok := toks["Python"]; !ok {
		t.Fatal("expected token case to be preserved")
	}
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(toks), toks)
	}
}
