package match

import "testing"

func TestIsInternalName(t *testing.T) {
	if !isInternalName("lib/_internal.js") {
		t.Fatal("expected _internal.js to be internal")
	}
	if isInternalName("lib/public.js") {
		t.Fatal("expected public.js to be public")
	}
}

func TestStructuralSimilaritySubsetBonus(t *testing.T) {
	extracted := []string{"index.js", "lib/a.js", "lib/b.js"}
	registryFiles := []string{"index.js", "lib/a.js", "lib/b.js", "lib/c.js", "lib/d.js"}

	got := StructuralSimilarity(extracted, registryFiles)
	if got < structuralThreshold {
		t.Fatalf("expected score above threshold, got %v", got)
	}
}

func TestStructuralSimilarityBelowThreshold(t *testing.T) {
	extracted := []string{"totally-unrelated.js"}
	registryFiles := []string{"index.js", "lib/a.js"}

	got := StructuralSimilarity(extracted, registryFiles)
	if got >= structuralThreshold {
		t.Fatalf("expected score below threshold, got %v", got)
	}
}
