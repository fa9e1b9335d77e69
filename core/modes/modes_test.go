package modes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalogShipsEmbeddedModes(t *testing.T) {
	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("expected the embedded catalog to load, got %v", err)
	}

	want := []string{"business", "casual", "ielts", "toefl"}
	got := catalog.Modes()
	if len(got) != len(want) {
		t.Fatalf("expected modes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected modes %v, got %v", want, got)
		}
	}

	if catalog.DefaultMode() != "toefl" {
		t.Fatalf("expected toefl as the default mode, got %q", catalog.DefaultMode())
	}
}

func TestCatalogGetIsCaseInsensitive(t *testing.T) {
	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("expected the embedded catalog to load, got %v", err)
	}

	config, err := catalog.Get("IELTS")
	if err != nil {
		t.Fatalf("expected the lookup to succeed, got %v", err)
	}
	if config.Mode != "ielts" {
		t.Fatalf("expected the ielts config, got %q", config.Mode)
	}

	if _, err := catalog.Get("unknown"); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}

func TestCatalogRandomQuestionComesFromTheBank(t *testing.T) {
	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("expected the embedded catalog to load, got %v", err)
	}

	config, err := catalog.Get("toefl")
	if err != nil {
		t.Fatalf("expected the toefl config, got %v", err)
	}

	prompts := map[string]string{}
	for _, set := range config.Questions {
		for _, prompt := range set.Prompts {
			prompts[prompt] = set.Part
		}
	}

	for i := 0; i < 20; i++ {
		question, err := catalog.RandomQuestion("toefl")
		if err != nil {
			t.Fatalf("expected a question, got %v", err)
		}
		part, ok := prompts[question.Prompt]
		if !ok {
			t.Fatalf("drawn prompt %q is not in the question bank", question.Prompt)
		}
		if question.Part != part {
			t.Fatalf("expected part %q for prompt %q, got %q", part, question.Prompt, question.Part)
		}
	}
}

func TestCatalogBuiltinRubrics(t *testing.T) {
	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("expected the embedded catalog to load, got %v", err)
	}

	rubric, err := catalog.Rubric("toefl")
	if err != nil {
		t.Fatalf("expected the toefl rubric, got %v", err)
	}
	if rubric.OverallScale != "0-30" {
		t.Fatalf("expected the 0-30 scale, got %q", rubric.OverallScale)
	}
	if rubric.QuestionMax != 4 {
		t.Fatalf("expected a per-question max of 4, got %v", rubric.QuestionMax)
	}
	if rubric.SystemPrompt == "" || rubric.CriterionTemplate == "" {
		t.Fatalf("expected a populated rubric, got %+v", rubric)
	}
}

func TestCatalogLoadsModesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuntimeMode(t, dir)

	catalog, err := NewCatalog(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("expected the catalog to load, got %v", err)
	}

	if !catalog.Has("runtime") {
		t.Fatalf("expected the runtime mode to be discovered, modes %v", catalog.Modes())
	}

	rubric, err := catalog.Rubric("runtime")
	if err != nil {
		t.Fatalf("expected the runtime rubric, got %v", err)
	}
	if rubric.SystemPrompt != "Judge clarity and depth." {
		t.Fatalf("expected the document rubric to win, got %q", rubric.SystemPrompt)
	}
	if rubric.OverallScale != "1-3" {
		t.Fatalf("expected the 1-3 scale, got %q", rubric.OverallScale)
	}
}

func TestCatalogRejectsIncompleteDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{"description": "No prompts."}`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := NewCatalog(WithConfigDir(dir)); err == nil {
		t.Fatalf("expected an error for a document without a system prompt")
	}
}

func TestCatalogReloadPicksUpNewModes(t *testing.T) {
	dir := t.TempDir()

	catalog, err := NewCatalog(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("expected the catalog to load, got %v", err)
	}
	if catalog.Has("runtime") {
		t.Fatalf("expected no runtime mode before it is written")
	}

	writeRuntimeMode(t, dir)
	if err := catalog.Reload(); err != nil {
		t.Fatalf("expected the reload to succeed, got %v", err)
	}
	if !catalog.Has("runtime") {
		t.Fatalf("expected the runtime mode after reload, modes %v", catalog.Modes())
	}
}

func writeRuntimeMode(t *testing.T, dir string) {
	t.Helper()

	document := `{
  "title": "Runtime Mode",
  "description": "Dynamically added mode for testing.",
  "system_prompt": "You are a helpful interviewer.",
  "evaluation_prompt": "Evaluate clearly.",
  "questions": [
    {"part": "Warm-up", "prompts": ["Tell me about yourself."]}
  ],
  "criteria": [
    {"name": "Clarity", "description": "How clear was the response?"}
  ],
  "scale": {
    "label": "Sample Scale",
    "levels": [
      {"value": 1, "description": "Needs improvement"},
      {"value": 3, "description": "Strong"}
    ]
  },
  "evaluation": {
    "system_prompt": "Judge clarity and depth.",
    "overall_scale": "1-3",
    "criterion_template": "{\"clarity\": {\"score\": 1}}",
    "equivalent_template": "{}",
    "question_max": 3,
    "examples": "Example high and low responses.",
    "guidance": "Focus on structure and clarity."
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "runtime.json"), []byte(document), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}
