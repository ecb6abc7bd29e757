package language_test

import (
	"errors"
	"strings"
	"testing"

	"talknote/internal/language"
	"talknote/internal/services"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"French", "fr"},
		{" german ", "de"},
		{"zho", "zh"},
		{"xx", "xx"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := language.ToISO2(tt.input); got != tt.expected {
			t.Fatalf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":  "English",
		"fra": "French",
		"":    "Unknown",
		"qq":  "QQ",
	}
	for input, want := range tests {
		if got := language.DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"auto", ""},
		{"AUTO", ""},
		{"", ""},
		{"fr", "French"},
		{"spanish", "Spanish"},
		{"brazilian portuguese", "Brazilian Portuguese"},
	}
	for _, tt := range tests {
		if got := language.TargetName(tt.input); got != tt.want {
			t.Fatalf("TargetName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSampleCountsRunes(t *testing.T) {
	if got := language.Sample("  héllo wörld  ", 5); got != "héllo" {
		t.Fatalf("unexpected sample %q", got)
	}
	if got := language.Sample("short", 500); got != "short" {
		t.Fatalf("unexpected sample %q", got)
	}
}

func TestDetect(t *testing.T) {
	english := strings.Repeat("The quarterly planning meeting reviewed the budget and agreed on the next steps for the product launch. ", 4)
	french := strings.Repeat("La réunion de planification a examiné le budget et a décidé des prochaines étapes pour le lancement du produit. ", 4)

	got, err := language.Detect(english, 500)
	if err != nil {
		t.Fatalf("Detect english: %v", err)
	}
	if got.Code != "en" {
		t.Fatalf("expected en, got %+v", got)
	}

	got, err = language.Detect(french, 500)
	if err != nil {
		t.Fatalf("Detect french: %v", err)
	}
	if got.Code != "fr" {
		t.Fatalf("expected fr, got %+v", got)
	}
}

func TestDetectEmptyIsLanguageDetectionError(t *testing.T) {
	_, err := language.Detect("   ", 500)
	if !errors.Is(err, services.ErrLanguageDetection) {
		t.Fatalf("expected language detection error, got %v", err)
	}
	if !services.IsDomain(err) {
		t.Fatal("expected domain error")
	}
}
