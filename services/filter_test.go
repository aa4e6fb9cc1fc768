package services

import "testing"

const defaultPattern = `^(iPhone[^,]*), (\d+ ГБ)$`

func TestTitleFilterSplit(t *testing.T) {
	filter, err := NewTitleFilter(defaultPattern)
	if err != nil {
		t.Fatalf("compile default pattern: %v", err)
	}

	tests := []struct {
		title  string
		model  string
		memory string
		ok     bool
	}{
		{"iPhone 13 Pro, 256 ГБ", "iPhone 13 Pro", "256 ГБ", true},
		{"iPhone 12, 128 ГБ", "iPhone 12", "128 ГБ", true},
		{"iPhone SE (2022), 64 ГБ", "iPhone SE (2022)", "64 ГБ", true},

		{"iPhone 13 Pro 256GB", "", "", false},
		{"iPhone 13 Pro, 256 GB", "", "", false},
		{"Новый iPhone 13 Pro, 256 ГБ", "", "", false},
		{"iPhone 13 Pro, 256 ГБ в идеале", "", "", false},
		{"Samsung Galaxy S22, 256 ГБ", "", "", false},
		{"iPhone 13 Pro", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		model, memory, ok := filter.Split(tt.title)
		if ok != tt.ok {
			t.Errorf("Split(%q) ok = %v; want %v", tt.title, ok, tt.ok)
			continue
		}
		if model != tt.model || memory != tt.memory {
			t.Errorf("Split(%q) = (%q, %q); want (%q, %q)", tt.title, model, memory, tt.model, tt.memory)
		}
	}
}

func TestNewTitleFilterRejectsBadPatterns(t *testing.T) {
	if _, err := NewTitleFilter(`^(unclosed`); err == nil {
		t.Error("expected error for an invalid regexp")
	}
	if _, err := NewTitleFilter(`^iPhone$`); err == nil {
		t.Error("expected error for a pattern without capture groups")
	}
	if _, err := NewTitleFilter(`^(a)(b)(c)$`); err == nil {
		t.Error("expected error for a pattern with three capture groups")
	}
}
