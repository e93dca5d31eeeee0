package model

import (
	"testing"
)

func makeItems() []*Item {
	return []*Item{
		{ID: "a", Title: "Beta", URL: "https://example.com/b", DurationText: "03:30", LastDownload: NotDownloaded},
		{ID: "b", Title: "alpha", URL: "https://example.com/a", DurationText: "01:10", LastDownload: "2025-01-02 10:00:00"},
		{ID: "c", Title: "Gamma", URL: "https://example.com/c", DurationText: UnknownDuration, LastDownload: NotDownloaded},
		{ID: "d", Title: "delta", URL: "https://example.com/d", DurationText: "75:30", LastDownload: NotDownloaded},
	}
}

func TestSortByDuration(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	table.SortBy(ColumnDuration)

	got := table.Items()
	wantOrder := []string{"c", "b", "a", "d"} // Unknown (-1) sorts first ascending
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("ascending duration sort: position %d = %s, expected %s", i, got[i].ID, id)
		}
	}

	column, direction := table.SortState()
	if column != ColumnDuration || direction != SortAscending {
		t.Errorf("expected ascending duration sort state, got %s %s", column, direction)
	}

	// Second click on the same column toggles direction.
	table.SortBy(ColumnDuration)
	got = table.Items()
	wantOrder = []string{"d", "a", "b", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("descending duration sort: position %d = %s, expected %s", i, got[i].ID, id)
		}
	}

	if _, direction = table.SortState(); direction != SortDescending {
		t.Errorf("expected descending direction after second sort, got %s", direction)
	}
}

func TestSortByTitleCaseInsensitive(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	table.SortBy(ColumnTitle)

	got := table.Items()
	wantOrder := []string{"b", "a", "d", "c"} // alpha, Beta, delta, Gamma
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("title sort: position %d = %s, expected %s", i, got[i].ID, id)
		}
	}
}

func TestSortStableUnderEqualKeys(t *testing.T) {
	table := NewTable()
	table.Populate([]*Item{
		{ID: "one", Title: "same", DurationText: "01:00"},
		{ID: "two", Title: "same", DurationText: "01:00"},
		{ID: "three", Title: "same", DurationText: "01:00"},
	})

	table.SortBy(ColumnTitle)

	got := table.Items()
	wantOrder := []string{"one", "two", "three"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("stable sort violated: position %d = %s, expected %s", i, got[i].ID, id)
		}
	}
}

func TestSwitchingColumnResetsDirection(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	table.SortBy(ColumnTitle)
	table.SortBy(ColumnTitle) // descending
	table.SortBy(ColumnDuration)

	if _, direction := table.SortState(); direction != SortAscending {
		t.Errorf("new column should start ascending, got %s", direction)
	}
}

func TestToggleAndSelection(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	if len(table.Selected()) != 0 {
		t.Fatal("expected no selected rows initially")
	}

	table.Toggle(0)
	table.Toggle(2)
	selected := table.Selected()
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected rows, got %d", len(selected))
	}

	table.Toggle(0)
	if len(table.Selected()) != 1 {
		t.Error("toggle should flip selection off again")
	}

	table.SelectAll()
	if len(table.Selected()) != 4 {
		t.Error("SelectAll should select every row")
	}

	table.DeselectAll()
	if len(table.Selected()) != 0 {
		t.Error("DeselectAll should clear every row")
	}
}

func TestSelectUndownloaded(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	table.SelectUndownloaded()

	selected := table.Selected()
	if len(selected) != 3 {
		t.Fatalf("expected 3 undownloaded rows selected, got %d", len(selected))
	}
	for _, it := range selected {
		if it.LastDownload != NotDownloaded {
			t.Errorf("row %s has history %q, should not be selected", it.ID, it.LastDownload)
		}
	}
}

func TestRefreshHistory(t *testing.T) {
	table := NewTable()
	table.Populate(makeItems())

	history := map[string]string{
		"a": "2025-06-01 12:00:00",
		"c": "2025-06-02 13:00:00",
	}

	table.RefreshHistory(func(id string) (string, bool) {
		ts, ok := history[id]
		return ts, ok
	})

	items := table.Items()
	if items[0].LastDownload != "2025-06-01 12:00:00" {
		t.Errorf("row a not refreshed: %q", items[0].LastDownload)
	}
	if items[1].LastDownload != "2025-01-02 10:00:00" {
		t.Errorf("row b should keep its value, got %q", items[1].LastDownload)
	}
	if items[3].LastDownload != NotDownloaded {
		t.Errorf("row d should stay %q, got %q", NotDownloaded, items[3].LastDownload)
	}
}

func TestSubtitleLanguages(t *testing.T) {
	table := NewTable()
	table.Populate([]*Item{
		{ID: "a", Selected: true, SubtitleLangs: []string{"en", "zh-TW"}},
		{ID: "b", Selected: false, SubtitleLangs: []string{"fr"}},
		{ID: "c", Selected: true, SubtitleLangs: []string{"de", "en"}},
	})

	langs := table.SubtitleLanguages()
	want := []string{"de", "en", "zh-TW"}
	if len(langs) != len(want) {
		t.Fatalf("expected %d languages, got %d: %v", len(want), len(langs), langs)
	}
	for i, lang := range want {
		if langs[i] != lang {
			t.Errorf("language %d = %s, expected %s", i, langs[i], lang)
		}
	}
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"00:30", 30},
		{"01:10", 70},
		{"75:30", 4530},
		{UnknownDuration, -1},
		{UpcomingDuration, -1},
		{"", -1},
		{"1:2:3", -1},
		{"xx:yy", -1},
	}

	for _, test := range tests {
		if got := DurationSeconds(test.text); got != test.expected {
			t.Errorf("DurationSeconds(%q) = %d, expected %d", test.text, got, test.expected)
		}
	}
}
