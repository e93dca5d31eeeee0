package model

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Column identifies a sortable preview table column.
type Column string

const (
	ColumnURL          Column = "url"
	ColumnTitle        Column = "title"
	ColumnDuration     Column = "duration"
	ColumnLastDownload Column = "last_download"
)

// SortDirection of the most recent sort.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// Table is the preview table model. All methods are safe for concurrent use;
// the UI thread and background workers both touch it.
type Table struct {
	mu            sync.RWMutex
	items         []*Item
	sortColumn    Column
	sortDirection SortDirection
}

// NewTable creates an empty preview table.
func NewTable() *Table {
	return &Table{}
}

// Populate replaces all rows with the given items.
func (t *Table) Populate(items []*Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = items
	t.sortColumn = ""
	t.sortDirection = SortAscending
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Item returns the row at index i, or nil when out of range.
func (t *Table) Item(i int) *Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.items) {
		return nil
	}
	return t.items[i]
}

// Items returns the rows in table order.
func (t *Table) Items() []*Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Item(nil), t.items...)
}

// Toggle flips the selection flag of row i.
func (t *Table) Toggle(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.items) {
		return
	}
	t.items[i].Selected = !t.items[i].Selected
}

// SetSelected sets the selection flag of row i.
func (t *Table) SetSelected(i int, selected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.items) {
		return
	}
	t.items[i].Selected = selected
}

// SelectAll marks every row selected.
func (t *Table) SelectAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.items {
		it.Selected = true
	}
}

// DeselectAll clears every selection flag.
func (t *Table) DeselectAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.items {
		it.Selected = false
	}
}

// SelectUndownloaded selects rows that have never been downloaded. Rows with
// a history entry keep their current selection state.
func (t *Table) SelectUndownloaded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.items {
		if it.LastDownload == NotDownloaded {
			it.Selected = true
		}
	}
}

// Selected returns the selected rows in table order.
func (t *Table) Selected() []*Item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var selected []*Item
	for _, it := range t.items {
		if it.Selected {
			selected = append(selected, it)
		}
	}
	return selected
}

// SubtitleLanguages returns the union of subtitle language codes across the
// selected rows, sorted.
func (t *Table) SubtitleLanguages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := make(map[string]struct{})
	for _, it := range t.items {
		if !it.Selected {
			continue
		}
		for _, lang := range it.SubtitleLangs {
			set[lang] = struct{}{}
		}
	}
	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// SortBy sorts the rows by the given column. Sorting the same column twice in
// a row toggles the direction; a new column always starts ascending. Text
// columns compare case-insensitively; the duration column compares parsed
// seconds with unparsable values sorting below any parsed duration. The sort
// is stable.
func (t *Table) SortBy(column Column) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if column == t.sortColumn {
		if t.sortDirection == SortAscending {
			t.sortDirection = SortDescending
		} else {
			t.sortDirection = SortAscending
		}
	} else {
		t.sortColumn = column
		t.sortDirection = SortAscending
	}

	descending := t.sortDirection == SortDescending

	if column == ColumnDuration {
		sort.SliceStable(t.items, func(i, j int) bool {
			a := DurationSeconds(t.items[i].DurationText)
			b := DurationSeconds(t.items[j].DurationText)
			if descending {
				return a > b
			}
			return a < b
		})
		return
	}

	sort.SliceStable(t.items, func(i, j int) bool {
		a := strings.ToLower(t.columnValue(t.items[i], column))
		b := strings.ToLower(t.columnValue(t.items[j], column))
		if descending {
			return a > b
		}
		return a < b
	})
}

// SortState returns the most recently sorted column and its direction. The
// column is empty until the first sort after Populate.
func (t *Table) SortState() (Column, SortDirection) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortColumn, t.sortDirection
}

func (t *Table) columnValue(it *Item, column Column) string {
	switch column {
	case ColumnURL:
		return it.URL
	case ColumnTitle:
		return it.Title
	case ColumnLastDownload:
		return it.LastDownload
	default:
		return ""
	}
}

// RefreshHistory updates the last-download column of every row from the given
// lookup. Rows are joined by identifier; no re-parse happens.
func (t *Table) RefreshHistory(lookup func(id string) (string, bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.items {
		if ts, ok := lookup(it.ID); ok {
			it.LastDownload = ts
		}
	}
}

// DurationSeconds parses "mm:ss" into total seconds, returning -1 when the
// text does not parse. Unknown and upcoming markers therefore sort below any
// real duration.
func DurationSeconds(text string) int {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return -1
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return -1
	}
	s, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1
	}
	return m*60 + s
}
