package types

type (
	// HistoryState is the back/forward stack and the cursor into it.
	HistoryState struct {
		Stack []string `json:"stack"`
		Index int      `json:"index"`
	}

	// Snapshot is a read-only copy of the navigation state handed to UI layers.
	Snapshot struct {
		CurrentPath   string            `json:"currentPath"`
		HomePath      string            `json:"homePath"`
		Files         []FileEntry       `json:"files"`
		ActiveContext *DirectoryContext `json:"activeContext,omitempty"`
		History       HistoryState      `json:"history"`
		CanGoBack     bool              `json:"canGoBack"`
		CanGoForward  bool              `json:"canGoForward"`
	}
)

// Len returns the number of history entries.
func (h HistoryState) Len() int {
	return len(h.Stack)
}
