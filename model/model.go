package model

// FailedFile pairs a file path with the reason its hunk could not be applied.
type FailedFile struct {
	Path   string
	Reason string
}

// Summary holds the results of a run for display.
type Summary struct {
	Created  []string
	Modified []string
	Deleted  []string
	Renamed  []string
	Failed   []string
	Message  string
}

// Empty reports whether the summary carries no file results at all.
func (s Summary) Empty() bool {
	return len(s.Created) == 0 && len(s.Modified) == 0 && len(s.Deleted) == 0 &&
		len(s.Renamed) == 0 && len(s.Failed) == 0
}
