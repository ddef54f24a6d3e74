// Package diagnostics implements the error taxonomy and the deterministic diagnostic
// list described in spec.md §7 and §9: a closed set of failure categories, an
// Error type that wraps an underlying cause with one of those categories, and a
// List that accumulates lenient-mode failures behind a stable de-duplication key
// and a total print order.
package diagnostics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bitbucket.org/creachadair/stringset"
)

// Category is one of the closed set of failure categories from spec.md §7.
type Category string

const (
	InvalidID               Category = "InvalidId"
	SchemaViolation         Category = "SchemaViolation"
	InvariantViolation      Category = "InvariantViolation"
	Resolution              Category = "Resolution"
	BoundsExceeded          Category = "BoundsExceeded"
	BaselineCoverageMissing Category = "BaselineCoverageMissing"
	FixpointOverflow        Category = "FixpointOverflow"
	IO                      Category = "IO"
)

// Error wraps an underlying cause with a failure Category and the subject the
// failure concerns (a canonical identifier string, a file path, or similar).
type Error struct {
	Category Category
	Subject  string
	Err      error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s(%s): %v", e.Category, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Category, so callers can
// write errors.Is(err, &diagnostics.Error{Category: diagnostics.BoundsExceeded})
// style checks, or compare *Error.Category directly after errors.As.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Category == other.Category
	}
	return false
}

// New constructs a categorized error from a format string, mirroring fmt.Errorf.
func New(category Category, subject string, format string, args ...any) *Error {
	return &Error{Category: category, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Category to an existing error without discarding it.
func Wrap(category Category, subject string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Subject: subject, Err: err}
}

// Level distinguishes lenient warnings from hard errors within a diagnostic List.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Diagnostic is one entry in a List: a located, leveled, categorized message.
// FilePath/Start/End/SubjectID form the de-duplication key from spec.md §9, along
// with Level and Message.
type Diagnostic struct {
	FilePath  string
	Start     int
	End       int
	SubjectID string
	Level     Level
	Category  Category
	Message   string
}

// key joins the (filePath, start, end, subjectId, level, message)
// de-duplication tuple from spec.md §9 into one string, since stringset.Set
// holds plain strings rather than composite keys.
func (d Diagnostic) key() string {
	return strings.Join([]string{
		d.FilePath, strconv.Itoa(d.Start), strconv.Itoa(d.End), d.SubjectID, string(d.Level), d.Message,
	}, "\x1f")
}

// List accumulates diagnostics for lenient-mode stages, de-duplicating by the
// (filePath, start, end, subjectId, level, message) key from spec.md §9 and
// printing in a total order: by FilePath, then Start, then End, then SubjectID,
// then Level, then Message.
type List struct {
	seen  stringset.Set
	items []Diagnostic
}

// NewList returns an empty diagnostic list.
func NewList() *List {
	return &List{seen: stringset.New()}
}

// Add appends d unless an equal-keyed diagnostic was already recorded.
func (l *List) Add(d Diagnostic) {
	k := d.key()
	if l.seen.Contains(k) {
		return
	}
	l.seen.Add(k)
	l.items = append(l.items, d)
}

// Merge appends every diagnostic from other into l, honoring l's own
// de-duplication key. other may be nil.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		l.Add(d)
	}
}

// Len reports how many distinct diagnostics have been recorded.
func (l *List) Len() int { return len(l.items) }

// HasErrors reports whether any recorded diagnostic is at LevelError.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Sorted returns the recorded diagnostics in canonical print order. The slice is a
// fresh copy; callers may not mutate List state through it.
func (l *List) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.Message < b.Message
	})
	return out
}

// Consolidated returns a single error listing every recorded diagnostic,
// warnings included, in canonical order, or nil if none of them is at
// LevelError.
func (l *List) Consolidated() error {
	if !l.HasErrors() {
		return nil
	}
	msg := fmt.Sprintf("%d diagnostic(s):", l.Len())
	for _, d := range l.Sorted() {
		msg += fmt.Sprintf("\n  [%s] %s %s:%d-%d %s: %s", d.Level, d.Category, d.FilePath, d.Start, d.End, d.SubjectID, d.Message)
	}
	return errors.New(msg)
}
