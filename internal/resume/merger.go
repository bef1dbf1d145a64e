package resume

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/watch"
)

// DefaultDebounce is the quiet period before a watched merge runs.
const DefaultDebounce = 3 * time.Second

// Merger merges every configured section of one resume directory.
type Merger struct {
	Dir       string
	Sections  []string
	BackupDir string
	Debounce  time.Duration
	Now       func() time.Time
	Logger    *slog.Logger

	mu sync.Mutex
}

func (m *Merger) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *Merger) sections() []string {
	if len(m.Sections) == 0 {
		return frontmatter.ResumeTypes
	}
	return m.Sections
}

// MergeAll backs up the directory and merges the given sections, or every
// configured section when none are named. A failing section does not stop
// the others; the failures are joined.
func (m *Merger) MergeAll(sections ...string) ([]MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(sections) == 0 {
		sections = m.sections()
	}
	now := m.now()
	logger := m.logger()

	if stamped, err := Backup(m.Dir, m.BackupDir, now); err != nil {
		return nil, err
	} else if stamped != "" {
		logger.Info("resume: backup created", slog.String("path", stamped), slog.String("latest", m.BackupDir))
	}

	var results []MergeResult
	var errs []error
	for _, section := range sections {
		res, err := Merge(m.Dir, section, now)
		if err != nil {
			logger.Error("resume: merge failed", slog.String("section", section), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if res.Output == "" {
			logger.Warn("resume: no fragments", slog.String("section", section))
		} else {
			logger.Info("resume: merged",
				slog.String("section", section),
				slog.String("files", strings.Join(res.Files, ", ")),
				slog.String("output", res.Output))
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// isFragment reports whether rel (relative to Dir) is a fragment of a
// configured section. Merged outputs live at the top level and never match.
func (m *Merger) isFragment(rel string) bool {
	section, name, ok := strings.Cut(rel, "/")
	if !ok || strings.Contains(name, "/") {
		return false
	}
	for _, s := range m.sections() {
		if s == section {
			return fragmentPattern(section).MatchString(name)
		}
	}
	return false
}

// Watch merges all sections whenever fragments change, after a quiet
// period of Debounce. It blocks until ctx is cancelled.
func (m *Merger) Watch(ctx context.Context) error {
	d := m.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	logger := m.logger()

	deb := watch.NewDebouncer(d, func() {
		if _, err := m.MergeAll(); err != nil {
			logger.Error("resume: watched merge failed", slog.String("error", err.Error()))
		}
	})
	defer deb.Stop()

	return watch.Watch(ctx, watch.Options{
		Root:      m.Dir,
		Recursive: true,
		Match:     m.isFragment,
		OnEvent: func(rel string, _ fsnotify.Op) {
			if deb.Trigger() {
				logger.Debug("resume: debouncing merge", slog.String("path", rel))
			}
		},
		Logger: logger,
	})
}
