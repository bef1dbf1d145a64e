// Package resume prepares resume sections before upload: it merges
// numbered fragments into one file per section, backs up the source tree,
// and converts images to embeddable JSON.
package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/storage"
)

// DateLayout is the format written to updatedAt on merge.
const DateLayout = "2006-01-02"

// MergeResult reports one section merge. Output is empty when no fragments
// matched.
type MergeResult struct {
	Section string
	Files   []string
	Output  string
}

// fragmentPattern matches {section}_{n}_{name}.md.
func fragmentPattern(section string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(section) + `_\d+_.+\.md$`)
}

// Fragments lists the fragment files of a section, sorted by name.
func Fragments(dir, section string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, section))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resume: read %s: %w", section, err)
	}
	re := fragmentPattern(section)
	var files []string
	for _, e := range entries {
		if !e.IsDir() && re.MatchString(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Merge joins the fragments of section into {dir}/{section}.md. The front
// matter of the first fragment is kept with updatedAt set to now's date;
// bodies are trimmed and separated by a blank line. Empty bodies are
// dropped.
func Merge(dir, section string, now time.Time) (*MergeResult, error) {
	res := &MergeResult{Section: section}
	files, err := Fragments(dir, section)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return res, nil
	}

	var head *frontmatter.Document
	var bodies []string
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, section, name))
		if err != nil {
			return nil, fmt.Errorf("resume: read %s: %w", name, err)
		}
		doc, err := frontmatter.ParseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("resume: %s: %w", name, err)
		}
		if head == nil {
			head = doc
			head.Set("updatedAt", now.UTC().Format(DateLayout))
		}
		if body := strings.TrimSpace(doc.Body); body != "" {
			bodies = append(bodies, body)
		}
	}

	head.Body = strings.Join(bodies, "\n\n")
	out, err := head.Bytes()
	if err != nil {
		return nil, err
	}
	res.Output = filepath.Join(dir, section+".md")
	if err := storage.WriteFileAtomic(res.Output, out); err != nil {
		return nil, fmt.Errorf("resume: write %s: %w", res.Output, err)
	}
	res.Files = files
	return res, nil
}
