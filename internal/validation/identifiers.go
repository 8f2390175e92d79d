package validation

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"go.uber.org/zap"
)

// DefaultIdentifierLists are the flat efun lists read from the corpus root.
var DefaultIdentifierLists = []string{"all_efuns.txt", "merentha_efuns.txt"}

// IdentifierTable maps known identifier names to the lists declaring them.
// It is immutable after LoadIdentifiers returns.
type IdentifierTable struct {
	sources map[string][]string
	names   []string
}

// NewIdentifierTable builds a table from list name -> identifiers.
func NewIdentifierTable(lists map[string][]string) *IdentifierTable {
	listNames := make([]string, 0, len(lists))
	for name := range lists {
		listNames = append(listNames, name)
	}
	sort.Strings(listNames)

	t := &IdentifierTable{sources: make(map[string][]string)}
	for _, list := range listNames {
		for _, id := range lists[list] {
			t.add(id, list)
		}
	}
	t.seal()
	return t
}

// LoadIdentifiers reads each list under root, one identifier per line.
// Blank lines and '#' comments are skipped. A list that cannot be read
// contributes nothing.
func LoadIdentifiers(ctx context.Context, root string, lists []string, logger *logging.Logger) *IdentifierTable {
	if logger == nil {
		logger = logging.NewNop()
	}

	t := &IdentifierTable{sources: make(map[string][]string)}
	for _, list := range lists {
		ids, err := readList(filepath.Join(root, list))
		if err != nil {
			logger.Debug(ctx, "identifier list unavailable", zap.String("list", list), zap.Error(err))
			continue
		}
		for _, id := range ids {
			t.add(id, list)
		}
	}
	t.seal()

	logger.Debug(ctx, "identifier table loaded",
		zap.Int("identifiers", len(t.names)),
		zap.Strings("lists", lists),
	)
	return t
}

func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *IdentifierTable) add(name, list string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, s := range t.sources[name] {
		if s == list {
			return
		}
	}
	t.sources[name] = append(t.sources[name], list)
}

func (t *IdentifierTable) seal() {
	t.names = make([]string, 0, len(t.sources))
	for name, lists := range t.sources {
		sort.Strings(lists)
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
}

// Len returns the number of distinct identifiers.
func (t *IdentifierTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the identifiers in sorted order.
func (t *IdentifierTable) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Sources returns the lists that declare name.
func (t *IdentifierTable) Sources(name string) []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.sources[name]))
	copy(out, t.sources[name])
	return out
}

// Find returns the identifiers occurring verbatim in text, sorted.
func (t *IdentifierTable) Find(text string) []string {
	if t == nil {
		return nil
	}
	var found []string
	for _, name := range t.names {
		if strings.Contains(text, name) {
			found = append(found, name)
		}
	}
	return found
}
