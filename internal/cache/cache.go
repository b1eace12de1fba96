package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileRegexp matches persisted series files and captures the netuid.
var fileRegexp = regexp.MustCompile(`^validator_data\.(\d+)\.json$`)

// Store reads and writes per-subnet series files under one directory.
// Each file holds a single-key object: the netuid string mapped to the
// wire-form series.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(netuid int) string {
	return filepath.Join(s.dir, fmt.Sprintf("validator_data.%d.json", netuid))
}

// Load returns the persisted series for netuid, or (nil, nil) when no file
// exists yet.
func (s *Store) Load(netuid int) (*series.ValidatorSeries, error) {
	data, err := os.ReadFile(s.path(netuid))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read subnet %d: %w", netuid, err)
	}

	var byNetuid map[string]series.WireSeries
	if err := json.Unmarshal(data, &byNetuid); err != nil {
		return nil, fmt.Errorf("cache: parse subnet %d: %w", netuid, err)
	}
	w, ok := byNetuid[strconv.Itoa(netuid)]
	if !ok {
		return nil, fmt.Errorf("cache: subnet %d missing from its own file", netuid)
	}
	return series.FromWire(w), nil
}

// LoadAll loads every available cached series for the given subnets.
// Unreadable files are logged and skipped; a bad cache entry must not block
// a fresh reconstruction.
func (s *Store) LoadAll(netuids []int) map[int]*series.ValidatorSeries {
	out := make(map[int]*series.ValidatorSeries, len(netuids))
	for _, n := range netuids {
		vs, err := s.Load(n)
		if err != nil {
			slog.Warn("cache: ignoring unreadable entry", "netuid", n, "err", err)
			continue
		}
		if vs != nil {
			out[n] = vs
		}
	}
	return out
}

// Save writes the series for netuid, replacing any previous file.
func (s *Store) Save(netuid int, vs *series.ValidatorSeries) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	data, err := json.MarshalIndent(map[string]series.WireSeries{
		strconv.Itoa(netuid): series.ToWire(vs),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode subnet %d: %w", netuid, err)
	}
	if err := os.WriteFile(s.path(netuid), data, 0o644); err != nil {
		return fmt.Errorf("cache: write subnet %d: %w", netuid, err)
	}
	return nil
}

// Netuids returns the sorted subnet ids that have a persisted series file.
// A missing directory yields an empty list, not an error.
func (s *Store) Netuids() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: scan dir: %w", err)
	}

	var netuids []int
	for _, e := range entries {
		m := fileRegexp.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		netuids = append(netuids, n)
	}
	sort.Ints(netuids)
	return netuids, nil
}
