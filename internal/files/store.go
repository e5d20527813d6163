package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pantau/pantau/internal/domain"
)

// ErrOutsideRoot is returned for paths that resolve outside the storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// Store is the upload tree rooted at a directory. Paths handed in and out
// are slash-separated and relative to the root.
type Store struct {
	root string
	now  func() time.Time
}

// New creates the root directory if needed and returns a Store over it.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: abs, now: time.Now}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a stored path to an absolute path inside the root.
func (s *Store) Abs(rel string) (string, error) {
	rel = CleanRel(rel)
	if rel == "" {
		return "", ErrOutsideRoot
	}
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.root, abs)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// Exists reports whether rel is a regular file.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Open opens a stored file for reading.
func (s *Store) Open(rel string) (*os.File, error) {
	abs, err := s.Abs(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// EnsureDir creates the directory of loc. It is a no-op when it exists.
func (s *Store) EnsureDir(loc Location) (string, error) {
	abs, err := s.Abs(loc.Dir())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", loc.Dir(), err)
	}
	return abs, nil
}

// Save writes r into loc as {unixMillis}_{original base name}. The stored
// name is never reused; on collision the timestamp is bumped.
func (s *Store) Save(loc Location, original string, r io.Reader) (domain.Attachment, error) {
	dir, err := s.EnsureDir(loc)
	if err != nil {
		return domain.Attachment{}, err
	}

	base := baseName(original)
	millis := s.now().UnixMilli()

	var f *os.File
	var stored string
	for attempt := 0; attempt < 100; attempt++ {
		stored = strconv.FormatInt(millis+int64(attempt), 10) + "_" + base
		f, err = os.OpenFile(filepath.Join(dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil || !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return domain.Attachment{}, fmt.Errorf("failed to write file: %w", err)
	}

	return domain.Attachment{
		Name: base,
		Path: path.Join(loc.Dir(), stored),
		Size: size,
	}, nil
}

func baseName(original string) string {
	original = strings.ReplaceAll(original, "\\", "/")
	if i := strings.LastIndex(original, "/"); i >= 0 {
		original = original[i+1:]
	}
	original = strings.TrimSpace(original)
	if original == "" || original == "." || original == ".." {
		return "file"
	}
	return original
}

// Move renames rel into loc keeping its stored name, then removes the old
// directories left empty. It returns the new stored path.
func (s *Store) Move(rel string, loc Location) (string, error) {
	to := path.Join(loc.Dir(), path.Base(CleanRel(rel)))
	if err := s.Rename(rel, to); err != nil {
		return "", err
	}
	return to, nil
}

// Rename moves the stored file from to to, creating the target directory
// and removing the source directories left empty.
func (s *Store) Rename(from, to string) error {
	fromAbs, err := s.Abs(from)
	if err != nil {
		return err
	}
	toAbs, err := s.Abs(to)
	if err != nil {
		return err
	}
	if fromAbs == toAbs {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(toAbs), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.Rename(fromAbs, toAbs); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}
	s.cleanupEmpty(filepath.Dir(fromAbs))
	return nil
}

// Remove deletes a stored file and its emptied parent directories. A file
// that is already gone is not an error.
func (s *Store) Remove(rel string) error {
	abs, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.cleanupEmpty(filepath.Dir(abs))
	return nil
}

// cleanupEmpty removes dir and its parents while they are empty, stopping
// at the root.
func (s *Store) cleanupEmpty(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root+string(filepath.Separator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// FindStaffFile looks for storedName in the day folder of every owner of a
// report type, No-Pimpinan first. It is used when the path recorded in the
// database no longer exists.
func (s *Store) FindStaffFile(t domain.StaffReportType, date time.Time, storedName string) (string, bool) {
	storedName = path.Base(CleanRel(storedName))
	if storedName == "" || storedName == "." {
		return "", false
	}

	typeDir := StaffTypeDir(t)
	candidates := []string{path.Join(typeDir, NoLeaderFolder, MonthFolder(date), DayFolder(date), storedName)}

	pattern := "*/" + MonthFolder(date) + "/" + DayFolder(date)
	fsys := os.DirFS(filepath.Join(s.root, filepath.FromSlash(typeDir)))
	_ = doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() && !strings.HasPrefix(p, NoLeaderFolder+"/") {
			candidates = append(candidates, path.Join(typeDir, p, storedName))
		}
		return nil
	})

	for _, c := range candidates {
		if s.Exists(c) {
			return c, true
		}
	}
	return "", false
}

// Entry is a stored file found by a directory scan.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Day groups the files of one YYYY-MM-DD folder.
type Day struct {
	Day   int     `json:"day"`
	Date  string  `json:"-"`
	Files []Entry `json:"files"`
}

var dayFolderRe = regexp.MustCompile(`^\d{4}-\d{2}-(\d{2})$`)

// MonthDays scans {base}/{YYYY-MM}/ and returns the day folders holding at
// least one regular file, sorted by day. Folders not named YYYY-MM-DD are
// ignored. A missing month is not an error.
func (s *Store) MonthDays(base string, year int, month time.Month) ([]Day, error) {
	monthFolder := fmt.Sprintf("%04d-%02d", year, int(month))
	return s.scanDays(context.Background(), path.Join(base, monthFolder), monthFolder+"-*/*", nil)
}

// RangeDays scans every {base}/{YYYY-MM}/{YYYY-MM-DD}/ folder whose date lies
// between from and to inclusive, both formatted YYYY-MM-DD. The tree is
// walked once whatever the width of the range.
func (s *Store) RangeDays(ctx context.Context, base, from, to string) ([]Day, error) {
	return s.scanDays(ctx, base, "*/*/*", func(dir string) bool {
		month, day := path.Split(dir)
		if strings.TrimSuffix(month, "/") != day[:7] {
			return false
		}
		return day >= from && day <= to
	})
}

// scanDays groups the regular files matched by pattern under dirRel by
// their YYYY-MM-DD parent folder. keep, when set, filters on the slash
// path of that folder relative to dirRel.
func (s *Store) scanDays(ctx context.Context, dirRel, pattern string, keep func(dir string) bool) ([]Day, error) {
	dirAbs, err := s.Abs(dirRel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dirAbs); errors.Is(err, fs.ErrNotExist) {
		return []Day{}, nil
	}

	byDay := map[string]*Day{}
	err = doublestar.GlobWalk(os.DirFS(dirAbs), pattern, func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		dir, name := path.Split(p)
		dir = strings.TrimSuffix(dir, "/")
		dayFolder := path.Base(dir)
		m := dayFolderRe.FindStringSubmatch(dayFolder)
		if m == nil || (keep != nil && !keep(dir)) {
			return nil
		}
		day, ok := byDay[dayFolder]
		if !ok {
			n, _ := strconv.Atoi(m[1])
			day = &Day{Day: n, Date: dayFolder}
			byDay[dayFolder] = day
		}
		day.Files = append(day.Files, Entry{Name: name, Path: path.Join(dirRel, p)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dirRel, err)
	}

	days := make([]Day, 0, len(byDay))
	for _, d := range byDay {
		sort.Slice(d.Files, func(i, j int) bool { return d.Files[i].Name < d.Files[j].Name })
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// DayFiles lists the regular files of {base}/{YYYY-MM}/{YYYY-MM-DD} sorted
// by name. A missing folder yields no files.
func (s *Store) DayFiles(base string, date time.Time) ([]Entry, error) {
	dayRel := Location{Base: base, Date: date}.Dir()
	abs, err := s.Abs(dayRel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, Entry{Name: e.Name(), Path: path.Join(dayRel, e.Name())})
		}
	}
	return out, nil
}
