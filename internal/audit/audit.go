// Package audit appends one JSON entry per screening action to a
// day-bucketed file tree. Each day's file holds a JSON array; writes to
// the same day are serialized through a single goroutine per date so the
// load-append-save cycle is never torn by a concurrent writer.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// Log appends screening actions to a day-bucketed JSON-array file tree
// and answers best-effort queries over it.
type Log struct {
	root   string
	logger *zap.Logger

	mu      sync.Mutex
	writers map[string]*dayWriter
}

// New builds a Log rooted at root. The directory is created lazily on
// first write.
func New(root string, logger *zap.Logger) *Log {
	return &Log{
		root:    root,
		logger:  logger,
		writers: make(map[string]*dayWriter),
	}
}

// dayWriter serializes every append for one calendar day through a
// single goroutine, the same get-or-create-per-key pattern used for the
// Kafka writer pool this service's event publisher keeps.
type dayWriter struct {
	jobs chan func()
	done chan struct{}
}

func (l *Log) writerFor(date string) *dayWriter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.writers[date]; ok {
		return w
	}
	w := &dayWriter{jobs: make(chan func(), 64), done: make(chan struct{})}
	go w.run()
	l.writers[date] = w
	return w
}

func (w *dayWriter) run() {
	for job := range w.jobs {
		job()
	}
	close(w.done)
}

func (w *dayWriter) submit(job func()) {
	w.jobs <- job
}

func dayPath(root, date string) string {
	return filepath.Join(root, date, fmt.Sprintf("audit_%s.json", date))
}

// Append writes entry to the day file matching entry.Timestamp. It never
// returns an error to the caller synchronously since the write itself is
// fire-and-forget; failures are logged.
func (l *Log) Append(entry domain.AuditEntry) {
	if entry.EntryID == "" {
		entry.EntryID = generateID()
	}
	entry.ContentHash = contentHash(entry)

	date := entry.Timestamp.UTC().Format("2006-01-02")
	w := l.writerFor(date)
	w.submit(func() {
		if err := l.appendSync(date, entry); err != nil {
			l.logger.Error("audit: append failed",
				zap.String("date", date), zap.String("entryId", entry.EntryID), zap.Error(err))
		}
	})
}

func (l *Log) appendSync(date string, entry domain.AuditEntry) error {
	path := dayPath(l.root, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	entries, err := readEntries(path)
	if err != nil {
		return fmt.Errorf("read audit file: %w", err)
	}
	entries = append(entries, entry)

	tmp := path + ".tmp"
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit entries: %w", err)
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write audit temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename audit temp file: %w", err)
	}
	return nil
}

func readEntries(path string) ([]domain.AuditEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.AuditEntry{}, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return []domain.AuditEntry{}, nil
	}
	var entries []domain.AuditEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ByDate returns the entries recorded for date (YYYY-MM-DD), or an empty
// slice if the day file does not exist.
func (l *Log) ByDate(date string) ([]domain.AuditEntry, error) {
	entries, err := readEntries(dayPath(l.root, date))
	if err != nil {
		return nil, fmt.Errorf("read audit file for %s: %w", date, err)
	}
	return entries, nil
}

// ByCorrelationID scans the last days daily files for entries matching id.
func (l *Log) ByCorrelationID(id string, days int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, date := range recentDates(days) {
		entries, err := l.ByDate(date)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.CorrelationID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// ByAddress scans the last days daily files for entries whose subject
// matches addr case-insensitively.
func (l *Log) ByAddress(addr string, days int) ([]domain.AuditEntry, error) {
	needle := strings.ToLower(addr)
	var out []domain.AuditEntry
	for _, date := range recentDates(days) {
		entries, err := l.ByDate(date)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if strings.ToLower(e.Subject) == needle {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// Stats aggregates basic counters over the last days daily files.
func (l *Log) Stats(days int) (domain.AuditStats, error) {
	dates := recentDates(days)
	stats := domain.AuditStats{ActionCounts: make(map[string]int)}
	if len(dates) > 0 {
		stats.DateRange = [2]string{dates[len(dates)-1], dates[0]}
	}

	var totalProcessing int64
	for _, date := range dates {
		entries, err := l.ByDate(date)
		if err != nil {
			return domain.AuditStats{}, err
		}
		for _, e := range entries {
			stats.TotalLogs++
			if e.Success {
				stats.SuccessfulLogs++
			} else {
				stats.FailedLogs++
			}
			stats.ActionCounts[e.Action]++
			totalProcessing += e.ProcessingTimeMs
		}
	}
	if stats.TotalLogs > 0 {
		stats.AverageProcessingTime = float64(totalProcessing) / float64(stats.TotalLogs)
	}
	return stats, nil
}

func recentDates(days int) []string {
	if days <= 0 {
		days = 7
	}
	dates := make([]string, 0, days)
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		dates = append(dates, now.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func contentHash(e domain.AuditEntry) string {
	stripped := e
	stripped.ContentHash = ""
	b, _ := json.Marshal(stripped)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func generateID() string {
	data := fmt.Sprintf("%d", time.Now().UnixNano())
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:16]
}
