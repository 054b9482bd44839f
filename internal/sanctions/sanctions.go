// Package sanctions maintains the in-memory sanctions index: entities
// consolidated by id, an address -> entities lookup, and name/alias
// search. It reloads from a Source on a fixed TTL and swaps the index
// atomically so concurrent readers never observe a torn state.
package sanctions

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ledgerwatch/btc-sanctions/internal/apperr"
	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// TTL is how long a loaded index is trusted before the next access
// triggers a reload.
const TTL = time.Hour

// Source supplies the raw sanctions-list bytes. FileSource is the
// production implementation; a fixture-backed Source is used in tests.
type Source interface {
	Load() ([]byte, error)
}

// FileSource reads the sanctions document from a path on disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load() ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.DataLoad, "read sanctions source", err)
	}
	return b, nil
}

type rawDocument struct {
	Metadata struct {
		Source           string         `json:"source"`
		LastUpdated      string         `json:"lastUpdated"`
		Version          string         `json:"version"`
		TotalEntities    int            `json:"totalEntities"`
		Cryptocurrencies map[string]int `json:"cryptocurrencies"`
	} `json:"metadata"`
	Entities []rawEntity `json:"entities"`
}

type rawEntity struct {
	EntityID      string `json:"entityId"`
	EntityName    string `json:"entityName"`
	EntityType    string `json:"entityType"`
	Program       string `json:"program"`
	Cryptocurrency string `json:"cryptocurrency"`
	Address       string `json:"address"`
	Remarks       string `json:"remarks"`
	IsActive      bool   `json:"isActive"`
}

var akaPattern = regexp.MustCompile(`a\.k\.a\.\s*['"]([^'"]+)['"]`)

// Index is the consolidated, queryable sanctions list. Zero value is not
// usable; construct with New.
type Index struct {
	source Source

	mu           sync.RWMutex
	entities     map[string]*domain.SanctionEntity // by entityId
	byAddress    map[string][]*domain.SanctionEntity
	metadata     domain.SanctionsMetadata
	lastLoadTime time.Time
}

// New builds an Index backed by the given Source. The first access
// triggers the initial load.
func New(source Source) *Index {
	return &Index{source: source}
}

func (ix *Index) ensureFresh() error {
	ix.mu.RLock()
	stale := ix.lastLoadTime.IsZero() || time.Since(ix.lastLoadTime) > TTL
	ix.mu.RUnlock()
	if !stale {
		return nil
	}
	return ix.reload()
}

func (ix *Index) reload() error {
	b, err := ix.source.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.DataLoad, "load sanctions index", err)
	}

	entities := make(map[string]*domain.SanctionEntity)
	order := make([]string, 0)
	var meta domain.SanctionsMetadata

	if err == nil {
		var doc rawDocument
		if uerr := json.Unmarshal(b, &doc); uerr != nil {
			return apperr.Wrap(apperr.DataLoad, "parse sanctions index", uerr)
		}
		meta = domain.SanctionsMetadata{
			Source:           doc.Metadata.Source,
			LastUpdated:      doc.Metadata.LastUpdated,
			Version:          doc.Metadata.Version,
			TotalEntities:    doc.Metadata.TotalEntities,
			Cryptocurrencies: doc.Metadata.Cryptocurrencies,
		}
		for _, row := range doc.Entities {
			if !row.IsActive {
				continue
			}
			ent, ok := entities[row.EntityID]
			if !ok {
				ent = &domain.SanctionEntity{
					EntityID:   row.EntityID,
					Name:       row.EntityName,
					ListSource: domain.OFAC,
					Active:     true,
				}
				entities[row.EntityID] = ent
				order = append(order, row.EntityID)
			}
			if row.Address != "" && !containsFold(ent.Addresses, row.Address) {
				ent.Addresses = append(ent.Addresses, row.Address)
			}
			for _, alias := range extractAliases(row.Remarks) {
				if !contains(ent.Aliases, alias) {
					ent.Aliases = append(ent.Aliases, alias)
				}
			}
			if ent.LastUpdated == "" {
				ent.LastUpdated = meta.LastUpdated
			}
		}
	}

	byAddress := make(map[string][]*domain.SanctionEntity)
	for _, id := range order {
		ent := entities[id]
		for _, addr := range ent.Addresses {
			key := strings.ToLower(addr)
			byAddress[key] = append(byAddress[key], ent)
		}
	}

	ix.mu.Lock()
	ix.entities = entities
	ix.byAddress = byAddress
	ix.metadata = meta
	ix.lastLoadTime = time.Now()
	ix.mu.Unlock()
	return nil
}

func extractAliases(remarks string) []string {
	matches := akaPattern.FindAllStringSubmatch(remarks, -1)
	aliases := make([]string, 0, len(matches))
	for _, m := range matches {
		trimmed := strings.TrimSpace(m[1])
		if trimmed != "" {
			aliases = append(aliases, trimmed)
		}
	}
	return aliases
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// All returns every active entity. Order is unspecified.
func (ix *Index) All() ([]*domain.SanctionEntity, error) {
	if err := ix.ensureFresh(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]*domain.SanctionEntity, 0, len(ix.entities))
	for _, e := range ix.entities {
		out = append(out, e)
	}
	return out, nil
}

// FindByAddress returns every entity whose address set contains addr,
// compared case-insensitively.
func (ix *Index) FindByAddress(addr string) ([]*domain.SanctionEntity, error) {
	if err := ix.ensureFresh(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.byAddress[strings.ToLower(addr)], nil
}

// FindByAddresses is the batched form of FindByAddress.
func (ix *Index) FindByAddresses(addrs []string) (map[string][]*domain.SanctionEntity, error) {
	if err := ix.ensureFresh(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string][]*domain.SanctionEntity, len(addrs))
	for _, a := range addrs {
		out[a] = ix.byAddress[strings.ToLower(a)]
	}
	return out, nil
}

// SearchByName matches q case-insensitively against entity names and
// aliases.
func (ix *Index) SearchByName(q string) ([]*domain.SanctionEntity, error) {
	if err := ix.ensureFresh(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(q)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []*domain.SanctionEntity
	for _, e := range ix.entities {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
			continue
		}
		for _, alias := range e.Aliases {
			if strings.Contains(strings.ToLower(alias), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// Metadata returns the last loaded document's summary fields.
func (ix *Index) Metadata() (domain.SanctionsMetadata, error) {
	if err := ix.ensureFresh(); err != nil {
		return domain.SanctionsMetadata{}, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.metadata, nil
}

// Clear forces the next access to reload from the source.
func (ix *Index) Clear() {
	ix.mu.Lock()
	ix.lastLoadTime = time.Time{}
	ix.mu.Unlock()
}
