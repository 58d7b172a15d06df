package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/iam"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"golang.org/x/sync/errgroup"
)

type SeedFailure struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Err        error  `json:"-"`
	Reason     string `json:"reason"`
}

type SeedReport struct {
	Uploaded map[string]int `json:"uploaded"`
	Missing  []string       `json:"missing"`
	Failed   []SeedFailure  `json:"failed"`
}

func (r *SeedReport) OK() bool {
	return len(r.Failed) == 0
}

// Seeder uploads converted artifacts into their collections. Each document is
// written against its current revision so a re-seed replaces documents in
// place instead of conflicting.
type Seeder struct {
	store       docstore.Store
	rules       RuleSet
	collections config.CollectionConfig
	concurrency int
}

func NewSeeder(store docstore.Store, rules RuleSet, conf *config.Config) *Seeder {
	concurrency := conf.Seed.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Seeder{
		store:       store,
		rules:       rules,
		collections: conf.Collections,
		concurrency: concurrency,
	}
}

// Run uploads every artifact found in dir. Rejected documents are reported and
// the run continues; an authentication failure stops it.
func (s *Seeder) Run(ctx context.Context, dir string) (*SeedReport, error) {
	report := &SeedReport{Uploaded: map[string]int{}}
	var mu sync.Mutex

	for _, name := range s.rules.Names() {
		rule := s.rules[name]
		collection := s.collections.For(rule.Entity)
		if collection == "" {
			return report, fmt.Errorf("no collection configured for %s", rule.Entity)
		}

		path := filepath.Join(dir, ArtifactName(name))
		docs, err := readArtifact(path)
		if errors.Is(err, os.ErrNotExist) {
			log.Warnw(ctx, "artifact not found", "path", path)
			report.Missing = append(report.Missing, ArtifactName(name))
			continue
		}
		if err != nil {
			return report, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, doc := range docs {
			g.Go(func() error {
				id, err := s.upload(gctx, collection, doc)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					report.Uploaded[collection]++
					return nil
				}
				report.Failed = append(report.Failed, SeedFailure{
					Collection: collection,
					ID:         id,
					Err:        err,
					Reason:     err.Error(),
				})
				var authErr *iam.AuthError
				if errors.As(err, &authErr) {
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
		log.Infow(ctx, "seeded collection", "collection", collection, "docs", report.Uploaded[collection], "artifact", path)
	}
	return report, nil
}

func (s *Seeder) upload(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id, _ := doc["_id"].(string)
	if id == "" {
		return "", fmt.Errorf("document has no _id")
	}
	delete(doc, "_rev")

	var opts []docstore.UpsertOption
	rev, err := s.store.Revision(ctx, collection, id)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
	case err != nil:
		return id, err
	default:
		opts = append(opts, docstore.WithRevision(rev))
	}

	if _, err := s.store.Upsert(ctx, collection, id, doc, opts...); err != nil {
		return id, err
	}
	return id, nil
}

func readArtifact(path string) ([]docstore.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var docs []docstore.Document
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return docs, nil
}
