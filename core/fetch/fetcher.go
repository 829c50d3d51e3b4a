// Package fetch downloads the raw offer document for every enabled
// service and records the outcome in a run manifest. Every service is
// attempted so the manifest is complete, but the phase as a whole is
// all-or-nothing: a single failed download aborts the run before
// normalization begins.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/config"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// FailedDownload records one service that could not be fetched
type FailedDownload struct {
	Service string `json:"service"`
	Reason  string `json:"reason"`
}

// Manifest records which services were downloaded in one run. Its
// Downloaded set is the baseline for the end-of-run parity check, and
// Checksums carries the sha256 of each raw document as received.
type Manifest struct {
	RunID      string            `json:"runId"`
	Downloaded []string          `json:"downloaded"`
	Checksums  map[string]string `json:"checksums,omitempty"`
	Failed     []FailedDownload  `json:"failed,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Fetcher downloads offer documents with bounded concurrency
type Fetcher struct {
	client  *http.Client
	baseURL string
	workDir string
	limit   int
	log     *zap.Logger
}

// New creates a fetcher from the application configuration
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		},
		baseURL: cfg.Fetch.BaseURL,
		workDir: cfg.WorkDir,
		limit:   cfg.Fetch.Concurrency,
		log:     logging.Component("fetch"),
	}
}

// RawPath returns where a service's raw document is stored
func (f *Fetcher) RawPath(code string) string {
	return filepath.Join(f.workDir, "raw", code+".json")
}

// ManifestPath returns where a run's manifest is stored
func (f *Fetcher) ManifestPath(runID string) string {
	return filepath.Join(f.workDir, fmt.Sprintf("manifest-%s.json", runID))
}

// FetchAll downloads every definition's offer document. Downloads run
// concurrently up to the configured limit, and a failure does not stop
// the remaining attempts. The manifest is written before the outcome
// is gated, so a failed run still leaves a complete record behind.
func (f *Fetcher) FetchAll(ctx context.Context, defs []registry.ServiceDefinition) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Join(f.workDir, "raw"), 0755); err != nil {
		return nil, errors.Wrap(errors.TypeFetch, "cannot create download directory", err)
	}

	outcomes := make([]error, len(defs))
	sums := make([]determinism.ContentHash, len(defs))
	var group errgroup.Group
	group.SetLimit(f.limit)
	for i, def := range defs {
		i, def := i, def
		group.Go(func() error {
			sums[i], outcomes[i] = f.download(ctx, def)
			return nil
		})
	}
	group.Wait()

	manifest := &Manifest{
		RunID:     uuid.New().String(),
		Checksums: make(map[string]string, len(defs)),
		Timestamp: time.Now().UTC(),
	}
	for i, def := range defs {
		if err := outcomes[i]; err != nil {
			f.log.Error("download failed", zap.String("service", def.Code), zap.Error(err))
			manifest.Failed = append(manifest.Failed, FailedDownload{Service: def.Code, Reason: err.Error()})
			continue
		}
		manifest.Downloaded = append(manifest.Downloaded, def.Code)
		manifest.Checksums[def.Code] = sums[i].Hex()
	}
	sort.Strings(manifest.Downloaded)
	sort.Slice(manifest.Failed, func(i, j int) bool {
		return manifest.Failed[i].Service < manifest.Failed[j].Service
	})

	if err := f.writeManifest(manifest); err != nil {
		return nil, err
	}

	if len(manifest.Failed) > 0 {
		names := make([]string, len(manifest.Failed))
		for i, failed := range manifest.Failed {
			names[i] = failed.Service
		}
		return manifest, errors.Newf(errors.TypeFetch, "%d of %d downloads failed: %s",
			len(manifest.Failed), len(defs), strings.Join(names, ", ")).
			WithContext("failed", names)
	}

	f.log.Info("fetch phase complete",
		zap.String("runId", manifest.RunID),
		zap.Int("services", len(manifest.Downloaded)),
	)
	return manifest, nil
}

// download streams one offer document to disk, hashing it on the way
// through. The response body is copied directly to the file so document
// size never bounds memory.
func (f *Fetcher) download(ctx context.Context, def registry.ServiceDefinition) (determinism.ContentHash, error) {
	var sum determinism.ContentHash

	url := def.URL
	if !strings.HasPrefix(url, "http") {
		url = f.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sum, errors.FetchFailure(def.Code, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return sum, errors.FetchFailure(def.Code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sum, errors.FetchFailure(def.Code, fmt.Errorf("offer file returned status %d", resp.StatusCode)).
			WithContext("url", url)
	}

	path := f.RawPath(def.Code)
	file, err := os.Create(path)
	if err != nil {
		return sum, errors.FetchFailure(def.Code, err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hasher), resp.Body)
	if err != nil {
		file.Close()
		os.Remove(path)
		return sum, errors.FetchFailure(def.Code, err)
	}
	if err := file.Close(); err != nil {
		return sum, errors.FetchFailure(def.Code, err)
	}
	if written == 0 {
		os.Remove(path)
		return sum, errors.FetchFailure(def.Code, fmt.Errorf("offer file is empty"))
	}
	hasher.Sum(sum[:0])

	f.log.Info("downloaded offer file",
		zap.String("service", def.Code),
		zap.Int64("bytes", written),
		zap.Stringer("sha256", sum),
	)
	return sum, nil
}

func (f *Fetcher) writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "cannot encode manifest", err)
	}
	path := f.ManifestPath(m.RunID)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(errors.TypeFetch, "cannot write manifest", err)
	}
	f.log.Debug("wrote manifest", zap.String("path", path))
	return nil
}
