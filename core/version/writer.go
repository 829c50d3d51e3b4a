package version

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/core/diff"
	"github.com/santoshpalla27/aws-frontend-estimation/core/pricing"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

const (
	pointerFile    = "latest.json"
	pointerTmpFile = ".latest.json.tmp"
	metadataFile   = "version.json"
	reportFile     = "diff-report.json"
)

// Pointer is the latest.json record resolving to the current version
// directory. A pointer file, not a symlink, so the commit is a rename
// on every filesystem.
type Pointer struct {
	Version   string `json:"version"`
	Directory string `json:"directory"`
}

// Metadata is the version.json record written into each version
// directory
type Metadata struct {
	Version         string     `json:"version"`
	CreatedAt       string     `json:"createdAt"`
	PreviousVersion string     `json:"previousVersion,omitempty"`
	BumpCause       diff.Cause `json:"bumpCause"`
}

// Plan is the version transition computed for one run
type Plan struct {
	// Previous is the version the latest pointer resolved to, empty on
	// the first publish
	Previous string

	// Next is the version this run will write
	Next string

	// Cause is the service and change that drove the bump
	Cause diff.Cause
}

// Writer owns the output directory. The clock is injected so tests can
// pin createdAt.
type Writer struct {
	root  string
	clock func() time.Time
	log   *zap.Logger
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string, clock func() time.Time) *Writer {
	return &Writer{
		root:  dir,
		clock: clock,
		log:   logging.Component("version"),
	}
}

// ReadLatest returns the current pointer record. ok is false when no
// version has ever been published.
func (w *Writer) ReadLatest() (Pointer, bool, error) {
	data, err := os.ReadFile(filepath.Join(w.root, pointerFile))
	if os.IsNotExist(err) {
		return Pointer{}, false, nil
	}
	if err != nil {
		return Pointer{}, false, errors.Internal("reading latest pointer", err)
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return Pointer{}, false, errors.Parsing("latest pointer is not valid JSON", err)
	}
	if p.Version == "" || p.Directory == "" {
		return Pointer{}, false, errors.New(errors.TypeParsing, "latest pointer is incomplete")
	}
	return p, true, nil
}

// ReadLatestSnapshot returns the published snapshot for one service
// under the latest pointer. ok is false when there is no previous
// version or the service has never been published.
func (w *Writer) ReadLatestSnapshot(service string) ([]byte, bool, error) {
	ptr, ok, err := w.ReadLatest()
	if err != nil || !ok {
		return nil, false, err
	}

	data, err := os.ReadFile(filepath.Join(w.root, ptr.Directory, service+".json"))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Internal(fmt.Sprintf("reading previous snapshot for %s", service), err)
	}
	return data, true, nil
}

// Versions returns the metadata of every published version directory
// in ascending version order. Directories that do not carry a semver
// name are not the writer's and are ignored.
func (w *Writer) Versions() ([]Metadata, error) {
	entries, err := os.ReadDir(w.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("listing output root", err)
	}

	type published struct {
		semver Semver
		meta   Metadata
	}
	var found []published
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "v") {
			continue
		}
		semver, err := ParseSemver(strings.TrimPrefix(entry.Name(), "v"))
		if err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(w.root, entry.Name(), metadataFile))
		if err != nil {
			return nil, errors.Internal(fmt.Sprintf("reading metadata for %s", entry.Name()), err)
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, errors.Parsing(fmt.Sprintf("metadata for %s is not valid JSON", entry.Name()), err)
		}
		found = append(found, published{semver: semver, meta: meta})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].semver.Less(found[j].semver) })

	versions := make([]Metadata, len(found))
	for i, p := range found {
		versions[i] = p.meta
	}
	return versions, nil
}

// Plan computes the next version from the latest pointer and the
// aggregate bump of the diff report. With no pointer the previous state
// is 0.0.0.
func (w *Writer) Plan(report *diff.Report) (*Plan, error) {
	cause := report.BumpCause()

	base := Semver{}
	previous := ""
	if ptr, ok, err := w.ReadLatest(); err != nil {
		return nil, err
	} else if ok {
		parsed, err := ParseSemver(ptr.Version)
		if err != nil {
			return nil, err
		}
		base = parsed
		previous = ptr.Version
	}

	return &Plan{
		Previous: previous,
		Next:     base.Bump(cause.Bump).String(),
		Cause:    cause,
	}, nil
}

// Publish writes the complete version directory for the plan and then
// commits the latest pointer. The version directory must not already
// exist. Snapshots are stamped with the next version as they are
// written.
func (w *Writer) Publish(plan *Plan, snapshots map[string]*pricing.ServicePricing, report *diff.Report) error {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return errors.Internal("creating output root", err)
	}

	dirName := "v" + plan.Next
	dir := filepath.Join(w.root, dirName)
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return errors.VersionCollision(dir)
		}
		return errors.Internal("creating version directory", err)
	}

	for _, service := range determinism.SortedKeys(snapshots) {
		sp := snapshots[service]
		if sp.Service != service {
			return errors.Newf(errors.TypeInternal,
				"snapshot keyed %q carries service %q", service, sp.Service)
		}
		stamped := *sp
		stamped.Version = plan.Next

		data, err := determinism.MarshalCanonical(&stamped)
		if err != nil {
			return errors.Internal(fmt.Sprintf("encoding snapshot for %s", service), err)
		}
		if err := writeDurable(filepath.Join(dir, service+".json"), data); err != nil {
			return err
		}
	}

	meta := Metadata{
		Version:         plan.Next,
		CreatedAt:       w.clock().UTC().Format(time.RFC3339),
		PreviousVersion: plan.Previous,
		BumpCause:       plan.Cause,
	}
	metaData, err := determinism.MarshalCanonical(meta)
	if err != nil {
		return errors.Internal("encoding version metadata", err)
	}
	if err := writeDurable(filepath.Join(dir, metadataFile), metaData); err != nil {
		return err
	}

	reportData, err := determinism.MarshalCanonical(report)
	if err != nil {
		return errors.Internal("encoding diff report", err)
	}
	if err := writeDurable(filepath.Join(dir, reportFile), reportData); err != nil {
		return err
	}

	if err := w.commitPointer(Pointer{Version: plan.Next, Directory: dirName}); err != nil {
		return err
	}

	w.log.Info("published version",
		zap.String("version", plan.Next),
		zap.String("previous", plan.Previous),
		zap.Int("services", len(snapshots)),
		zap.String("directory", dir))
	return nil
}

// commitPointer replaces latest.json through a temp file and rename.
// This is the single commit point of a run; until it succeeds, readers
// still resolve the previous version.
func (w *Writer) commitPointer(p Pointer) error {
	data, err := determinism.MarshalCanonical(p)
	if err != nil {
		return errors.Internal("encoding latest pointer", err)
	}

	tmp := filepath.Join(w.root, pointerTmpFile)
	if err := writeDurableTruncate(tmp, data); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(w.root, pointerFile)); err != nil {
		return errors.Internal("committing latest pointer", err)
	}
	return nil
}

// writeDurable creates a new file, writes data, and fsyncs before
// closing. Files inside a version directory are never rewritten.
func writeDurable(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Internal(fmt.Sprintf("creating %s", path), err)
	}
	return writeAndSync(f, path, data)
}

// writeDurableTruncate is writeDurable for the pointer temp file, which
// a crashed run may have left behind.
func writeDurableTruncate(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Internal(fmt.Sprintf("creating %s", path), err)
	}
	return writeAndSync(f, path, data)
}

func writeAndSync(f *os.File, path string, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Internal(fmt.Sprintf("writing %s", path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Internal(fmt.Sprintf("syncing %s", path), err)
	}
	if err := f.Close(); err != nil {
		return errors.Internal(fmt.Sprintf("closing %s", path), err)
	}
	return nil
}
