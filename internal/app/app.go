package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"simpeg-sync/internal/config"
	"simpeg-sync/internal/dataset"
	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/services"
	"simpeg-sync/pkg/bkn"
	"simpeg-sync/pkg/db/postgres"
	rdb "simpeg-sync/pkg/db/redis"
)

// Options are the operator-facing knobs shared by every subcommand.
type Options struct {
	DatasetPath string
	NIPs        []string
	ExcludeFile string
	Commit      bool
	DeleteFiles bool
	Workers     int
}

// App owns the run-scoped resources: the database handle, the dataset index,
// the redis token cache and the action log. Open at run start, Close at run
// end; the services never manage lifecycles themselves.
type App struct {
	cfg     *config.Config
	db      *gorm.DB
	store   services.Datastore
	index   *dataset.Index
	actions *services.ActionLog
	filter  *services.Filter
	opts    Options
	cache   *rdb.Store
	client  *bkn.Client

	Summary Summary
}

func New(opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	a := &App{
		cfg:     cfg,
		db:      db,
		store:   services.NewDatastore(db),
		actions: &services.ActionLog{DryRun: !opts.Commit},
		opts:    opts,
	}

	exclude, err := readExcludeFile(opts.ExcludeFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.filter = services.NewFilter(opts.NIPs, exclude)

	if opts.DatasetPath != "" {
		records, err := dataset.Load(opts.DatasetPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.index = dataset.BuildIndex(records)
		log.Infof("dataset: %d records, %d keys, %d dropped",
			a.index.Stats.Total, a.index.Stats.Keys, a.index.Stats.Dropped)
	}

	return a, nil
}

func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warnf("closing redis: %v", err)
		}
	}
	if a.db != nil {
		if err := postgres.Close(a.db); err != nil {
			log.Warnf("closing postgres: %v", err)
		}
	}
}

// connectBKN builds the API client for commands that go to the network.
// A dead redis only disables the cross-run token cache.
func (a *App) connectBKN(ctx context.Context) {
	if a.client != nil {
		return
	}

	cache, err := rdb.New(ctx, a.cfg.RedisHost, a.cfg.RedisPort, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		log.Warnf("redis unavailable, token cache disabled: %v", err)
	} else {
		a.cache = cache
	}

	a.client = bkn.NewClient(bkn.Config{
		BaseURL:      a.cfg.BKNAPIBase,
		TokenURL:     a.cfg.BKNTokenURL,
		ClientID:     a.cfg.BKNClientID,
		ClientSecret: a.cfg.BKNClientSecret,
	}, a.cache)
}

// finish prints the summary and maps group-level failures onto the exit
// status.
func (a *App) finish() error {
	a.Summary.Print(a.actions.DryRun)
	if a.Summary.Errors > 0 {
		return fmt.Errorf("%d error(s) during run", a.Summary.Errors)
	}
	return nil
}

func (a *App) Reconcile() error {
	rec := services.NewReconciler(a.store, a.index, a.actions, a.filter, a.cfg.FileRoot, a.opts.DeleteFiles)
	res, err := rec.Run()
	if err != nil {
		return err
	}

	a.Summary.GroupsScanned = res.GroupsScanned
	a.Summary.DuplicatesResolved = res.DuplicatesResolved
	a.Summary.RowsDeleted = res.RowsDeleted
	a.Summary.FilesMerged = res.FilesMerged
	a.Summary.FilesDeactivated = res.FilesDeactivated
	a.Summary.ArtifactsDeleted = res.ArtifactsDeleted
	a.Summary.Errors = res.Errors

	return a.finish()
}

func (a *App) Cleanup() error {
	lc := services.NewLifecycle(a.store, a.index, nil, a.actions, a.filter, a.cfg.FileRoot, a.opts.DeleteFiles, a.opts.Workers)
	res, err := lc.CleanupOrphans()
	if err != nil {
		return err
	}

	a.Summary.FilesScanned = res.FilesScanned
	a.Summary.FilesDeactivated = res.FilesDeactivated
	a.Summary.ArtifactsDeleted = res.ArtifactsDeleted
	a.Summary.Errors = res.Errors

	return a.finish()
}

func (a *App) Restore(ctx context.Context) error {
	a.connectBKN(ctx)

	lc := services.NewLifecycle(a.store, a.index, a.client, a.actions, a.filter, a.cfg.FileRoot, a.opts.DeleteFiles, a.opts.Workers)
	res, err := lc.RestoreMissing(ctx)
	if err != nil {
		return err
	}

	a.Summary.FilesScanned = res.FilesScanned
	a.Summary.FilesRestored = res.Restored
	a.Summary.RestoresSkipped = res.Skipped
	a.Summary.Errors = res.Errors

	return a.finish()
}

func (a *App) Validate() error {
	v := services.NewValidator(a.store, a.index, a.filter, a.cfg.FileRoot)
	res, err := v.Run()
	if err != nil {
		return err
	}

	a.Summary.GroupsScanned = res.DuplicateGroups
	a.Summary.UnimportedKeys = res.UnimportedKeys
	a.Summary.Errors = res.Errors

	log.Infof("validate: duplicates=%d orphans=%d missing-artifacts=%d unimported=%d",
		res.DuplicateGroups, res.OrphanFiles, res.MissingArtifacts, res.UnimportedKeys)

	return a.finish()
}

// Fetch stages per-employee career-history JSON into a directory, the
// producer side of the bulk dataset the other commands consume. With
// withDocs it also downloads each record's referenced documents.
func (a *App) Fetch(ctx context.Context, outDir string, withDocs bool) error {
	nips := a.filter.IncludeList()
	if len(nips) == 0 {
		return fmt.Errorf("fetch requires at least one --nip")
	}

	a.connectBKN(ctx)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(a.opts.Workers)
	errs := make([]error, len(nips))
	for i, nip := range nips {
		i, nip := i, nip
		g.Go(func() error {
			dest := filepath.Join(outDir, nip+".json")
			if !a.actions.Note(services.ActionFetch, "nip=%s -> %s", nip, dest) {
				return nil
			}
			raw, err := a.client.FetchRiwayat(ctx, nip)
			if err != nil {
				errs[i] = err
				return nil
			}
			clean := dataset.Sanitize(raw)
			if err := os.WriteFile(dest, clean, 0o644); err != nil {
				errs[i] = err
				return nil
			}
			if withDocs {
				errs[i] = a.stageDocuments(ctx, outDir, nip, clean)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			a.Summary.Errors++
			log.Errorf("fetch: nip=%s: %v", nips[i], err)
		}
	}

	return a.finish()
}

// stageDocuments downloads the documents a fetched payload references, one
// file per (record, category) slot named by the staging convention. Existing
// files are kept; unknown document-type ids are skipped.
func (a *App) stageDocuments(ctx context.Context, outDir, nip string, raw []byte) error {
	records, err := dataset.Parse(raw)
	if err != nil {
		return err
	}

	failures := 0
	for ri := range records {
		rec := &records[ri]

		docIDs := make([]string, 0, len(rec.Path))
		for id := range rec.Path {
			docIDs = append(docIDs, id)
		}
		sort.Strings(docIDs)

		for _, docID := range docIDs {
			cat, ok := filemap.CategoryForDocID(docID)
			if !ok {
				log.Debugf("fetch: nip=%s record=%s: skipping unknown doc id %s", nip, rec.ID, docID)
				continue
			}
			ref := rec.Path[docID]
			name, err := filemap.StagingFilename(rec.ID, cat, ref.URI)
			if err != nil {
				log.Warnf("fetch: nip=%s record=%s %s: %v", nip, rec.ID, cat, err)
				failures++
				continue
			}
			dest := filepath.Join(outDir, name)
			if _, err := os.Stat(dest); err == nil {
				continue
			}
			a.actions.Note(services.ActionFetch, "nip=%s doc=%s -> %s", nip, cat, dest)
			if _, err := services.SaveDocument(ctx, a.client, ref.URI, dest); err != nil {
				log.Errorf("fetch: nip=%s document %s: %v", nip, ref.URI, err)
				failures++
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d document(s) failed to stage", failures)
	}
	return nil
}

// readExcludeFile loads the operator-supplied skip list, one NIP per line,
// '#' starting a comment.
func readExcludeFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("exclude file: %w", err)
	}
	defer f.Close()

	var nips []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nips = append(nips, line)
	}
	return nips, scanner.Err()
}
