package cli

import (
	"errors"
	"fmt"
	"os"

	"docrag/config"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

var errNoSnapshot = errors.New("no corpus snapshot found. Run 'docrag index' first")

// openSnapshot opens the corpus store of the workspace. A snapshot built with
// a different corpus configuration is still returned, with a warning.
func openSnapshot() (*store.BoltStore, error) {
	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, errNoSnapshot
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus store: %w", err)
	}

	migration, err := st.CheckMigration(GetConfig())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild && migration.OldVersion != 0 {
		GetLogger().Warn("snapshot is stale, run 'docrag index' to rebuild", "reason", migration.Reason)
	}
	return st, nil
}

// loadCorpus reads the whole snapshot of the workspace together with its
// statistics.
func loadCorpus() (*domain.Corpus, domain.Statistics, error) {
	st, err := openSnapshot()
	if err != nil {
		return nil, domain.Statistics{}, err
	}
	defer st.Close()

	corpus, err := st.Load()
	if errors.Is(err, domain.ErrCorpusNotFound) {
		return nil, domain.Statistics{}, errNoSnapshot
	}
	if err != nil {
		return nil, domain.Statistics{}, fmt.Errorf("failed to load corpus: %w", err)
	}

	stats, err := snapshotStats(st)
	if err != nil {
		return nil, domain.Statistics{}, err
	}
	return corpus, stats, nil
}

// snapshotStats returns the statistics saved with the snapshot. A snapshot
// stored without them is summarised from its contents.
func snapshotStats(st port.CorpusStore) (domain.Statistics, error) {
	stats, err := st.Stats()
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, domain.ErrCorpusNotFound) {
		return domain.Statistics{}, fmt.Errorf("failed to read statistics: %w", err)
	}

	corpus, err := st.Load()
	if errors.Is(err, domain.ErrCorpusNotFound) {
		return domain.Statistics{}, errNoSnapshot
	}
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("failed to load corpus: %w", err)
	}
	return usecase.Report(corpus.Documents, corpus.Chunks), nil
}
