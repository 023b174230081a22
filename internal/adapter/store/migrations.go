package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docrag/config"
	"docrag/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo stores schema version and configuration hash.
type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)
		if b == nil {
			return nil
		}

		if versionData := b.Get(keySchemaVersion); versionData != nil {
			if err := json.Unmarshal(versionData, &info.Version); err != nil {
				return fmt.Errorf("corrupt schema version: %w", err)
			}
		}

		if hashData := b.Get(keyConfigHash); hashData != nil {
			info.ConfigHash = string(hashData)
		}

		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the database.
func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)

		versionData, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, versionData); err != nil {
			return err
		}

		return b.Put(keyConfigHash, []byte(info.ConfigHash))
	})
}

// ComputeConfigHash computes a hash of the settings that shape the corpus.
// A different hash means the stored snapshot no longer matches the config.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		DataPath     string                `json:"data_path"`
		Includes     []string              `json:"includes"`
		Excludes     []string              `json:"excludes"`
		HeadingDepth int                   `json:"heading_depth"`
		Categories   []domain.CategoryRule `json:"categories"`
	}{
		DataPath:     cfg.Corpus.DataPath,
		Includes:     cfg.Corpus.Includes,
		Excludes:     cfg.Corpus.Excludes,
		HeadingDepth: cfg.Chunking.MaxHeadingDepth,
		Categories:   cfg.Categories,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsRebuild bool
	OldVersion   int
	NewVersion   int
	Reason       string
}

// CheckMigration reports whether the snapshot must be rebuilt before use.
func (s *BoltStore) CheckMigration(cfg *config.Config) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsRebuild = true
		result.Reason = "no corpus has been indexed"
	case info.Version != CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("snapshot schema v%d does not match v%d", info.Version, CurrentSchemaVersion)
	case info.ConfigHash != ComputeConfigHash(cfg):
		result.NeedsRebuild = true
		result.Reason = "corpus configuration changed"
	}

	return result, nil
}

// MarkCurrent records the schema version and config hash after a snapshot
// was written with cfg.
func (s *BoltStore) MarkCurrent(cfg *config.Config) error {
	return s.SetSchemaInfo(&SchemaInfo{
		Version:    CurrentSchemaVersion,
		ConfigHash: ComputeConfigHash(cfg),
	})
}
