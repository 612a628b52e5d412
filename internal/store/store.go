package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
	"github.com/oremus-labs/wsconfig-core/internal/recommend"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store wraps the persistence database used for recommendation-run and
// hardware-profile history.
type Store struct {
	db     *sql.DB
	driver string
}

var ErrNotFound = errors.New("record not found")

// Open initializes the datastore using the supplied DSN/file path and driver.
// driver is "sqlite" (default, single workstation) or "postgres" (shared
// IT-managed fleet deployment).
func Open(dsn string, driver string) (*Store, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("datastore DSN is required")
	}

	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create datastore directory: %w", err)
			}
		}
		conn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dsn)
		db, err = sql.Open("sqlite", conn)
	case "postgres":
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported datastore driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}
	if err := initSchema(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

func initSchema(db *sql.DB, driver string) error {
	var stmts []string
	if driver == "sqlite" {
		stmts = append(stmts, `PRAGMA journal_mode=WAL;`)
	}

	timestampType := "TIMESTAMP"
	if driver == "postgres" {
		timestampType = "TIMESTAMPTZ"
	}

	runsTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS recommendation_runs (
			id TEXT PRIMARY KEY,
			user_profile TEXT NOT NULL,
			hardware_profile TEXT NOT NULL,
			result TEXT NOT NULL,
			modalities TEXT NOT NULL,
			created_at %s NOT NULL
		);`, timestampType)

	snapshotsTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS hardware_snapshots (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			probed_at %s NOT NULL
		);`, timestampType)

	catalogCacheTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS catalog_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			snapshot TEXT NOT NULL,
			updated_at %s NOT NULL
		);`, timestampType)

	stmts = append(stmts,
		runsTable,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_runs_created_at ON recommendation_runs(created_at);`,
		snapshotsTable,
		`CREATE INDEX IF NOT EXISTS idx_hardware_snapshots_probed_at ON hardware_snapshots(probed_at);`,
		catalogCacheTable,
	)
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
	}
	return nil
}

func (s *Store) rebind(query string) string {
	if s == nil || s.driver != "postgres" {
		return query
	}
	var builder strings.Builder
	builder.Grow(len(query) + 8)
	arg := 1
	for _, ch := range query {
		if ch == '?' {
			builder.WriteString(fmt.Sprintf("$%d", arg))
			arg++
			continue
		}
		builder.WriteRune(ch)
	}
	return builder.String()
}

// Close shuts down the datastore.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRecommendation persists a completed recommendation run together with
// the hardware profile that produced it, so the wizard's history/back
// button can replay past results without re-running the pipeline.
func (s *Store) SaveRecommendation(result recommend.RecommendationResult, profile *hwprofile.HardwareProfile, userProfile interface{}) error {
	if s == nil || s.db == nil {
		return errors.New("datastore not configured")
	}
	if result.ID == "" {
		return errors.New("recommendation id required")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation result: %w", err)
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal hardware profile: %w", err)
	}
	userJSON, err := json.Marshal(userProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	modalities := make([]string, 0, len(result.PerModalityRankings))
	for m := range result.PerModalityRankings {
		modalities = append(modalities, string(m))
	}
	modalitiesJSON, err := json.Marshal(modalities)
	if err != nil {
		return err
	}

	createdAt, err := time.Parse(time.RFC3339, result.Timestamp)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(s.rebind(`INSERT INTO recommendation_runs (id, user_profile, hardware_profile, result, modalities, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		result.ID, string(userJSON), string(profileJSON), string(resultJSON), string(modalitiesJSON), createdAt,
	)
	return err
}

// GetRecommendation loads a previously persisted run by ID.
func (s *Store) GetRecommendation(id string) (*recommend.RecommendationResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("datastore not configured")
	}
	row := s.db.QueryRow(s.rebind(`SELECT result FROM recommendation_runs WHERE id = ?`), id)
	var resultJSON string
	if err := row.Scan(&resultJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var result recommend.RecommendationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation result: %w", err)
	}
	return &result, nil
}

// History returns the most recent recommendation runs, newest first.
func (s *Store) History(limit int) ([]recommend.RecommendationResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("datastore not configured")
	}
	query := `SELECT result FROM recommendation_runs ORDER BY created_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.Query(s.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []recommend.RecommendationResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, err
		}
		var result recommend.RecommendationResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// LatestForModality returns the most recent run whose rankings included the
// given modality, used to answer "what did we last recommend for video?"
// without replaying the whole pipeline.
func (s *Store) LatestForModality(modality modelcatalog.Modality) (*recommend.RecommendationResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("datastore not configured")
	}
	rows, err := s.db.Query(s.rebind(`SELECT result, modalities FROM recommendation_runs ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resultJSON, modalitiesJSON string
		if err := rows.Scan(&resultJSON, &modalitiesJSON); err != nil {
			return nil, err
		}
		var modalities []string
		if err := json.Unmarshal([]byte(modalitiesJSON), &modalities); err != nil {
			continue
		}
		for _, m := range modalities {
			if m == string(modality) {
				var result recommend.RecommendationResult
				if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
					continue
				}
				return &result, nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// CleanupRunsBefore removes recommendation runs older than the provided
// timestamp.
func (s *Store) CleanupRunsBefore(ts time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("datastore not configured")
	}
	res, err := s.db.Exec(s.rebind(`DELETE FROM recommendation_runs WHERE created_at < ?`), ts)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// SaveHardwareSnapshot persists a probed hardware profile, keyed by its own
// generated ID, so repeated probes build a small history of the machine's
// detected capabilities over time (useful after a GPU swap or RAM upgrade).
func (s *Store) SaveHardwareSnapshot(id string, profile *hwprofile.HardwareProfile) error {
	if s == nil || s.db == nil {
		return errors.New("datastore not configured")
	}
	if id == "" {
		return errors.New("snapshot id required")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal hardware profile: %w", err)
	}
	_, err = s.db.Exec(s.rebind(`INSERT INTO hardware_snapshots (id, profile, probed_at) VALUES (?, ?, ?)`),
		id, string(data), time.Now().UTC(),
	)
	return err
}

// LatestHardwareSnapshot returns the most recently probed hardware profile.
func (s *Store) LatestHardwareSnapshot() (*hwprofile.HardwareProfile, time.Time, error) {
	if s == nil || s.db == nil {
		return nil, time.Time{}, errors.New("datastore not configured")
	}
	row := s.db.QueryRow(s.rebind(`SELECT profile, probed_at FROM hardware_snapshots ORDER BY probed_at DESC LIMIT 1`))
	var profileJSON string
	var probedAt time.Time
	if err := row.Scan(&profileJSON, &probedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, err
	}
	var profile hwprofile.HardwareProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode hardware profile: %w", err)
	}
	return &profile, probedAt, nil
}

// SaveCatalogSnapshot persists the catalog contents for reuse when the
// on-disk catalog file is unreadable or stale (e.g. a crashed mid-write).
func (s *Store) SaveCatalogSnapshot(entries []*modelcatalog.Entry) error {
	if s == nil || s.db == nil {
		return errors.New("datastore not configured")
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog snapshot: %w", err)
	}
	_, err = s.db.Exec(s.rebind(`INSERT INTO catalog_cache (id, snapshot, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot=excluded.snapshot, updated_at=excluded.updated_at`),
		string(data), time.Now().UTC(),
	)
	return err
}

// LoadCatalogSnapshot pulls the last catalog snapshot.
func (s *Store) LoadCatalogSnapshot() ([]*modelcatalog.Entry, time.Time, error) {
	if s == nil || s.db == nil {
		return nil, time.Time{}, errors.New("datastore not configured")
	}
	row := s.db.QueryRow(s.rebind(`SELECT snapshot, updated_at FROM catalog_cache WHERE id = 1`))
	var snapshot string
	var updated time.Time
	if err := row.Scan(&snapshot, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, err
	}
	var entries []*modelcatalog.Entry
	if err := json.Unmarshal([]byte(snapshot), &entries); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}
	return entries, updated, nil
}
