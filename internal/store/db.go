package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by lookup helpers when the requested row is absent.
// Scorers translate it into a zero signal, never into a call failure.
var ErrNotFound = errors.New("store: not found")

const (
	lookupCacheTTL     = 5 * time.Minute
	lookupCacheCleanup = 10 * time.Minute
)

// Database wraps the GORM handle over the read-only reference stores and
// caches hot lookups. Connections are safe for concurrent use.
type Database struct {
	gorm  *gorm.DB
	cache *gocache.Cache
}

// Open initializes the SQLite-backed reference database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Entity{}, &EntityAlias{}, &NgramStat{}, &ConcretenessRating{}, &CorpusMeta{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{
		gorm:  db,
		cache: gocache.New(lookupCacheTTL, lookupCacheCleanup),
	}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EntityByLabel returns the entity whose label exactly equals the normalized
// phrase, or ErrNotFound.
func (d *Database) EntityByLabel(label string) (*Entity, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	key := "entity:" + label
	if cached, ok := d.cache.Get(key); ok {
		if entity, ok := cached.(*Entity); ok {
			if entity == nil {
				return nil, ErrNotFound
			}
			return entity, nil
		}
	}
	var entity Entity
	err := d.gorm.Where("label = ?", normalizeKey(label)).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.cache.SetDefault(key, (*Entity)(nil))
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(key, &entity)
	return &entity, nil
}

// AliasEntity returns the first entity registered under the supplied alias,
// or ErrNotFound.
func (d *Database) AliasEntity(alias string) (*Entity, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	key := "alias:" + alias
	if cached, ok := d.cache.Get(key); ok {
		if entity, ok := cached.(*Entity); ok {
			if entity == nil {
				return nil, ErrNotFound
			}
			return entity, nil
		}
	}
	var entity Entity
	err := d.gorm.Table("entities").
		Select("entities.*").
		Joins("JOIN entity_aliases ON entity_aliases.entity_id = entities.id").
		Where("entity_aliases.alias = ?", normalizeKey(alias)).
		Order("entities.popularity_weight DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.cache.SetDefault(key, (*Entity)(nil))
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(key, &entity)
	return &entity, nil
}

// NgramCount returns the aggregated corpus count for the supplied gram. A
// missing gram is a valid zero count, not an error.
func (d *Database) NgramCount(gram string) (int64, error) {
	if d == nil {
		return 0, errors.New("database is nil")
	}
	key := "ngram:" + gram
	if cached, ok := d.cache.Get(key); ok {
		if count, ok := cached.(int64); ok {
			return count, nil
		}
	}
	var stat NgramStat
	err := d.gorm.Where("gram = ?", normalizeKey(gram)).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.cache.SetDefault(key, int64(0))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	d.cache.SetDefault(key, stat.Count)
	return stat.Count, nil
}

// CorpusTotal returns the corpus-wide token total used for probability
// normalization.
func (d *Database) CorpusTotal() (int64, error) {
	if d == nil {
		return 0, errors.New("database is nil")
	}
	if cached, ok := d.cache.Get("meta:" + MetaCorpusTotal); ok {
		if total, ok := cached.(int64); ok {
			return total, nil
		}
	}
	var meta CorpusMeta
	if err := d.gorm.Where("key = ?", MetaCorpusTotal).First(&meta).Error; err != nil {
		return 0, fmt.Errorf("corpus total: %w", err)
	}
	d.cache.SetDefault("meta:"+MetaCorpusTotal, meta.Value)
	return meta.Value, nil
}

// ConcretenessRatings returns the ratings found for the supplied words. Words
// without a rating are simply absent from the result map.
func (d *Database) ConcretenessRatings(words []string) (map[string]float64, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	result := make(map[string]float64, len(words))
	var missing []string
	for _, word := range words {
		word = normalizeKey(word)
		if word == "" {
			continue
		}
		if cached, ok := d.cache.Get("concrete:" + word); ok {
			if rating, ok := cached.(float64); ok {
				result[word] = rating
				continue
			}
		}
		missing = append(missing, word)
	}
	if len(missing) == 0 {
		return result, nil
	}
	var rows []ConcretenessRating
	if err := d.gorm.Where("word IN ?", missing).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("concreteness lookup: %w", err)
	}
	for _, row := range rows {
		result[row.Word] = row.Rating
		d.cache.SetDefault("concrete:"+row.Word, row.Rating)
	}
	return result, nil
}

// CountEntities returns the entity row count, used by the stats endpoint.
func (d *Database) CountEntities() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Entity{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountNgrams returns the n-gram row count.
func (d *Database) CountNgrams() (int64, error) {
	var count int64
	if err := d.gorm.Model(&NgramStat{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TopEntities returns the highest popularity-weight entities, used by the
// stats endpoint for a quick sanity view of the loaded snapshot.
func (d *Database) TopEntities(limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []Entity
	if err := d.gorm.Order("popularity_weight DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_entity_aliases_alias ON entity_aliases(alias)",
		"CREATE INDEX IF NOT EXISTS idx_entities_popularity ON entities(popularity_weight)",
		"CREATE INDEX IF NOT EXISTS idx_ngram_stats_words ON ngram_stats(words)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
