package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gonum.org/v1/gonum/mat"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	customlogger "github.com/himanishpuri/AcousticScene/pkg/logger"
	"github.com/himanishpuri/AcousticScene/internal/scaler"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

const DefaultDBFile = "features.sqlite3"
const errDBClientNil = "db client is nil"

var (
	ErrFeatureNotFound = errors.New("feature not found")
	ErrScalerNotFound  = errors.New("scaler not found")
	ErrRunNotFound     = errors.New("evaluation run not found")
)

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Feature is one log-mel matrix keyed by recording id. Data holds the
// gonum binary encoding of the (Frames x Bins) matrix.
type Feature struct {
	RecordingID string    `gorm:"primaryKey;type:varchar(255)" json:"recording_id"`
	Frames      int       `json:"frames"`
	Bins        int       `json:"bins"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Scaler struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)" json:"name"`
	WithMean  bool      `json:"with_mean"`
	WithStd   bool      `json:"with_std"`
	Mean      []float64 `gorm:"serializer:json" json:"mean"`
	Std       []float64 `gorm:"serializer:json" json:"std"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EvaluationRun struct {
	ID            string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Manifest      string        `json:"manifest"`
	Model         string        `json:"model"`
	Clips         int           `json:"clips"`
	ClipAccuracy  float64       `json:"clip_accuracy"`
	FrameAccuracy float64       `json:"frame_accuracy"`
	Labels        []string      `gorm:"serializer:json" json:"labels"`
	Confusion     [][]int       `gorm:"serializer:json" json:"confusion"`
	Results       []ClipOutcome `gorm:"foreignKey:RunID" json:"results,omitempty"`
	CreatedAt     time.Time     `gorm:"index:idx_run_created" json:"created_at"`
}

type ClipOutcome struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID         string  `gorm:"type:varchar(36);index:idx_run" json:"-"`
	RecordingID   string  `json:"recording_id"`
	Truth         string  `json:"truth"`
	Predicted     string  `json:"predicted"`
	Frames        int     `json:"frames"`
	FrameAccuracy float64 `json:"frame_accuracy"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("ACOUSTIC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Feature{}, &Scaler{}, &EvaluationRun{}, &ClipOutcome{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

// MustNewDBClient opens the default database or panics.
func MustNewDBClient() *DBClient {
	cli, err := NewDBClient()
	if err != nil {
		customlogger.GetLogger().Errorf("failed to open DB: %v", err)
		panic(err)
	}
	return cli
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveFeature stores x under recordingID, replacing any previous matrix.
func (c *DBClient) SaveFeature(recordingID string, x *mat.Dense) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	data, err := x.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding feature %s: %w", recordingID, err)
	}
	frames, bins := x.Dims()
	row := Feature{RecordingID: recordingID, Frames: frames, Bins: bins, Data: data}

	err = c.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"frames", "bins", "data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving feature %s: %w", recordingID, err)
	}
	return nil
}

// LoadFeature returns the matrix stored under recordingID.
func (c *DBClient) LoadFeature(recordingID string) (*mat.Dense, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Feature
	if err := c.DB.Where("recording_id = ?", recordingID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, recordingID)
		}
		return nil, fmt.Errorf("querying feature %s: %w", recordingID, err)
	}

	var x mat.Dense
	if err := x.UnmarshalBinary(row.Data); err != nil {
		return nil, fmt.Errorf("decoding feature %s: %w", recordingID, err)
	}
	return &x, nil
}

// FeatureInfo returns the metadata of one feature without its data.
func (c *DBClient) FeatureInfo(recordingID string) (*Feature, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Feature
	err := c.DB.Omit("data").Where("recording_id = ?", recordingID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, recordingID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying feature %s: %w", recordingID, err)
	}
	return &row, nil
}

// ListFeatures returns metadata of every stored feature ordered by id.
func (c *DBClient) ListFeatures() ([]Feature, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Feature
	if err := c.DB.Omit("data").Order("recording_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}
	return rows, nil
}

func (c *DBClient) DeleteFeature(recordingID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("recording_id = ?", recordingID).Delete(&Feature{})
	if res.Error != nil {
		return fmt.Errorf("deleting feature %s: %w", recordingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFeatureNotFound, recordingID)
	}
	return nil
}

// SaveScaler persists fitted scaler statistics under name.
func (c *DBClient) SaveScaler(name string, st scaler.State) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	row := Scaler{Name: name, WithMean: st.WithMean, WithStd: st.WithStd, Mean: st.Mean, Std: st.Std}
	if err := c.DB.Save(&row).Error; err != nil {
		return fmt.Errorf("saving scaler %s: %w", name, err)
	}
	return nil
}

func (c *DBClient) LoadScaler(name string) (scaler.State, error) {
	if c == nil || c.DB == nil {
		return scaler.State{}, errors.New(errDBClientNil)
	}
	var row Scaler
	if err := c.DB.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scaler.State{}, fmt.Errorf("%w: %s", ErrScalerNotFound, name)
		}
		return scaler.State{}, fmt.Errorf("querying scaler %s: %w", name, err)
	}
	return scaler.State{WithMean: row.WithMean, WithStd: row.WithStd, Mean: row.Mean, Std: row.Std}, nil
}

// SaveRun stores a run and its per-clip outcomes in one transaction. An
// empty ID is filled with a fresh UUID.
func (c *DBClient) SaveRun(run *EvaluationRun) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if run.ID == "" {
		run.ID = utils.GenerateUUID()
	}
	results := run.Results
	for i := range results {
		results[i].RunID = run.ID
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Results").Create(run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		if len(results) > 0 {
			if err := tx.CreateInBatches(results, 500).Error; err != nil {
				return fmt.Errorf("batch insert clip outcomes: %w", err)
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs first, without per-clip outcomes.
// limit <= 0 returns all runs.
func (c *DBClient) ListRuns(limit int) ([]EvaluationRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []EvaluationRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its clip outcomes in insertion order.
func (c *DBClient) GetRun(id string) (*EvaluationRun, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run EvaluationRun
	err := c.DB.Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	return &run, nil
}

func (c *DBClient) DeleteRun(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&ClipOutcome{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&EvaluationRun{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}
