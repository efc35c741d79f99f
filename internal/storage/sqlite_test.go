package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/scaler"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_features.sqlite3")
	t.Setenv("ACOUSTIC_DB_PATH", dbPath)

	client, err := NewDBClient()
	require.NoError(t, err, "Failed to create test DB client")
	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	require.NotNil(t, client.DB)
	require.NotNil(t, client.db)

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created")
}

func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	require.NoError(t, err)
	defer client.Close()

	_, err = os.Stat(customPath)
	assert.NoError(t, err, "database file was not created at custom path")
}

func TestFeatureRoundTrip(t *testing.T) {
	client, _ := setupTestDB(t)

	x := mat.NewDense(3, 2, []float64{-18.42, 0, 1.5, -2.25, 3e-9, 7})
	require.NoError(t, client.SaveFeature("a001_10_20", x))

	got, err := client.LoadFeature("a001_10_20")
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, got), "feature must round-trip bit-exactly")

	info, err := client.FeatureInfo("a001_10_20")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Frames)
	assert.Equal(t, 2, info.Bins)
	assert.Empty(t, info.Data)
}

func TestSaveFeatureReplaces(t *testing.T) {
	client, _ := setupTestDB(t)

	require.NoError(t, client.SaveFeature("rec", mat.NewDense(1, 1, []float64{1})))
	require.NoError(t, client.SaveFeature("rec", mat.NewDense(2, 1, []float64{2, 3})))

	got, err := client.LoadFeature("rec")
	require.NoError(t, err)
	rows, _ := got.Dims()
	assert.Equal(t, 2, rows)

	var count int64
	client.DB.Model(&Feature{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoadFeatureNotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	_, err := client.LoadFeature("missing")
	assert.True(t, errors.Is(err, ErrFeatureNotFound))
	_, err = client.FeatureInfo("missing")
	assert.True(t, errors.Is(err, ErrFeatureNotFound))
}

func TestListAndDeleteFeatures(t *testing.T) {
	client, _ := setupTestDB(t)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, client.SaveFeature(id, mat.NewDense(1, 2, nil)))
	}

	list, err := client.ListFeatures()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].RecordingID)
	assert.Equal(t, "c", list[2].RecordingID)

	require.NoError(t, client.DeleteFeature("b"))
	assert.True(t, errors.Is(client.DeleteFeature("b"), ErrFeatureNotFound))

	list, err = client.ListFeatures()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestScalerRoundTrip(t *testing.T) {
	client, _ := setupTestDB(t)

	st := scaler.State{WithMean: true, WithStd: true, Mean: []float64{-20.5, -19}, Std: []float64{3.25, 1}}
	require.NoError(t, client.SaveScaler("default", st))

	got, err := client.LoadScaler("default")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st.Mean = []float64{0, 0}
	require.NoError(t, client.SaveScaler("default", st))
	got, err = client.LoadScaler("default")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got.Mean)

	_, err = client.LoadScaler("other")
	assert.True(t, errors.Is(err, ErrScalerNotFound))
}

func TestRunLifecycle(t *testing.T) {
	client, _ := setupTestDB(t)

	run := &EvaluationRun{
		Manifest:      "evaluate.txt",
		Clips:         2,
		ClipAccuracy:  0.5,
		FrameAccuracy: 0.625,
		Labels:        []string{"beach", "bus"},
		Confusion:     [][]int{{1, 0}, {1, 0}},
		Results: []ClipOutcome{
			{RecordingID: "a", Truth: "beach", Predicted: "beach", Frames: 4, FrameAccuracy: 0.75},
			{RecordingID: "b", Truth: "bus", Predicted: "beach", Frames: 2, FrameAccuracy: 0.5},
		},
	}
	require.NoError(t, client.SaveRun(run))
	require.NotEmpty(t, run.ID)

	got, err := client.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Confusion, got.Confusion)
	assert.Equal(t, run.Labels, got.Labels)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "a", got.Results[0].RecordingID)
	assert.Equal(t, "beach", got.Results[1].Predicted)

	runs, err := client.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Results)

	require.NoError(t, client.DeleteRun(run.ID))
	_, err = client.GetRun(run.ID)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	var outcomes int64
	client.DB.Model(&ClipOutcome{}).Where("run_id = ?", run.ID).Count(&outcomes)
	assert.Zero(t, outcomes)
}

func TestListRunsLimit(t *testing.T) {
	client, _ := setupTestDB(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, client.SaveRun(&EvaluationRun{Clips: i}))
	}
	runs, err := client.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestNilClient(t *testing.T) {
	var client *DBClient
	assert.NoError(t, client.Close())
	assert.Error(t, client.SaveFeature("x", mat.NewDense(1, 1, nil)))
	_, err := client.ListRuns(0)
	assert.Error(t, err)
}
