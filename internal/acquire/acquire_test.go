package acquire

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/ingest"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/serialmux"
	"github.com/banshee-data/humidity.report/internal/timeutil"
)

const dataFile = "/data/sensors.txt"

var t0 = time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func newRecorder(t *testing.T, mfs *fsutil.MemoryFileSystem, clock timeutil.Clock, port int, appendRows bool) *Recorder {
	t.Helper()
	r, err := NewRecorder(Config{
		Path:     dataFile,
		Port:     port,
		Append:   appendRows,
		Location: time.UTC,
		FS:       mfs,
		Clock:    clock,
	})
	require.NoError(t, err)
	return r
}

func TestClassify(t *testing.T) {
	tests := map[string]LineKind{
		"":                    KindNoise,
		"0.00":                KindNoise,
		"-50.00":              KindNoise,
		"..":                  KindNoise,
		"up..":                KindNoise,
		"Starting up...":      KindStatus,
		"Sensor not running.": KindStatus,
		"AHT10 running":       KindStatus,
		"Done!":               KindDone,
		"51.23":               KindValue,
		"-3.5":                KindValue,
		"garbled":             KindUnknown,
	}
	for line, want := range tests {
		assert.Equal(t, want, Classify(line), "%q", line)
	}
}

func TestRecorder_PairsReadings(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	clock := timeutil.NewMockClock(t0)
	r := newRecorder(t, mfs, clock, 2, false)

	feed := []string{"Starting up...", "up..", "AHT10 running", "51.20", "", "21.40"}
	for _, line := range feed {
		done, err := r.Handle(line)
		require.NoError(t, err)
		assert.False(t, done)
	}
	clock.Advance(2 * time.Second)
	for _, line := range []string{"52.00\r\n", "0.00", "-50.00", "21.50"} {
		_, err := r.Handle(line)
		require.NoError(t, err)
	}

	data, err := mfs.ReadFile(dataFile)
	require.NoError(t, err)
	assert.Equal(t,
		"2 2024-06-17 10:00:00 51.20 21.40\n"+
			"2 2024-06-17 10:00:02 52.00 21.50\n", string(data))
	assert.Equal(t, 2, r.Rows())
}

func TestRecorder_RowsParseAsSensorRecords(t *testing.T) {
	row := FormatRow(0, t0, "50.0", "20.0")
	rec, err := ingest.ParseLine(row[:len(row)-1], time.UTC)
	require.NoError(t, err)
	assert.Equal(t, record.Sensor(0), rec.Source())
	assert.Equal(t, t0, rec.Timestamp())
	assert.Equal(t, 50.0, rec.RelativeHumidity())
}

func TestRecorder_DoneDiscardsHalfPair(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	r := newRecorder(t, mfs, timeutil.NewMockClock(t0), 0, false)

	_, err := r.Handle("50.00")
	require.NoError(t, err)
	done, err := r.Handle("Done!")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, r.Rows())
}

func TestNewRecorder_TruncatesUnlessAppending(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile(dataFile, []byte("0 2024-06-16 09:00:00 40 19\n"), 0644))

	newRecorder(t, mfs, timeutil.NewMockClock(t0), 0, true)
	data, _ := mfs.ReadFile(dataFile)
	assert.NotEmpty(t, data, "-append keeps earlier rows")

	newRecorder(t, mfs, timeutil.NewMockClock(t0), 0, false)
	data, _ = mfs.ReadFile(dataFile)
	assert.Empty(t, data)
}

func TestNewRecorder_Validation(t *testing.T) {
	_, err := NewRecorder(Config{Path: "/data/sensors.csv", FS: fsutil.NewMemoryFileSystem()})
	assert.Error(t, err)
	_, err = NewRecorder(Config{Path: dataFile, Port: -1, FS: fsutil.NewMemoryFileSystem()})
	assert.Error(t, err)
}

func TestRecorder_RunUntilDone(t *testing.T) {
	port := serialmux.NewTestableSerialPort(
		"Starting up...", "AHT10 running",
		"48.10", "22.00",
		"48.30", "22.10",
		"Done!",
		"49.00", "22.20",
	)
	mux := serialmux.NewSerialMux(port)
	mfs := fsutil.NewMemoryFileSystem()
	r := newRecorder(t, mfs, timeutil.NewMockClock(t0), 1, false)

	require.NoError(t, r.Run(context.Background(), mux))
	assert.Equal(t, 2, r.Rows(), "lines after Done! are ignored")
}

func TestRecorder_RunUntilEOF(t *testing.T) {
	port := serialmux.NewTestableSerialPort("48.10", "22.00", "48.30")
	mux := serialmux.NewSerialMux(port)
	r := newRecorder(t, fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(t0), 0, false)

	require.NoError(t, r.Run(context.Background(), mux))
	assert.Equal(t, 1, r.Rows())
}

func TestRecorder_RunCancelled(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	port.BlockReads = true
	mux := serialmux.NewSerialMux(port)
	defer mux.Close()
	r := newRecorder(t, fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(t0), 0, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, mux) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
