package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-tracker/models"
)

func TestCreateAndGet(t *testing.T) {
	trk := New()
	trk.Create("job-1")

	snap, ok := trk.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, "job-1", snap.JobID)
	assert.Equal(t, StateInitializing, snap.State)
	assert.Nil(t, snap.Car)
}

func TestGetUnknownJob(t *testing.T) {
	trk := New()

	_, ok := trk.Get("nope")
	assert.False(t, ok)
}

func TestAdvanceCarriesPartialFields(t *testing.T) {
	trk := New()
	trk.Create("job-1")

	trk.Advance("job-1", StateFetching, "extracting", &models.Car{Title: "2015 Honda Civic"})
	trk.Advance("job-1", StateSaving, "saving", nil)

	snap, ok := trk.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, StateSaving, snap.State)
	require.NotNil(t, snap.Car, "partial fields from the previous update must survive")
	assert.Equal(t, "2015 Honda Civic", snap.Car.Title)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	trk := New()

	for _, terminal := range []State{StateComplete, StateError} {
		jobID := "job-" + string(terminal)
		trk.Create(jobID)
		trk.Advance(jobID, terminal, "done", nil)

		trk.Advance(jobID, StateFetching, "should be ignored", &models.Car{Title: "x"})

		snap, ok := trk.Get(jobID)
		require.True(t, ok)
		assert.Equal(t, terminal, snap.State)
		assert.Equal(t, "done", snap.Message)
		assert.Nil(t, snap.Car)
	}
}

func TestAdvanceUnknownJobIsNoop(t *testing.T) {
	trk := New()
	trk.Advance("ghost", StateFetching, "hm", nil)

	_, ok := trk.Get("ghost")
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	trk := New()
	trk.Create("job-1")
	trk.Advance("job-1", StateFetching, "extracting", &models.Car{
		Title:  "2015 Honda Civic",
		About:  map[string]string{"color": "Exterior color: Black"},
		Images: []string{"https://cdn.example.com/1.jpg"},
	})

	snap, _ := trk.Get("job-1")
	snap.Car.Title = "mutated"
	snap.Car.About["color"] = "mutated"
	snap.Car.Images[0] = "mutated"

	fresh, _ := trk.Get("job-1")
	assert.Equal(t, "2015 Honda Civic", fresh.Car.Title)
	assert.Equal(t, "Exterior color: Black", fresh.Car.About["color"])
	assert.Equal(t, "https://cdn.example.com/1.jpg", fresh.Car.Images[0])
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	trk := New()
	trk.Create("job-1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			trk.Advance("job-1", StateFetching, fmt.Sprintf("step %d", i), &models.Car{
				Title:  "2015 Honda Civic",
				Images: []string{"https://cdn.example.com/1.jpg"},
			})
		}
		trk.Advance("job-1", StateComplete, "done", nil)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, ok := trk.Get("job-1")
				require.True(t, ok)
				if snap.Car != nil {
					assert.Equal(t, "2015 Honda Civic", snap.Car.Title)
				}
			}
		}()
	}

	wg.Wait()

	snap, _ := trk.Get("job-1")
	assert.Equal(t, StateComplete, snap.State)
}
