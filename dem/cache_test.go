package dem

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/terrain/geodesy"
)

// countingSource records reads and fails the test if ReadBlock is entered
// while another call is still running.
type countingSource struct {
	FuncSource
	t      *testing.T
	active atomic.Int32
	reads  atomic.Int32
	delay  time.Duration
}

func (s *countingSource) ReadBlock(bx, by int) ([]float64, error) {
	if n := s.active.Add(1); n > 1 {
		s.t.Errorf("ReadBlock entered by %d goroutines", n)
	}
	defer s.active.Add(-1)

	s.reads.Add(1)
	time.Sleep(s.delay)
	return s.FuncSource.ReadBlock(bx, by)
}

// 64x64 posts in 16x16 blocks.
func blockSpec() GridSpec {
	return GridSpec{North: 10, West: 20, LatStep: 0.01, LonStep: 0.01, Cols: 64, Rows: 64, NoData: testNoData}
}

func newCountingSource(t *testing.T) *countingSource {
	return &countingSource{
		FuncSource: FuncSource{Grid: blockSpec(), Block: 16, F: planeHeight},
		t:          t,
	}
}

func TestCachedModel_MatchesGridModel(t *testing.T) {
	src := newCountingSource(t)
	cached, err := NewCachedModel(src, ResampleBilinear, DefaultCacheConfig)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	grid, err := SampleFunc(blockSpec(), ResampleBilinear, planeHeight)
	if err != nil {
		t.Fatal(err)
	}

	for row := 0; row < 64; row++ {
		for col := 0; col < 64; col++ {
			a, errA := cached.Sample(col, row)
			b, errB := grid.Sample(col, row)
			if errA != nil || errB != nil || a != b {
				t.Fatalf("post (%d, %d): cached %v (%v), grid %v (%v)", col, row, a, errA, b, errB)
			}
		}
	}

	pos := geodesy.GeoPos{Lat: 9.7731, Lon: 20.4012}
	a, _ := cached.Elevation(pos)
	b, _ := grid.Elevation(pos)
	if !near(a, b, 1e-12) {
		t.Errorf("Elevation: cached %v, grid %v", a, b)
	}
}

func TestCachedModel_ReadsEachBlockOnce(t *testing.T) {
	src := newCountingSource(t)
	m, err := NewCachedModel(src, ResampleBilinear, DefaultCacheConfig)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	for pass := 0; pass < 2; pass++ {
		for row := 0; row < 64; row++ {
			for col := 0; col < 64; col++ {
				if _, err := m.Sample(col, row); err != nil {
					t.Fatalf("pass %d: Sample(%d, %d): %v", pass, col, row, err)
				}
			}
		}
	}

	if m.Loads() != 16 || src.reads.Load() != 16 {
		t.Errorf("Loads() = %d, source reads = %d, want 16", m.Loads(), src.reads.Load())
	}
}

func TestCachedModel_ConcurrentSamplers(t *testing.T) {
	src := newCountingSource(t)
	src.delay = time.Millisecond

	m, err := NewCachedModel(src, ResampleBilinear, DefaultCacheConfig)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each goroutine walks the grid from a different corner.
			for i := 0; i < 64*64; i++ {
				k := (i + g*512) % (64 * 64)
				col, row := k%64, k/64
				v, err := m.Sample(col, row)
				if err != nil {
					t.Errorf("Sample(%d, %d): %v", col, row, err)
					return
				}
				p := m.GeoPos(float64(col), float64(row))
				if want := planeHeight(p.Lat, p.Lon); !near(v, want, 1e-9) {
					t.Errorf("Sample(%d, %d) = %v, want %v", col, row, v, want)
					return
				}
			}
		}()
	}
	wg.Wait()

	if src.reads.Load() != 16 {
		t.Errorf("source reads = %d, want 16", src.reads.Load())
	}
}

type failingSource struct {
	FuncSource
	short bool
}

func (s failingSource) ReadBlock(bx, by int) ([]float64, error) {
	if s.short {
		return make([]float64, 3), nil
	}
	return nil, errors.New("disk on fire")
}

func TestCachedModel_ReadErrors(t *testing.T) {
	base := FuncSource{Grid: blockSpec(), Block: 16, F: planeHeight}

	m, err := NewCachedModel(failingSource{FuncSource: base}, ResampleNearest, CacheConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if v, err := m.Sample(3, 3); err == nil || v != testNoData {
		t.Errorf("Sample = %v, %v; want no-data and an error", v, err)
	}
	if m.Loads() != 0 {
		t.Errorf("failed reads counted as loads: %d", m.Loads())
	}

	short, err := NewCachedModel(failingSource{FuncSource: base, short: true}, ResampleNearest, CacheConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer short.Close()
	if _, err := short.Sample(3, 3); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("short block err = %v, want ErrInvalidModel", err)
	}
}

func TestNewCachedModel_Validation(t *testing.T) {
	if _, err := NewCachedModel(FuncSource{Grid: blockSpec(), Block: 0}, ResampleNearest, DefaultCacheConfig); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("block size 0: err = %v", err)
	}
	if _, err := NewCachedModel(FuncSource{Grid: GridSpec{Cols: 1, Rows: 1}, Block: 4}, ResampleNearest, DefaultCacheConfig); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("bad grid: err = %v", err)
	}
}

func TestFuncSource_EdgeBlocks(t *testing.T) {
	spec := blockSpec()
	spec.Cols, spec.Rows = 20, 20
	src := FuncSource{Grid: spec, Block: 16, F: planeHeight}

	block, err := src.ReadBlock(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if block[0] == testNoData {
		t.Error("post (16, 16) should be inside the grid")
	}
	if block[4] != testNoData || block[4*16] != testNoData {
		t.Error("posts beyond the grid edge should be no-data")
	}
}
