package dem

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/terrain"
)

// BlockSource reads a DEM in square blocks of posts. Implementations need
// not be safe for concurrent use; CachedModel serializes every ReadBlock.
type BlockSource interface {
	// Spec describes the whole grid.
	Spec() GridSpec

	// BlockSize is the edge length of a block in posts.
	BlockSize() int

	// ReadBlock returns block (bx, by) as BlockSize² row-major values.
	// Posts beyond the grid edge may hold anything.
	ReadBlock(bx, by int) ([]float64, error)
}

// CacheConfig tunes CachedModel.
type CacheConfig struct {
	// MaxBlocks bounds the number of decoded blocks kept in memory.
	MaxBlocks int64

	// TTL is how long a block stays valid once read.
	TTL time.Duration
}

// DefaultCacheConfig keeps 256 blocks for ten minutes.
var DefaultCacheConfig = CacheConfig{MaxBlocks: 256, TTL: 10 * time.Minute}

// CachedModel is an ElevationModel over a BlockSource. Decoded blocks live
// in an LRU cache; concurrent misses on one block trigger a single read,
// and reads of different blocks are serialized because the source is not
// reentrant.
type CachedModel struct {
	geoGrid

	src   BlockSource
	size  int
	ttl   time.Duration
	cache *ccache.Cache[[]float64]
	group singleflight.Group

	// mu guards src.
	mu sync.Mutex

	loads atomic.Int64
}

var _ ElevationModel = (*CachedModel)(nil)

// NewCachedModel wraps src. Call Close to stop the cache's background
// goroutine.
func NewCachedModel(src BlockSource, resampling Resampling, cfg CacheConfig) (*CachedModel, error) {
	spec := src.Spec()
	if err := spec.validate(); err != nil {
		return nil, err
	}
	size := src.BlockSize()
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "block size %d", size)
	}
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = DefaultCacheConfig.MaxBlocks
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig.TTL
	}

	prune := uint32(max(cfg.MaxBlocks/8, 1))
	m := &CachedModel{
		src:   src,
		size:  size,
		ttl:   cfg.TTL,
		cache: ccache.New(ccache.Configure[[]float64]().MaxSize(cfg.MaxBlocks).ItemsToPrune(prune)),
	}
	m.geoGrid = geoGrid{spec: spec, resampling: resampling, sample: m.Sample}
	return m, nil
}

// Sample returns post (col, row), reading its block on a cache miss.
func (m *CachedModel) Sample(col, row int) (float64, error) {
	col, row, err := m.wrap(col, row)
	if err != nil {
		return m.spec.NoData, err
	}
	bx, by := col/m.size, row/m.size
	block, err := m.block(bx, by)
	if err != nil {
		return m.spec.NoData, err
	}
	return block[(row%m.size)*m.size+col%m.size], nil
}

func (m *CachedModel) block(bx, by int) ([]float64, error) {
	key := strconv.Itoa(bx) + "/" + strconv.Itoa(by)
	if item := m.cache.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		// Another flight may have filled the cache while we waited.
		if item := m.cache.Get(key); item != nil && !item.Expired() {
			return item.Value(), nil
		}
		data, err := m.src.ReadBlock(bx, by)
		if err != nil {
			return nil, errors.Wrapf(err, "dem: read block %s", key)
		}
		if len(data) != m.size*m.size {
			return nil, errors.Wrapf(ErrInvalidModel, "block %s has %d values, want %d", key, len(data), m.size*m.size)
		}
		m.loads.Add(1)
		terrain.Logger().Debug("dem: block loaded", "block", key)
		m.cache.Set(key, data, m.ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// Loads returns how many blocks have been read from the source.
func (m *CachedModel) Loads() int64 {
	return m.loads.Load()
}

// Close stops the cache.
func (m *CachedModel) Close() {
	m.cache.Stop()
}

// FuncSource is a BlockSource that evaluates a function at every post.
type FuncSource struct {
	Grid  GridSpec
	Block int
	F     func(lat, lon float64) float64
}

func (s FuncSource) Spec() GridSpec { return s.Grid }

func (s FuncSource) BlockSize() int { return s.Block }

func (s FuncSource) ReadBlock(bx, by int) ([]float64, error) {
	g := geoGrid{spec: s.Grid}
	out := make([]float64, s.Block*s.Block)
	for r := 0; r < s.Block; r++ {
		for c := 0; c < s.Block; c++ {
			col, row := bx*s.Block+c, by*s.Block+r
			if col >= s.Grid.Cols || row >= s.Grid.Rows {
				out[r*s.Block+c] = s.Grid.NoData
				continue
			}
			p := g.GeoPos(float64(col), float64(row))
			out[r*s.Block+c] = s.F(p.Lat, p.Lon)
		}
	}
	return out, nil
}
