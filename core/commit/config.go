package commit

// MaxChunkSize is the largest number of writes submitted in one atomic group.
const MaxChunkSize = 500

// Config holds configuration for the commit executor.
type Config struct {
	// ChunkSize is the number of writes per atomic group, clamped to 1..MaxChunkSize.
	ChunkSize int `mapstructure:"chunk_size" default:"500"`
}

func (c Config) chunkSize() int {
	switch {
	case c.ChunkSize <= 0, c.ChunkSize > MaxChunkSize:
		return MaxChunkSize
	default:
		return c.ChunkSize
	}
}
