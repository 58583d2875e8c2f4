package ports

// Policy tunes the recorder. The static channel tables are extended, never
// replaced, by Ignore and Throttle.
type Policy struct {
	BufferSize int            `yaml:"buffer_size"`
	Ignore     []string       `yaml:"ignore"`
	Throttle   map[string]int `yaml:"throttle"` // channel -> min seconds between recorded updates
}
