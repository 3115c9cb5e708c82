package gridsync

type ServerConfig struct {
	Name      string `json:"name" yaml:"name"`
	UDPPort   uint16 `json:"udp_port" yaml:"udp_port"`
	HTTPPort  uint16 `json:"http_port" yaml:"http_port"`
	SleepTime int    `json:"sleep_time" yaml:"sleep_time"` // server tick sleep, milliseconds

	ResultsDirectory string `json:"results_directory" yaml:"results_directory"`
	ResultsStorePath string `json:"results_store_path" yaml:"results_store_path"`

	UDPPluginLocalPort int    `json:"udp_plugin_local_port" yaml:"udp_plugin_local_port"`
	UDPPluginAddress   string `json:"udp_plugin_address" yaml:"udp_plugin_address"`
}

type ReplicationConfig struct {
	SendRateHz             int     `json:"send_rate_hz" yaml:"send_rate_hz"`
	InterpolationDelay     float64 `json:"interpolation_delay" yaml:"interpolation_delay"`   // seconds
	InterpolationMode      string  `json:"interpolation_mode" yaml:"interpolation_mode"`     // linear | hermite | predictive
	SnapshotBufferCapacity int     `json:"snapshot_buffer_capacity" yaml:"snapshot_buffer_capacity"`
	MaxExtrapolation       float64 `json:"max_extrapolation" yaml:"max_extrapolation"` // seconds

	PositionErrorThreshold  float64 `json:"position_error_threshold" yaml:"position_error_threshold"`   // metres
	RotationErrorThreshold  float64 `json:"rotation_error_threshold" yaml:"rotation_error_threshold"`   // degrees
	CorrectionBlendDuration float64 `json:"correction_blend_duration" yaml:"correction_blend_duration"` // seconds
}

type RaceConfig struct {
	TrackName   string  `json:"track_name" yaml:"track_name"`
	TrackLength float64 `json:"track_length" yaml:"track_length"` // metres
	Checkpoints int     `json:"checkpoints" yaml:"checkpoints"`   // per lap, the last index is the finish line
	Laps        int     `json:"laps" yaml:"laps"`

	MaxParticipants int `json:"max_participants" yaml:"max_participants"`

	CountdownDuration float64 `json:"countdown_duration" yaml:"countdown_duration"` // seconds
	InactivityTimeout float64 `json:"inactivity_timeout" yaml:"inactivity_timeout"` // seconds
	FinishTimeLimit   float64 `json:"finish_time_limit" yaml:"finish_time_limit"`   // seconds
	ResultsTimeout    float64 `json:"results_timeout" yaml:"results_timeout"`       // seconds
}

// FinishCheckpointIndex is the distinguished checkpoint index whose crossing
// completes a lap.
func (c RaceConfig) FinishCheckpointIndex() int {
	return c.Checkpoints - 1
}

type Config struct {
	Server      ServerConfig      `json:"server" yaml:"server"`
	Replication ReplicationConfig `json:"replication" yaml:"replication"`
	Race        RaceConfig        `json:"race" yaml:"race"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.SleepTime < 1 {
		c.Server.SleepTime = 10
	}

	if c.Server.ResultsDirectory == "" {
		c.Server.ResultsDirectory = "results"
	}

	if c.Replication.SendRateHz <= 0 {
		c.Replication.SendRateHz = 30
	}

	if c.Replication.InterpolationDelay <= 0 {
		c.Replication.InterpolationDelay = 0.1
	}

	if c.Replication.SnapshotBufferCapacity <= 0 {
		c.Replication.SnapshotBufferCapacity = DefaultSnapshotBufferCapacity
	}

	if c.Replication.MaxExtrapolation <= 0 {
		c.Replication.MaxExtrapolation = 0.25
	}

	if c.Replication.PositionErrorThreshold <= 0 {
		c.Replication.PositionErrorThreshold = 0.5
	}

	if c.Replication.RotationErrorThreshold <= 0 {
		c.Replication.RotationErrorThreshold = 10
	}

	if c.Replication.CorrectionBlendDuration <= 0 {
		c.Replication.CorrectionBlendDuration = 0.3
	}

	if c.Race.Checkpoints <= 0 {
		c.Race.Checkpoints = 1
	}

	if c.Race.Laps <= 0 {
		c.Race.Laps = 3
	}

	if c.Race.MaxParticipants <= 0 {
		c.Race.MaxParticipants = 24
	}

	if c.Race.CountdownDuration <= 0 {
		c.Race.CountdownDuration = 3
	}

	if c.Race.InactivityTimeout <= 0 {
		c.Race.InactivityTimeout = 20
	}

	if c.Race.FinishTimeLimit <= 0 {
		c.Race.FinishTimeLimit = 120
	}

	if c.Race.ResultsTimeout <= 0 {
		c.Race.ResultsTimeout = 30
	}
}
