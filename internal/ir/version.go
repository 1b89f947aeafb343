package ir

// Version constants for the target tree schema.
const (
	// IRVersion is the target tree schema version.
	IRVersion = "1"

	// EngineVersion is the hatgram version.
	EngineVersion = "0.1.0"
)
