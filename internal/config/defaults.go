package config

const (
	defaultWorkDir               = "~/.local/share/speakerid/work"
	defaultLogDir                = "~/.local/share/speakerid/logs"
	defaultHistoryDB             = "~/.local/share/speakerid/history.db"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultVerificationThreshold = 0.2
	defaultMinSegmentSeconds     = 0.1
	defaultAssignmentWorkers     = 1
	defaultTextMatchThreshold    = 80
	defaultResultsSuffix         = "_speaker_results.json"
	defaultWhisperXModel         = "large-v3"
	defaultWhisperXVADMethod     = "silero"
	defaultVerificationSource    = "speechbrain/spkrec-ecapa-voxceleb"
	defaultVerificationSaveDir   = "~/.cache/speakerid/pretrained_models/spkrec-ecapa-voxceleb"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Assignment: Assignment{
			VerificationThreshold: defaultVerificationThreshold,
			MinSegmentSeconds:     defaultMinSegmentSeconds,
			Workers:               defaultAssignmentWorkers,
		},
		Channels: Channels{
			TextMatchThreshold: defaultTextMatchThreshold,
			ResultsSuffix:      defaultResultsSuffix,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
		},
		Verification: Verification{
			Source:  defaultVerificationSource,
			SaveDir: defaultVerificationSaveDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
