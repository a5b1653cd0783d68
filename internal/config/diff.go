package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider or
// bridge changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	TriggerWordChanged bool
	NewTriggerWord     string

	PollIntervalChanged bool

	VoiceRepliesChanged bool

	RedactPIIChanged bool
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.TriggerWordChanged || d.PollIntervalChanged ||
		d.VoiceRepliesChanged || d.RedactPIIChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Meeting.TriggerWord != new.Meeting.TriggerWord {
		d.TriggerWordChanged = true
		d.NewTriggerWord = new.Meeting.TriggerWord
	}
	if old.Meeting.ChatPollInterval != new.Meeting.ChatPollInterval {
		d.PollIntervalChanged = true
	}
	if old.Meeting.VoiceReplies != new.Meeting.VoiceReplies {
		d.VoiceRepliesChanged = true
	}
	if old.Transcript.RedactPII != new.Transcript.RedactPII {
		d.RedactPIIChanged = true
	}

	return d
}
