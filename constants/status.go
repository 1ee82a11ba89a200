package constants

// FileState is the lifecycle state of a watched file and its artifact.
type FileState string

// Stable values (these exact strings appear in log lines).
const (
	StateIncoming     FileState = "INCOMING"      // present in the watch folder, unprocessed
	StateExtracted    FileState = "EXTRACTED"     // text artifact written, source archived
	StatePendingMatch FileState = "PENDING_MATCH" // artifact awaiting an accepted verdict
	StateMatched      FileState = "MATCHED"       // artifact, verdict and row moved to matches
	StateError        FileState = "ERROR"         // source moved to errors; terminal
)
