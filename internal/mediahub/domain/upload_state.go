package domain

// UploadState is the lifecycle of one upload session.
//
//	Idle -> Writing -> Finalizing -> Finalized
//	  \        \           \
//	   +--------+-----------+-> Aborted
type UploadState int

const (
	UploadIdle UploadState = iota
	UploadWriting
	UploadFinalizing
	UploadFinalized
	UploadAborted
)

func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "IDLE"
	case UploadWriting:
		return "WRITING"
	case UploadFinalizing:
		return "FINALIZING"
	case UploadFinalized:
		return "FINALIZED"
	case UploadAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further chunk may be accepted.
func (s UploadState) IsTerminal() bool {
	return s == UploadFinalized || s == UploadAborted
}
