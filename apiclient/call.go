package apiclient

// callState is the lifecycle of one logical call. The only path back to
// stateSending goes through stateRefreshingThenRetry, which clears
// retryEligible, so a call sends at most twice.
type callState int

const (
	stateSending callState = iota
	stateRefreshingThenRetry
	stateDone
)

func (s callState) String() string {
	switch s {
	case stateSending:
		return "sending"
	case stateRefreshingThenRetry:
		return "refreshing-then-retry"
	case stateDone:
		return "done"
	}
	return "unknown"
}

type pendingCall struct {
	req           Request
	payload       []byte
	token         string
	state         callState
	retryEligible bool
	err           error
}
