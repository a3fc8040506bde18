package queue

import "fmt"

// Executor offloads work to a background environment, handing it a
// serialized snapshot by value rather than a reference to the live index,
// so the offloaded work can never race with mutations still flowing through
// the Serializer.
type Executor interface {
	Offload(name string, snapshot []byte, fn func(snapshot []byte) ([]byte, error)) ([]byte, error)
}

// LocalExecutor runs offloaded work synchronously, in-process. It exists so
// callers can depend on the Executor interface without a real out-of-process
// worker being wired up yet.
type LocalExecutor struct{}

// NewLocalExecutor returns an Executor that runs work in-process.
func NewLocalExecutor() *LocalExecutor { return &LocalExecutor{} }

func (LocalExecutor) Offload(name string, snapshot []byte, fn func([]byte) ([]byte, error)) ([]byte, error) {
	if fn == nil {
		return nil, fmt.Errorf("queue: offload %s: no work function given", name)
	}
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	return fn(cp)
}
