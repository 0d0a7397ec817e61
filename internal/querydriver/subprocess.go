package querydriver

import (
	"context"
	"errors"
	"time"
)

// request/response pair exchanged with the isolated goroutine.
type subprocessRequest struct {
	dto    QueryDTO
	result chan subprocessResponse
}

type subprocessResponse struct {
	rows []Row
	err  error
}

// Subprocess isolates a wrapped driver behind a dedicated goroutine and a
// channel-based inbox, modeled on the reference implementation's
// process-isolated oracle driver: the owning goroutine polls its inbox at a
// fixed granularity and a termination flag plus join replaces the original
// process's terminate-and-wait. Go's gocql client can multiplex two
// clusters in one address space without this isolation, so Subprocess
// exists only as an explicit opt-in for drivers that cannot.
type Subprocess struct {
	inbox  chan subprocessRequest
	done   chan struct{}
	stopCh chan struct{}
}

// NewSubprocess starts the isolation goroutine wrapping inner. pollEvery
// sets the inbox poll granularity; the reference implementation used one
// second.
func NewSubprocess(inner QueryDriver, pollEvery time.Duration) *Subprocess {
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	s := &Subprocess{
		inbox:  make(chan subprocessRequest),
		done:   make(chan struct{}),
		stopCh: make(chan struct{}),
	}
	go s.run(inner, pollEvery)
	return s
}

func (s *Subprocess) run(inner QueryDriver, pollEvery time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.inbox:
			rows, err := inner.Execute(context.Background(), req.dto)
			req.result <- subprocessResponse{rows: rows, err: err}
		case <-ticker.C:
			// poll tick: nothing to do absent pending work, mirrors the
			// reference implementation's inbox-polling loop.
		}
	}
}

func (s *Subprocess) Prepare(ctx context.Context, statement string) error { return nil }

func (s *Subprocess) Execute(ctx context.Context, dto QueryDTO) ([]Row, error) {
	req := subprocessRequest{dto: dto, result: make(chan subprocessResponse, 1)}
	select {
	case s.inbox <- req:
	case <-s.stopCh:
		return nil, &Error{Op: "execute", Err: errors.New("subprocess driver stopped")}
	case <-ctx.Done():
		return nil, &Error{Op: "execute", Err: ctx.Err()}
	}

	select {
	case resp := <-req.result:
		if resp.err != nil {
			return nil, resp.err
		}
		return resp.rows, nil
	case <-ctx.Done():
		return nil, &Error{Op: "execute", Err: ctx.Err()}
	}
}

// Teardown sets the termination flag and joins the isolation goroutine.
func (s *Subprocess) Teardown() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.done
	return nil
}
