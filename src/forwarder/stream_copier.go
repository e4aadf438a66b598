package forwarder

import (
	"io"
	"time"

	"github.com/icecave/forwardcore/src/telemetry"
)

// CopyOutcome classifies how a StreamCopier's pump ended.
type CopyOutcome int

const (
	// CopySuccess means the source reached EOF and every byte read was
	// written to the destination.
	CopySuccess CopyOutcome = iota

	// CopyInputError means a read from the source failed before any bytes
	// had been written.
	CopyInputError

	// CopyOutputError means a write to the destination failed, or the pump
	// was canceled after at least one byte had already been written —
	// spec.md §4.1.3 attributes a cancellation to whichever side received
	// the last completed operation.
	CopyOutputError

	// CopyCanceled means the pump's cancellation token fired and no bytes
	// had been transferred at all, distinguishing a pump that never got
	// going from one interrupted mid-stream (CopyOutputError).
	CopyCanceled
)

// CopyResult is the outcome of a single StreamCopier.Copy call.
type CopyResult struct {
	Outcome       CopyOutcome
	Err           error
	TotalBytes    int64
	IOCount       int64
	ReadTime      time.Duration
	WriteTime     time.Duration
	FirstReadTime time.Duration
}

// StreamCopier pumps bytes from src to dst using buffers drawn from a
// BufferPool, reporting progress through telemetry no more than once a
// second and resetting an ActivityToken on every successful read or write,
// per spec.md §4.1.3.
type StreamCopier struct {
	Pool            *BufferPool
	Activity        *ActivityToken
	Listener        telemetry.Listener
	RequestID       string
	IsRequest       bool
	ProgressMinGap  time.Duration
}

const defaultProgressMinGap = time.Second

// Copy reads from src and writes to dst until src returns io.EOF, the
// Activity token's context is canceled, or an error occurs. The buffer is returned to the pool after
// every read that didn't fill it completely, since a short read signals the
// source won't benefit from a larger buffer next time; a full read retains
// the buffer for the following iteration.
func (c *StreamCopier) Copy(src io.Reader, dst io.Writer) CopyResult {
	pool := c.Pool
	if pool == nil {
		pool = defaultBufferPool
	}

	buf := pool.Get()
	defer func() {
		if buf != nil {
			pool.Put(buf)
		}
	}()

	var (
		result       CopyResult
		start        = time.Now()
		lastProgress time.Time
		firstRead    = true
	)

	minGap := c.ProgressMinGap
	if minGap <= 0 {
		minGap = defaultProgressMinGap
	}

	for {
		if err := c.canceled(); err != nil {
			result.Outcome = c.cancelOutcome(result.TotalBytes)
			result.Err = err
			break
		}

		readStart := time.Now()
		n, err := src.Read(buf)
		result.ReadTime += time.Since(readStart)

		if firstRead {
			result.FirstReadTime = time.Since(start)
			firstRead = false
		}

		if n > 0 {
			if c.Activity != nil {
				c.Activity.ResetTimeout()
			}

			writeStart := time.Now()
			_, werr := dst.Write(buf[:n])
			result.WriteTime += time.Since(writeStart)

			if werr != nil {
				result.Outcome = CopyOutputError
				result.Err = werr
				break
			}

			if c.Activity != nil {
				c.Activity.ResetTimeout()
			}

			result.TotalBytes += int64(n)
			result.IOCount++

			c.reportProgress(&result, &lastProgress, minGap)
		}

		if n < len(buf) {
			pool.Put(buf)
			buf = pool.Get()
		}

		if err != nil {
			if err == io.EOF {
				result.Outcome = CopySuccess
			} else {
				result.Outcome = c.readErrorOutcome(result.TotalBytes)
				result.Err = err
			}
			break
		}
	}

	c.emitTransferred(&result)
	return result
}

func (c *StreamCopier) canceled() error {
	if c.Activity == nil {
		return nil
	}
	select {
	case <-c.Activity.Context().Done():
		return c.Activity.Context().Err()
	default:
		return nil
	}
}

// cancelOutcome and readErrorOutcome both implement spec.md §4.1.3's rule:
// before any bytes are written, a failure is an input-side failure (or a
// bare cancellation if no read ever completed either); once the first byte
// has reached the destination, any subsequent failure is attributed to the
// output side, since the destination is now mid-stream and cannot be
// cleanly retried.
func (c *StreamCopier) cancelOutcome(totalBytes int64) CopyOutcome {
	if totalBytes > 0 {
		return CopyOutputError
	}
	return CopyCanceled
}

func (c *StreamCopier) readErrorOutcome(totalBytes int64) CopyOutcome {
	if totalBytes > 0 {
		return CopyOutputError
	}
	return CopyInputError
}

func (c *StreamCopier) reportProgress(result *CopyResult, lastProgress *time.Time, minGap time.Duration) {
	now := time.Now()
	if !lastProgress.IsZero() && now.Sub(*lastProgress) < minGap {
		return
	}
	*lastProgress = now

	telemetry.Emit(c.Listener, func(l telemetry.Listener) {
		l.OnContentTransferring(telemetry.ContentTransferringEvent{
			RequestID:  c.RequestID,
			IsRequest:  c.IsRequest,
			TotalBytes: result.TotalBytes,
			IOCount:    result.IOCount,
			ReadTime:   result.ReadTime,
			WriteTime:  result.WriteTime,
		})
	})
}

func (c *StreamCopier) emitTransferred(result *CopyResult) {
	telemetry.Emit(c.Listener, func(l telemetry.Listener) {
		l.OnContentTransferred(telemetry.ContentTransferredEvent{
			RequestID:     c.RequestID,
			IsRequest:     c.IsRequest,
			TotalBytes:    result.TotalBytes,
			IOCount:       result.IOCount,
			ReadTime:      result.ReadTime,
			WriteTime:     result.WriteTime,
			FirstReadTime: result.FirstReadTime,
		})
	})
}
