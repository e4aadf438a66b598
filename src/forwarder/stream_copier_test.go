package forwarder_test

import (
	"context"
	"errors"
	"strings"

	"github.com/icecave/forwardcore/src/forwarder"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type erroringWriter struct {
	afterBytes int
	written    int
	err        error
}

func (w *erroringWriter) Write(p []byte) (int, error) {
	if w.written >= w.afterBytes {
		return 0, w.err
	}
	w.written += len(p)
	return len(p), nil
}

type erroringReader struct {
	err error
}

func (r *erroringReader) Read([]byte) (int, error) {
	return 0, r.err
}

var _ = Describe("StreamCopier", func() {
	It("copies every byte from source to destination", func() {
		copier := &forwarder.StreamCopier{Pool: forwarder.NewBufferPool(16)}
		src := strings.NewReader("request content")
		var dst strings.Builder

		result := copier.Copy(src, &dst)

		Expect(result.Outcome).To(Equal(forwarder.CopySuccess))
		Expect(dst.String()).To(Equal("request content"))
		Expect(result.TotalBytes).To(Equal(int64(len("request content"))))
	})

	It("classifies a read failure with zero bytes written as an input error", func() {
		copier := &forwarder.StreamCopier{Pool: forwarder.NewBufferPool(16)}
		src := &erroringReader{err: errors.New("read failed")}
		var dst strings.Builder

		result := copier.Copy(src, &dst)

		Expect(result.Outcome).To(Equal(forwarder.CopyInputError))
	})

	It("classifies a write failure after bytes were written as an output error", func() {
		copier := &forwarder.StreamCopier{Pool: forwarder.NewBufferPool(4)}
		src := strings.NewReader("request content")
		dst := &erroringWriter{afterBytes: 4, err: errors.New("write failed")}

		result := copier.Copy(src, dst)

		Expect(result.Outcome).To(Equal(forwarder.CopyOutputError))
		Expect(result.TotalBytes).To(BeNumerically(">", 0))
	})

	It("classifies a cancellation before any bytes transferred as CopyCanceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		activity := forwarder.NewActivityToken(ctx, 0)
		defer activity.Close()

		copier := &forwarder.StreamCopier{Pool: forwarder.NewBufferPool(16), Activity: activity}
		src := strings.NewReader("request content")
		var dst strings.Builder

		result := copier.Copy(src, &dst)

		Expect(result.Outcome).To(Equal(forwarder.CopyCanceled))
		Expect(result.TotalBytes).To(Equal(int64(0)))
	})
})
