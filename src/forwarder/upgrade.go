package forwarder

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
)

// UpgradeDialer connects to the destination described by an outbound
// request and returns the raw connection, for protocol-upgrade forwarding
// where the engine needs to own the wire after the 101 response rather
// than hand it to an HTTPClient, grounded on the teacher's
// proxy/websocket_dialer.go.
type UpgradeDialer interface {
	Dial(req *http.Request) (net.Conn, error)
}

// DefaultUpgradeDialer dials plain TCP, or hands an https/wss request to
// TLSDialer when one is set. With no TLSDialer, every destination is
// dialed over plain TCP whatever its scheme.
type DefaultUpgradeDialer struct {
	TLSDialer func(req *http.Request) (net.Conn, error)
}

// Dial connects to req.URL.Host, using d.TLSDialer when the scheme calls
// for TLS.
func (d *DefaultUpgradeDialer) Dial(req *http.Request) (net.Conn, error) {
	if (req.URL.Scheme == "https" || req.URL.Scheme == "wss") && d.TLSDialer != nil {
		return d.TLSDialer(req)
	}

	dialer := &net.Dialer{}
	return dialer.DialContext(req.Context(), "tcp", req.URL.Host)
}

// upgradeResult is the terminal outcome of a full-duplex upgrade pump.
type upgradeResult struct {
	err  error
	kind ErrorKind
}

// forwardUpgrade implements the upgrade path of spec.md §4.1.2(3)/§4.1.5:
// dial the destination directly, write the outbound request line and
// headers by hand since net/http has no API for sending a request and
// then taking over the raw connection, read the response the same way,
// and on 101 hijack the inbound connection and pump bytes in both
// directions until both directions have finished or the activity timeout
// fires.
//
// On any other status code the response is forwarded normally and the
// connection is not hijacked, matching the teacher's websocket_proxy.go
// fallback.
func forwardUpgrade(rc *RequestContext, outbound *http.Request, activity *ActivityToken) (*http.Response, upgradeResult) {
	dialer := rc.UpgradeDialer
	if dialer == nil {
		dialer = &DefaultUpgradeDialer{}
	}

	conn, err := dialer.Dial(outbound)
	if err != nil {
		return nil, upgradeResult{err: err, kind: ErrorKindUpgradeRequestDestination}
	}

	if err := writeUpgradeRequest(outbound, conn); err != nil {
		conn.Close()
		return nil, upgradeResult{err: err, kind: classifyUpgradeWriteError(err)}
	}

	reader := bufio.NewReader(conn)
	response, err := http.ReadResponse(reader, outbound)
	if err != nil {
		conn.Close()
		return nil, upgradeResult{err: err, kind: ErrorKindUpgradeResponseDestination}
	}

	if response.StatusCode != http.StatusSwitchingProtocols {
		response.Body = &connClosingBody{ReadCloser: response.Body, conn: conn}
		return response, upgradeResult{}
	}

	hijacker, ok := rc.Writer.(http.Hijacker)
	if !ok {
		conn.Close()
		return nil, upgradeResult{err: fmt.Errorf("inbound connection does not support hijacking"), kind: ErrorKindUpgradeResponseClient}
	}

	writeUpgradeResponseHeaders(rc, response)

	client, clientBuf, err := hijacker.Hijack()
	if err != nil {
		conn.Close()
		return nil, upgradeResult{err: err, kind: ErrorKindUpgradeResponseClient}
	}

	result := pumpUpgrade(rc, conn, client, clientBuf, reader, activity)
	return response, result
}

// connClosingBody makes response.Body.Close() also close the raw
// destination connection it was read from. http.ReadResponse parses a
// response off an arbitrary io.Reader; it has no way to know that reader
// is backed by a net.Conn the caller must close itself, so the non-101
// fallback path (the destination declined the upgrade) would otherwise
// leak that connection once the engine calls response.Body.Close().
type connClosingBody struct {
	io.ReadCloser
	conn net.Conn
}

func (b *connClosingBody) Close() error {
	bodyErr := b.ReadCloser.Close()
	connErr := b.conn.Close()
	if bodyErr != nil {
		return bodyErr
	}
	return connErr
}

// writeUpgradeResponseHeaders forwards the destination's 101 status line and
// headers onto the inbound connection, grounded on the teacher's
// sendResponseHeaders: the call happens before hijacking, while rc.Writer is
// still an ordinary net/http ResponseWriter, so net/http flushes the status
// line and headers to the real client itself.
func writeUpgradeResponseHeaders(rc *RequestContext, response *http.Response) {
	header := rc.Writer.Header()
	for name, values := range response.Header {
		if isHopByHopHeader(name) && !isUpgradeHandshakeHeader(name, true) {
			continue
		}
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	rc.Writer.WriteHeader(response.StatusCode)
}

func writeUpgradeRequest(outbound *http.Request, conn net.Conn) error {
	requestLine := outbound.Method + " " + outbound.URL.RequestURI() + " HTTP/1.1\r\n"
	if _, err := io.WriteString(conn, requestLine); err != nil {
		return err
	}

	header := outbound.Header.Clone()
	header.Set("Host", outbound.Host)
	if err := header.Write(conn); err != nil {
		return err
	}

	_, err := io.WriteString(conn, "\r\n")
	return err
}

func classifyUpgradeWriteError(err error) ErrorKind {
	return ErrorKindUpgradeRequestDestination
}

// pumpUpgrade flushes any response bytes already buffered while reading
// headers, then runs two concurrent StreamCopiers sharing one
// ActivityToken. The two directions are independent: a clean EOF on one
// side does not tear down the other, so a half-closed connection keeps
// pumping in its remaining direction until it too reaches EOF or errors.
// Only a failing direction forces an early close of both connections,
// which unblocks whichever Read the other direction is blocked on.
func pumpUpgrade(rc *RequestContext, destination net.Conn, client net.Conn, clientBuf *bufio.ReadWriter, destReader *bufio.Reader, activity *ActivityToken) upgradeResult {
	defer destination.Close()
	defer client.Close()

	if n := destReader.Buffered(); n > 0 {
		if _, err := io.CopyN(client, destReader, int64(n)); err != nil {
			return upgradeResult{err: err, kind: ErrorKindUpgradeResponseClient}
		}
	}
	if clientBuf != nil {
		if err := clientBuf.Writer.Flush(); err != nil {
			return upgradeResult{err: err, kind: ErrorKindUpgradeResponseClient}
		}
	}

	toDestination := &StreamCopier{Pool: rc.bufferPool(), Activity: activity, Listener: rc.Listener, RequestID: rc.RequestID, IsRequest: true}
	toClient := &StreamCopier{Pool: rc.bufferPool(), Activity: activity, Listener: rc.Listener, RequestID: rc.RequestID, IsRequest: false}

	results := make(chan upgradeResult, 2)

	go func() {
		r := toDestination.Copy(client, destination)
		results <- classifyUpgradePumpResult(r, true)
	}()
	go func() {
		r := toClient.Copy(destination, client)
		results <- classifyUpgradePumpResult(r, false)
	}()

	first := <-results
	if first.kind != ErrorKindNone {
		activity.Close()
		destination.Close()
		client.Close()
	}
	second := <-results

	if first.kind != ErrorKindNone {
		return first
	}
	return second
}

func classifyUpgradePumpResult(r CopyResult, isRequest bool) upgradeResult {
	switch r.Outcome {
	case CopySuccess:
		return upgradeResult{}
	case CopyCanceled:
		if isRequest {
			return upgradeResult{err: r.Err, kind: ErrorKindUpgradeRequestCanceled}
		}
		return upgradeResult{err: r.Err, kind: ErrorKindUpgradeResponseCanceled}
	case CopyInputError:
		if isRequest {
			return upgradeResult{err: r.Err, kind: ErrorKindUpgradeRequestClient}
		}
		return upgradeResult{err: r.Err, kind: ErrorKindUpgradeResponseDestination}
	default: // CopyOutputError
		if isRequest {
			return upgradeResult{err: r.Err, kind: ErrorKindUpgradeRequestDestination}
		}
		return upgradeResult{err: r.Err, kind: ErrorKindUpgradeResponseClient}
	}
}
