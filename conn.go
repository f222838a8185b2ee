package h2wire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"

	"github.com/kasimir-io/h2wire/hpack"
)

const clientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// Transport is the pair of byte streams a Connection is handed; TCP
// accept/dial, TLS/ALPN negotiation and the listen loop are all a caller's
// responsibility (see the module's design notes on scope).
type Transport interface {
	io.Reader
	io.Writer
}

// OnFrame is invoked once per received frame, on the receive task. It must
// not block that task indefinitely; offloading long work is the caller's
// responsibility.
type OnFrame func(c *Connection, frh *FrameHeader)

// Config configures a Connection constructed by Handshake.
type Config struct {
	// IsClient selects which side of the preface exchange this endpoint
	// plays: true writes the preface, false expects to read it.
	IsClient bool

	// SenderQueueSize bounds the send queue capacity (spec's
	// `sender_queue_size`). Zero uses DefaultSenderQueueSize.
	SenderQueueSize int

	// LocalSettings overrides DefaultSettings() for the SETTINGS frame
	// sent during handshake (spec's `local_settings`). Nil uses
	// DefaultSettings() untouched.
	LocalSettings *Settings

	// MaxFrameSize sizes the outbound write buffer. Zero uses
	// DefaultMaxFrameSize. It does not bound inbound payloads: the first
	// frame of the handshake is limited to DefaultMaxFrameSize, and later
	// frames to the local SETTINGS_MAX_FRAME_SIZE.
	MaxFrameSize uint32

	Logger  Logger
	Metrics *Metrics
}

const DefaultSenderQueueSize = 128

func (cfg Config) logger() Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return noopLogger{}
}

// Connection is one HTTP/2 endpoint's connection-scoped state: the user
// callback, the send queue, local and peer Settings, the HPACK codecs, and
// the last received stream id. Settings and HPACK state are guarded by
// their own mutexes and are never held across a suspension point (spec §5).
type Connection struct {
	id uint64

	transport Transport
	br        *bufio.Reader
	bwMu      sync.Mutex
	bw        *bufio.Writer

	onFrame OnFrame
	logger  Logger
	metrics *Metrics

	localMu sync.Mutex
	local   *Settings

	peerMu sync.Mutex
	peer   *Settings

	decMu sync.Mutex
	dec   *hpack.Decoder

	encMu sync.Mutex
	enc   *hpack.Encoder

	lastStreamID uint32

	sendCh  chan *FrameHeader
	closing uint32

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

var connIDCounter uint64

// Handshake performs the preface exchange and mutual SETTINGS negotiation
// (spec §4.I), then starts the recv and send tasks. On success, frames are
// dispatched to onFrame until the connection closes; on failure, the
// transport is left for the caller to close (handshake never takes
// ownership of a transport it failed to bring up).
func Handshake(ctx context.Context, cfg Config, transport Transport, onFrame OnFrame) (*Connection, error) {
	if onFrame == nil {
		return nil, errors.New("h2wire: onFrame callback is required")
	}

	queueSize := cfg.SenderQueueSize
	if queueSize <= 0 {
		queueSize = DefaultSenderQueueSize
	}
	maxFrame := cfg.MaxFrameSize
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}

	local := DefaultSettings()
	if cfg.LocalSettings != nil {
		cfg.LocalSettings.CopyTo(local)
	}

	c := &Connection{
		id:        atomic.AddUint64(&connIDCounter, 1),
		transport: transport,
		br:        bufio.NewReaderSize(transport, 4096),
		bw:        bufio.NewWriterSize(transport, int(maxFrame)),
		onFrame:   onFrame,
		logger:    cfg.logger(),
		metrics:   cfg.Metrics,
		local:     local,
		peer:      DefaultSettings(),
		dec:       hpack.NewDecoder(int(local.HeaderTableSize)),
		enc:       hpack.NewEncoder(int(DefaultHeaderTableSize)),
		sendCh:    make(chan *FrameHeader, queueSize),
		done:      make(chan struct{}),
	}

	if err := c.handshake(cfg.IsClient); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Connection) handshake(isClient bool) error {
	if isClient {
		if _, err := io.WriteString(c.bw, clientPreface); err != nil {
			return wrapConnError(ConnectError, err)
		}
	} else {
		buf := make([]byte, len(clientPreface))
		if _, err := io.ReadFull(c.br, buf); err != nil {
			return wrapConnError(ConnectError, err)
		}
		if string(buf) != clientPreface {
			return wrapConnError(ProtocolError, ErrBadPreface)
		}
	}

	if err := c.writeSettings(c.local); err != nil {
		return wrapConnError(ConnectError, err)
	}

	frh, err := ReadFrameFromWithSize(c.br, DefaultMaxFrameSize)
	if err != nil {
		return wrapConnError(ConnectError, err)
	}
	defer ReleaseFrameHeader(frh)

	st, ok := frh.Body().(*Settings)
	if !ok || st.Ack() {
		return wrapConnError(ProtocolError, fmt.Errorf("h2wire: expected non-ACK SETTINGS as first frame, got %s", frh.Type()))
	}

	c.applyPeerSettings(st)

	ack := &Settings{}
	ack.SetAck(true)
	if err := c.writeSettings(ack); err != nil {
		return wrapConnError(ConnectError, err)
	}

	go c.runTasks()

	return nil
}

func (c *Connection) applyPeerSettings(st *Settings) {
	c.peerMu.Lock()
	st.ApplyTo(c.peer)
	headerTableSize := c.peer.HeaderTableSize
	c.peerMu.Unlock()

	c.encMu.Lock()
	c.enc.SetMaxTableSize(int(headerTableSize))
	c.metrics.observeDynTableSize("encode", c.enc.DynamicTable().Size())
	c.encMu.Unlock()
}

func (c *Connection) writeSettings(st *Settings) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetBody(st)

	c.bwMu.Lock()
	defer c.bwMu.Unlock()
	if _, err := frh.WriteTo(c.bw); err != nil {
		return err
	}
	c.metrics.observeSent(FrameSettings)
	return c.bw.Flush()
}

// ID returns the connection's stable identifier.
func (c *Connection) ID() uint64 { return c.id }

// Closed reports whether async_disconnect (or a fatal error) has begun
// shutting the connection down.
func (c *Connection) Closed() bool { return atomic.LoadUint32(&c.closing) == 1 }

// SendFrame enqueues fr for transmission on streamID in FIFO order. It
// returns quickly without waiting for the frame to reach the transport: on
// a full queue it hands the retry off to a background goroutine using the
// jittered backoff spec §4.I describes, rather than blocking the caller.
// streamID must be 0 for the connection-scoped frame types (SETTINGS,
// GOAWAY) and non-zero for the stream-scoped ones (HEADERS, PRIORITY); the
// wire-level checks in each Deserialize enforce this on the receive side.
func (c *Connection) SendFrame(streamID uint32, fr Frame) error {
	if c.Closed() {
		return ErrConnectionClosed
	}

	frh := AcquireFrameHeader()
	frh.SetStream(streamID)
	frh.SetBody(fr)

	select {
	case c.sendCh <- frh:
		return nil
	default:
	}

	go c.enqueueWithBackoff(frh)
	return nil
}

func (c *Connection) enqueueWithBackoff(frh *FrameHeader) {
	for {
		if c.Closed() {
			ReleaseFrameHeader(frh)
			return
		}
		select {
		case c.sendCh <- frh:
			return
		default:
			delay := time.Duration(fastrand.Uint32n(30)) * time.Millisecond
			time.Sleep(delay)
		}
	}
}

// UpdateLocalSettings applies the given subset of settings (keyed by their
// RFC 7540 §6.5.2 wire id) to the local Settings and transmits a SETTINGS
// frame carrying the resulting full record. A SETTINGS_HEADER_TABLE_SIZE
// override also re-points the HPACK decoder's ceiling on the peer's
// Dynamic Table Size Update representations, shrinking the live table
// immediately if the new size is smaller.
func (c *Connection) UpdateLocalSettings(overrides map[uint16]uint32) error {
	c.localMu.Lock()
	for id, value := range overrides {
		c.local.SetValue(id, value)
	}
	snapshot := &Settings{}
	c.local.CopyTo(snapshot)
	c.localMu.Unlock()

	if _, ok := overrides[SettingHeaderTableSize]; ok {
		c.decMu.Lock()
		c.dec.SetMaxTableSize(int(snapshot.HeaderTableSize))
		c.decMu.Unlock()
	}

	return c.SendFrame(0, snapshot)
}

// AsyncDisconnect sets the closing flag: both tasks exit at their next
// yield point, a final GOAWAY(NoError) is attempted, and the transport is
// closed. Errors from any of those steps are aggregated, not discarded.
func (c *Connection) AsyncDisconnect() error {
	return c.shutdown(NoError, nil)
}

func (c *Connection) shutdown(code ErrorCode, cause error) error {
	var result error
	c.closeOnce.Do(func() {
		atomic.StoreUint32(&c.closing, 1)

		ga := &GoAway{}
		ga.SetLastStreamID(atomic.LoadUint32(&c.lastStreamID))
		ga.SetCode(code)

		frh := AcquireFrameHeader()
		frh.SetBody(ga)

		c.bwMu.Lock()
		_, writeErr := frh.WriteTo(c.bw)
		var flushErr error
		if writeErr == nil {
			flushErr = c.bw.Flush()
		}
		c.bwMu.Unlock()

		switch {
		case writeErr != nil:
			result = multierror.Append(result, fmt.Errorf("h2wire: writing final GOAWAY: %w", writeErr))
		case flushErr != nil:
			result = multierror.Append(result, fmt.Errorf("h2wire: flushing final GOAWAY: %w", flushErr))
		default:
			c.metrics.observeSent(FrameGoAway)
			c.metrics.observeGoAway()
		}
		ReleaseFrameHeader(frh)

		if cause != nil {
			result = multierror.Append(result, cause)
		}

		if closer, ok := c.transport.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("h2wire: closing transport: %w", err))
			}
		}

		close(c.done)
		c.closeErr = result
	})
	return c.closeErr
}

// Wait blocks until the connection has finished shutting down, or ctx is
// done, whichever comes first.
func (c *Connection) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connection) recvLoop() {
	for !c.Closed() {
		frh, err := ReadFrameFromWithSize(c.br, c.localMaxFrameSize())
		if err != nil {
			if errors.Is(err, io.EOF) || c.Closed() {
				_ = c.shutdown(NoError, nil)
			} else {
				c.logger.Warnf("h2wire: connection %d: read frame: %v", c.id, err)
				_ = c.shutdown(InternalError, wrapConnError(ConnectError, err))
			}
			return
		}

		c.metrics.observeReceived(frh.Type())

		if frh.Stream() != 0 {
			atomic.StoreUint32(&c.lastStreamID, frh.Stream())
		}

		if err := c.handleFrame(frh); err != nil {
			var protoErr *Error
			code := InternalError
			if errors.As(err, &protoErr) {
				code = protoErr.Code
			}
			c.logger.Errorf("h2wire: connection %d: %v", c.id, err)
			ReleaseFrameHeader(frh)
			_ = c.shutdown(code, err)
			return
		}

		c.onFrame(c, frh)
		ReleaseFrameHeader(frh)
	}
}

func (c *Connection) localMaxFrameSize() uint32 {
	c.localMu.Lock()
	defer c.localMu.Unlock()
	return c.local.MaxFrameSize
}

// handleFrame applies the protocol-level side effects §4.I assigns the
// receive task, before the frame is handed to the user callback: SETTINGS
// updates peer state and replies with an ACK; GOAWAY triggers one GOAWAY
// back and a drain; HEADERS is run through the HPACK decoder so its fields
// are ready by the time the callback sees it.
func (c *Connection) handleFrame(frh *FrameHeader) error {
	switch frh.Type() {
	case FrameSettings:
		st := frh.Body().(*Settings)
		if !st.Ack() {
			c.applyPeerSettings(st)
			ack := &Settings{}
			ack.SetAck(true)
			if err := c.SendFrame(0, ack); err != nil {
				return err
			}
		}
	case FrameGoAway:
		ga := frh.Body().(*GoAway)
		c.logger.Infof("h2wire: connection %d: peer GOAWAY code=%s last_stream=%d", c.id, ga.Code(), ga.LastStreamID())
		c.metrics.observeGoAway()
		go func() { _ = c.shutdown(NoError, nil) }()
	case FrameHeaders:
		h := frh.Body().(*Headers)
		if err := c.decodeHeaders(h); err != nil {
			return err
		}
	case FramePriority:
		// no connection-level side effect; delivered to the callback as-is.
	}
	return nil
}

func (c *Connection) decodeHeaders(h *Headers) error {
	c.decMu.Lock()
	defer c.decMu.Unlock()

	c.dec.Reset()
	b := h.HeaderBlock()
	h.fields = h.fields[:0]
	for len(b) > 0 {
		f := hpack.AcquireField()
		rest, err := c.dec.Next(f, b)
		if err != nil {
			hpack.ReleaseField(f)
			if errors.Is(err, hpack.ErrZeroIndex) {
				return wrapConnError(ProtocolError, err)
			}
			return wrapConnError(CompressionError, err)
		}
		h.fields = append(h.fields, f)
		b = rest
	}
	c.metrics.observeDynTableSize("decode", c.dec.DynamicTable().Size())
	return nil
}

func (c *Connection) sendLoop() {
	for {
		select {
		case frh, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.writeQueued(frh); err != nil {
				c.logger.Warnf("h2wire: connection %d: write frame: %v", c.id, err)
				_ = c.shutdown(InternalError, wrapConnError(ConnectError, err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) writeQueued(frh *FrameHeader) error {
	defer ReleaseFrameHeader(frh)

	if frh.Type() == FrameHeaders {
		h := frh.Body().(*Headers)
		c.encMu.Lock()
		err := c.encodeHeaders(h)
		c.encMu.Unlock()
		if err != nil {
			return err
		}
	}

	c.bwMu.Lock()
	defer c.bwMu.Unlock()
	if _, err := frh.WriteTo(c.bw); err != nil {
		return err
	}
	c.metrics.observeSent(frh.Type())
	return c.bw.Flush()
}

func (c *Connection) encodeHeaders(h *Headers) error {
	if len(h.fields) == 0 {
		return nil
	}
	var block []byte
	for _, f := range h.fields {
		block = c.enc.AppendField(block, f)
	}
	h.SetHeaderBlock(block)
	c.metrics.observeDynTableSize("encode", c.enc.DynamicTable().Size())
	return nil
}

// runTasks runs the recv and send cooperative tasks (spec §5) under an
// errgroup so the return of either is joined in one place;
// both tasks already terminate themselves via shutdown on any failure, so
// g.Wait's error here is purely diagnostic.
func (c *Connection) runTasks() {
	var g errgroup.Group
	g.Go(func() error {
		c.recvLoop()
		return nil
	})
	g.Go(func() error {
		c.sendLoop()
		return nil
	})
	_ = g.Wait()
}

var ErrConnectionClosed = errors.New("h2wire: connection is closed")
