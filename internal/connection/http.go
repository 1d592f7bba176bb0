package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

const readChunkSize = 4096

// Stall detection timings. Variables so tests can shorten them.
var (
	stallTimeout  = 10 * time.Second
	stallPollTick = 2 * time.Second
)

// StatusError is a non-2xx response from the stream server.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream server returned status %d", e.Code)
}

// ErrUnsupportedFormat is returned when the server responds with a
// content type the media stack cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported stream content type")

// HTTPFramework opens chunked HTTP audio streams with inline ICY metadata.
type HTTPFramework struct {
	client *http.Client
}

// NewHTTPFramework creates a framework with a streaming-friendly client
// (no total request timeout; connect deadlines come from the caller's ctx).
func NewHTTPFramework() *HTTPFramework {
	transport := &http.Transport{
		DisableCompression:    true,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTPFramework{
		client: &http.Client{Transport: transport},
	}
}

// Open connects to the stream URL and returns a live handle once the
// response headers have been validated. The caller's ctx bounds the
// connection attempt only, not the stream lifetime.
func (f *HTTPFramework) Open(ctx context.Context, src models.StreamSource) (Handle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); !supportedContentType(ct) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ct)
	}

	metaint := 0
	if v := resp.Header.Get("icy-metaint"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			metaint = n
		}
	}

	h := &httpHandle{
		body:     resp.Body,
		metaint:  metaint,
		station:  resp.Header.Get("icy-name"),
		events:   make(chan HandleEvent, 4),
		resume:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		readDone: make(chan struct{}),
		volume:   1.0,
	}
	h.touch()

	h.workers.Add(2)
	go h.readLoop()
	go h.stallWatch()
	// The event channel closes only once both workers have exited, so a
	// late stall tick can never hit a closed channel.
	go func() {
		h.workers.Wait()
		close(h.events)
	}()
	return h, nil
}

func supportedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	switch {
	case ct == "", // some icecast servers omit it
		strings.HasPrefix(ct, "audio/"),
		ct == "application/ogg",
		ct == "application/octet-stream":
		return true
	}
	return false
}

// httpHandle is a live ICY stream connection. Audio bytes are consumed and
// discarded (decoding is the media framework's job downstream); inline
// StreamTitle metadata is extracted and retained.
type httpHandle struct {
	body    io.ReadCloser
	metaint int
	station string

	events   chan HandleEvent
	resume   chan struct{}
	stop     chan struct{}
	readDone chan struct{}
	workers  sync.WaitGroup

	lastData atomic.Int64 // unix nanos of last successful read
	stalled  atomic.Bool

	mu     sync.Mutex
	meta   models.NowPlayingMetadata
	paused bool
	volume float64

	closeOnce sync.Once
}

func (h *httpHandle) Events() <-chan HandleEvent { return h.events }

func (h *httpHandle) NowPlaying(_ context.Context) (models.NowPlayingMetadata, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meta, nil
}

func (h *httpHandle) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range", v)
	}
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	return nil
}

// Pause stops consuming the stream while keeping the connection open so a
// quick resume does not need a reconnect.
func (h *httpHandle) Pause() error {
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()
	return nil
}

func (h *httpHandle) Resume() error {
	h.mu.Lock()
	wasPaused := h.paused
	h.paused = false
	h.mu.Unlock()
	if wasPaused {
		select {
		case h.resume <- struct{}{}:
		default:
		}
		h.touch()
	}
	return nil
}

func (h *httpHandle) Close(_ context.Context) error {
	h.closeOnce.Do(func() {
		close(h.stop)
		h.body.Close()
	})
	return nil
}

func (h *httpHandle) touch() {
	h.lastData.Store(time.Now().UnixNano())
}

func (h *httpHandle) isPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

// readLoop consumes the stream, extracting inline metadata every metaint
// bytes. It emits ended(err) on read failure and signals readDone on exit.
func (h *httpHandle) readLoop() {
	defer h.workers.Done()
	defer close(h.readDone)

	buf := make([]byte, readChunkSize)
	untilMeta := h.metaint

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		if h.isPaused() {
			select {
			case <-h.stop:
				return
			case <-h.resume:
			}
			continue
		}

		n := len(buf)
		if h.metaint > 0 && untilMeta < n {
			n = untilMeta
		}

		read, err := h.body.Read(buf[:n])
		if read > 0 {
			h.touch()
			if h.stalled.Swap(false) {
				// Data flowing again after a stall
				h.emit(HandleEvent{Kind: EventReady})
			}
			if h.metaint > 0 {
				untilMeta -= read
				if untilMeta == 0 {
					if err := h.readMetadataBlock(); err != nil {
						h.endWith(err)
						return
					}
					untilMeta = h.metaint
				}
			}
		}
		if err != nil {
			select {
			case <-h.stop:
				// Our own Close triggered the read error
				return
			default:
			}
			h.endWith(err)
			return
		}
	}
}

func (h *httpHandle) endWith(err error) {
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("stream ended: %w", io.ErrUnexpectedEOF)
	}
	h.emit(HandleEvent{Kind: EventEnded, Err: err})
}

// readMetadataBlock reads one ICY metadata block (length byte, then
// length*16 bytes of "StreamTitle='...';" text).
func (h *httpHandle) readMetadataBlock() error {
	var lenByte [1]byte
	if _, err := io.ReadFull(h.body, lenByte[:]); err != nil {
		return err
	}
	size := int(lenByte[0]) * 16
	if size == 0 {
		return nil
	}
	block := make([]byte, size)
	if _, err := io.ReadFull(h.body, block); err != nil {
		return err
	}

	meta := parseICYMetadata(string(block), h.station)
	if meta.IsZero() {
		return nil
	}
	h.mu.Lock()
	changed := !h.meta.Equal(meta)
	h.meta = meta
	h.mu.Unlock()
	if changed {
		slog.Debug("connection: stream metadata updated", "title", meta.Title, "artist", meta.Artist)
	}
	return nil
}

// stallWatch emits stalled when no data has arrived for stallTimeout. It
// exits with the read loop so it never outlives the stream.
func (h *httpHandle) stallWatch() {
	defer h.workers.Done()
	ticker := time.NewTicker(stallPollTick)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-h.readDone:
			return
		case <-ticker.C:
			if h.isPaused() || h.stalled.Load() {
				continue
			}
			last := time.Unix(0, h.lastData.Load())
			if time.Since(last) >= stallTimeout {
				h.stalled.Store(true)
				h.emit(HandleEvent{Kind: EventStalled})
			}
		}
	}
}

func (h *httpHandle) emit(ev HandleEvent) {
	select {
	case h.events <- ev:
	case <-h.stop:
	case <-h.readDone:
	}
}

// parseICYMetadata extracts StreamTitle/StreamUrl from an ICY metadata
// block. Titles of the form "Artist - Title" are split; otherwise the whole
// string becomes the title and the station name the artist.
func parseICYMetadata(block, station string) models.NowPlayingMetadata {
	title := icyField(block, "StreamTitle")
	if title == "" {
		return models.NowPlayingMetadata{}
	}

	meta := models.NowPlayingMetadata{
		ArtworkRef: icyField(block, "StreamUrl"),
	}
	if artist, track, ok := strings.Cut(title, " - "); ok && artist != "" && track != "" {
		meta.Artist = strings.TrimSpace(artist)
		meta.Title = strings.TrimSpace(track)
	} else {
		meta.Title = strings.TrimSpace(title)
		meta.Artist = station
	}
	return meta
}

func icyField(block, key string) string {
	prefix := key + "='"
	start := strings.Index(block, prefix)
	if start < 0 {
		return ""
	}
	rest := block[start+len(prefix):]
	end := strings.Index(rest, "';")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
