package fabric

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/achilleasa/lightbake/log"
	"github.com/klauspost/compress/zstd"
)

const tmpSuffix = ".partial"

// A MessageSink receives side band messages. Sinks must return quickly.
type MessageSink func(Message)

// Directory is a fabric backend that stores each channel as a file inside a
// root folder. Written channels are staged in a temporary file and renamed
// into place on close so readers never observe a partially written channel.
// Compressible channels are stored as zstd streams.
type Directory struct {
	logger log.Logger
	root   string
	sink   MessageSink

	mu      sync.Mutex
	writing map[string]struct{}
}

// Create a directory fabric rooted at root. The folder is created if missing.
// If sink is nil, side band messages are logged.
func NewDirectory(root string, sink MessageSink) (*Directory, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("fabric: could not create channel folder %q: %w", root, err)
	}

	return &Directory{
		logger:  log.New("fabric"),
		root:    root,
		sink:    sink,
		writing: make(map[string]struct{}),
	}, nil
}

// The folder holding the channel files.
func (d *Directory) Root() string {
	return d.root
}

// Open a named channel.
func (d *Directory) Open(name string, flags ChannelFlags, mode Mode) (Channel, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, newError(CodeInvalidArgument, name, fmt.Errorf("invalid channel name"))
	}

	if mode == ModeWrite {
		return d.openWriter(name, flags)
	}
	return d.openReader(name, flags)
}

// Post a side band message.
func (d *Directory) Post(msg Message) {
	if d.sink != nil {
		d.sink(msg)
		return
	}

	switch msg.Type {
	case ProgressMessage:
		d.logger.Infof("progress: %d%%", msg.Progress)
	default:
		d.logger.Notice(msg.Text)
	}
}

// List the names of all published channels in lexicographic order.
func (d *Directory) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), tmpSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *Directory) openWriter(name string, flags ChannelFlags) (Channel, error) {
	d.mu.Lock()
	if _, busy := d.writing[name]; busy {
		d.mu.Unlock()
		return nil, newError(CodeAlreadyExists, name, ErrChannelExists)
	}
	d.writing[name] = struct{}{}
	d.mu.Unlock()

	f, err := os.CreateTemp(d.root, name+".*"+tmpSuffix)
	if err != nil {
		d.release(name)
		return nil, newError(CodeChannelIO, name, err)
	}

	ch := &fileWriter{
		dir:  d,
		name: name,
		file: f,
		buf:  bufio.NewWriterSize(f, 64*1024),
	}
	ch.sink = ch.buf

	if flags&Compressible != 0 {
		ch.enc, err = zstd.NewWriter(ch.buf, zstd.WithEncoderConcurrency(1))
		if err != nil {
			ch.Abort()
			return nil, newError(CodeChannelIO, name, err)
		}
		ch.sink = ch.enc
	}

	d.logger.Debugf("opened channel %s for writing (%s)", name, flags)
	return ch, nil
}

func (d *Directory) openReader(name string, flags ChannelFlags) (Channel, error) {
	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(CodeChannelNotFound, name, ErrNotFound)
		}
		return nil, newError(CodeChannelIO, name, err)
	}

	ch := &fileReader{
		dir:       d,
		name:      name,
		file:      f,
		ephemeral: flags&Ephemeral != 0,
	}
	ch.source = bufio.NewReaderSize(f, 64*1024)

	if flags&Compressible != 0 {
		ch.dec, err = zstd.NewReader(ch.source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, newError(CodeChannelIO, name, err)
		}
		ch.source = ch.dec
	}

	d.logger.Debugf("opened channel %s for reading (%s)", name, flags)
	return ch, nil
}

func (d *Directory) release(name string) {
	d.mu.Lock()
	delete(d.writing, name)
	d.mu.Unlock()
}

type fileWriter struct {
	dir  *Directory
	name string
	file *os.File
	buf  *bufio.Writer
	enc  *zstd.Encoder
	sink io.Writer
}

func (w *fileWriter) Name() string {
	return w.name
}

func (w *fileWriter) Read([]byte) (int, error) {
	return 0, fmt.Errorf("channel %s is write-only", w.name)
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.sink.Write(p)
}

// Flush pending data and publish the channel.
func (w *fileWriter) Close() error {
	defer w.dir.release(w.name)

	var err error
	if w.enc != nil {
		err = w.enc.Close()
	}
	if err == nil {
		err = w.buf.Flush()
	}
	if err == nil {
		err = w.file.Sync()
	}
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(w.file.Name(), filepath.Join(w.dir.root, w.name))
	}
	if err != nil {
		os.Remove(w.file.Name())
	}
	return err
}

// Discard the staged data. The channel is never published.
func (w *fileWriter) Abort() error {
	defer w.dir.release(w.name)
	if w.enc != nil {
		w.enc.Reset(io.Discard)
		w.enc.Close()
	}
	w.file.Close()
	return os.Remove(w.file.Name())
}

type fileReader struct {
	dir       *Directory
	name      string
	file      *os.File
	dec       *zstd.Decoder
	source    io.Reader
	ephemeral bool
}

func (r *fileReader) Name() string {
	return r.name
}

func (r *fileReader) Read(p []byte) (int, error) {
	return r.source.Read(p)
}

func (r *fileReader) Write([]byte) (int, error) {
	return 0, fmt.Errorf("channel %s is read-only", r.name)
}

func (r *fileReader) Abort() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.file.Close()
}

func (r *fileReader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	err := r.file.Close()
	if err == nil && r.ephemeral {
		err = os.Remove(filepath.Join(r.dir.root, r.name))
	}
	return err
}
