package sinks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/cienet/speakctl/tts"
)

// SavedExt is the extension of saved utterance audio.
const SavedExt = ".pcm.zst"

// Saved describes the audio file of one finished utterance.
type Saved struct {
	Utterance string
	Path      string
	Bytes     int64 // uncompressed PCM length
	Err       error
}

type openFile struct {
	file  *os.File
	enc   *zstd.Encoder
	path  string
	bytes int64
}

// FileSave writes the audio of each utterance to a zstd compressed PCM
// file in a directory. A file is finished on SynthesizeFinish and removed
// on Error.
type FileSave struct {
	dir    string
	logger *log.Logger

	// OnSaved, if set, is called for every finished utterance on the
	// delivering goroutine.
	OnSaved func(Saved)

	mu    sync.Mutex
	open  map[string]*openFile
	saved []Saved
}

// NewFileSave creates a FileSave writing to dir, creating it if needed.
func NewFileSave(dir string, logger *log.Logger) (*FileSave, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileSave{
		dir:    dir,
		logger: logger,
		open:   make(map[string]*openFile),
	}, nil
}

// Path returns the file an utterance is saved to.
func (s *FileSave) Path(utterance string) string {
	return filepath.Join(s.dir, fileName(utterance)+SavedExt)
}

// fileName keeps an utterance id safe to use as a file name. An id that had
// to be rewritten gets a hash of the raw id appended so that distinct ids map
// to distinct files.
func fileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
	if strings.Trim(name, ".") == "" {
		name = "_" + name
	}
	if name != id {
		name = fmt.Sprintf("%s-%08x", name, uint32(xxhash.Sum64String(id))) //nolint:gosec
	}
	return name
}

// Deliver implements tts.Sink.
func (s *FileSave) Deliver(ev tts.CallbackEvent) {
	switch ev.Type {
	case tts.EventDataArrived:
		s.write(ev.Utterance, ev.Data)
	case tts.EventSynthesizeFinish:
		s.finish(ev.Utterance, nil)
	case tts.EventError:
		s.finish(ev.Utterance, fmt.Errorf("engine error %d: %s", ev.Code, ev.Message))
	}
}

func (s *FileSave) write(utterance string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.open[utterance]
	if !ok {
		var err error
		f, err = s.create(utterance)
		if err != nil {
			s.logger.Error("Unable to save audio", "utterance", utterance, "err", err)
			return
		}
		s.open[utterance] = f
	}
	if _, err := f.enc.Write(data); err != nil {
		s.logger.Error("Unable to write audio", "utterance", utterance, "err", err)
		return
	}
	f.bytes += int64(len(data))
}

func (s *FileSave) create(utterance string) (*openFile, error) {
	path := s.Path(utterance)
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &openFile{file: file, enc: enc, path: path}, nil
}

func (s *FileSave) finish(utterance string, cause error) {
	s.mu.Lock()
	f, ok := s.open[utterance]
	delete(s.open, utterance)
	s.mu.Unlock()

	if !ok {
		return
	}
	result := Saved{Utterance: utterance, Path: f.path, Bytes: f.bytes, Err: cause}
	if err := closeFile(f); err != nil && result.Err == nil {
		result.Err = err
	}
	if result.Err != nil {
		os.Remove(f.path)
		s.logger.Warn("Discarded partial audio", "utterance", utterance, "err", result.Err)
	} else {
		s.logger.Debug("Saved audio", "utterance", utterance, "path", f.path, "bytes", f.bytes)
	}

	s.mu.Lock()
	s.saved = append(s.saved, result)
	s.mu.Unlock()

	if s.OnSaved != nil {
		s.OnSaved(result)
	}
}

func closeFile(f *openFile) error {
	encErr := f.enc.Close()
	fileErr := f.file.Close()
	return errors.Join(encErr, fileErr)
}

// Saved returns the finished utterances in completion order.
func (s *FileSave) Saved() []Saved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Saved(nil), s.saved...)
}

// Close discards files of utterances that never finished.
func (s *FileSave) Close() error {
	s.mu.Lock()
	open := s.open
	s.open = make(map[string]*openFile)
	s.mu.Unlock()

	var errs []error
	for _, f := range open {
		errs = append(errs, closeFile(f), os.Remove(f.path))
	}
	return errors.Join(errs...)
}

// ReadSaved decodes a file written by FileSave and returns the raw PCM.
func ReadSaved(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	return io.ReadAll(dec)
}
