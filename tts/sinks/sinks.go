// Package sinks provides event sinks for a synthesis session.
package sinks

import (
	"github.com/charmbracelet/log"

	"github.com/cienet/speakctl/tts"
)

// Log returns a sink that logs every event. Engine errors are logged at
// error level with the result code; everything else at debug level.
func Log(logger *log.Logger) tts.Sink {
	if logger == nil {
		logger = log.Default()
	}
	return tts.SinkFunc(func(ev tts.CallbackEvent) {
		switch ev.Type {
		case tts.EventError:
			logger.Error("Engine error",
				"utterance", ev.Utterance,
				"code", ev.Code,
				"message", ev.Message,
				"docs", tts.ResultCodeDocs)
		case tts.EventDataArrived:
			logger.Debug("Audio data", "utterance", ev.Utterance, "bytes", len(ev.Data), "progress", ev.Progress)
		case tts.EventSpeechProgress:
			logger.Debug("Speech progress", "utterance", ev.Utterance, "progress", ev.Progress)
		default:
			logger.Debug("Event", "type", ev.Type, "utterance", ev.Utterance, "seq", ev.Seq)
		}
	})
}

// Tee returns a sink that delivers every event to each sink in order.
// Nil sinks are skipped.
func Tee(sinks ...tts.Sink) tts.Sink {
	targets := make([]tts.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			targets = append(targets, s)
		}
	}
	return tts.SinkFunc(func(ev tts.CallbackEvent) {
		for _, s := range targets {
			s.Deliver(ev)
		}
	})
}

// Chan is a sink backed by a buffered channel. Deliver blocks when the
// buffer is full, which only holds up the relay goroutine.
type Chan struct {
	C chan tts.CallbackEvent
}

// NewChan creates a channel sink with the given buffer size.
func NewChan(size int) *Chan {
	return &Chan{C: make(chan tts.CallbackEvent, size)}
}

// Deliver implements tts.Sink.
func (c *Chan) Deliver(ev tts.CallbackEvent) {
	c.C <- ev
}

// Filter returns a sink that passes on only events of the given types.
func Filter(sink tts.Sink, types ...tts.EventType) tts.Sink {
	allowed := make(map[tts.EventType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return tts.SinkFunc(func(ev tts.CallbackEvent) {
		if allowed[ev.Type] {
			sink.Deliver(ev)
		}
	})
}
