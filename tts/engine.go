package tts

import "time"

// Binding opens engine handles. It stands for the external engine; the
// controller never reimplements what happens behind it.
type Binding interface {
	// Open initializes the engine and returns a handle. A nonzero code means
	// the engine refused to initialize and the handle must be ignored.
	// Events for the handle are delivered to sink, possibly from engine
	// goroutines.
	Open(config EngineConfig, sink Sink) (Handle, int)
}

// Handle is an open engine. Every method returns the engine's result code;
// 0 means the request was accepted.
type Handle interface {
	Speak(id, text string) int
	Synthesize(id, text string) int
	BatchSpeak(items []BatchItem) int
	Pause() int
	Resume() int
	Stop() int
	LoadModel(voice OfflineVoice) int
	Release() int
}

// EngineConfig is what a Binding receives at Open.
type EngineConfig struct {
	Credentials   Credentials
	Mode          Mode
	Voice         OfflineVoice
	Params        map[string]string
	OnlineTimeout time.Duration // Mixed mode online timeout
}
