package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrAudioDevice is returned when the output device cannot be opened.
var ErrAudioDevice = errors.New("audio device unavailable")

// oto allows a single context per process.
var (
	contextOnce sync.Once
	contextRate int
	otoContext  *oto.Context
	contextErr  error
)

func audioContext(sampleRate int) (*oto.Context, error) {
	contextOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			contextErr = fmt.Errorf("%w: %v", ErrAudioDevice, err)
			return
		}
		<-ready
		otoContext = ctx
		contextRate = sampleRate
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if contextRate != sampleRate {
		return nil, fmt.Errorf("%w: context is %d Hz, want %d Hz", ErrAudioDevice, contextRate, sampleRate)
	}
	return otoContext, nil
}

// countingReader tracks how much of the audio oto has consumed.
type countingReader struct {
	r    io.Reader
	read atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read.Add(int64(n))
	return n, err
}

// OtoPlayer plays 16-bit mono PCM through oto.
type OtoPlayer struct {
	SampleRate int

	mu      sync.Mutex
	current *oto.Player
	paused  bool
}

// Play implements Player.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte, volume float64, progress func(int)) error {
	octx, err := audioContext(p.SampleRate)
	if err != nil {
		return err
	}

	reader := &countingReader{r: bytes.NewReader(pcm)}
	player := octx.NewPlayer(reader)
	player.SetVolume(volume)

	p.mu.Lock()
	p.current = player
	p.paused = false
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.current = nil
		p.paused = false
		p.mu.Unlock()
		player.Close()
	}()

	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			played := int(reader.read.Load()) - player.BufferedSize()
			progress(max(played, 0))

			p.mu.Lock()
			paused := p.paused
			p.mu.Unlock()
			if !paused && !player.IsPlaying() {
				progress(len(pcm))
				return player.Err()
			}
		}
	}
}

// Pause implements Player.
func (p *OtoPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return errors.New("nothing is playing")
	}
	p.current.Pause()
	p.paused = true
	return nil
}

// Resume implements Player.
func (p *OtoPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return errors.New("nothing is playing")
	}
	p.current.Play()
	p.paused = false
	return nil
}
