package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Piper synthesizes with a fresh piper process per utterance.
type Piper struct {
	Binary string
}

func (p *Piper) args(req Request) []string {
	args := []string{
		"--model", req.Model,
		"--output-raw",
	}
	if req.Speaker > 0 {
		args = append(args, "--speaker", strconv.Itoa(req.Speaker))
	}
	if req.LengthScale > 0 && req.LengthScale != 1 {
		args = append(args, "--length_scale", strconv.FormatFloat(req.LengthScale, 'f', 2, 64))
	}
	return args
}

// Synthesize runs piper with the text on stdin and returns its raw output.
func (p *Piper) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.Binary, p.args(req)...)
	cmd.Stdin = strings.NewReader(req.Text + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("piper failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("piper failed: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("no audio generated")
	}
	return out, nil
}
