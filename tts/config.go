package tts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects where synthesis runs.
type Mode int

const (
	// ModeOnline synthesizes on the remote service only.
	ModeOnline Mode = iota + 1
	// ModeMixed prefers the remote service and falls back to the offline
	// model on timeout or connectivity loss.
	ModeMixed
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m == ModeOnline || m == ModeMixed
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return ModeOnline, nil
	case "mixed", "mix":
		return ModeMixed, nil
	}
	return 0, fmt.Errorf("invalid mode %q: must be one of [online mixed]", s)
}

// OfflineVoice selects the bundled on-device voice model.
type OfflineVoice int

const (
	// VoiceMale selects the male offline model.
	VoiceMale OfflineVoice = iota + 1
	// VoiceFemale selects the female offline model.
	VoiceFemale
)

// String returns the string representation of the voice.
func (v OfflineVoice) String() string {
	switch v {
	case VoiceMale:
		return "male"
	case VoiceFemale:
		return "female"
	default:
		return "unknown"
	}
}

// Valid reports whether v is a recognized voice.
func (v OfflineVoice) Valid() bool {
	return v == VoiceMale || v == VoiceFemale
}

// Toggle returns the other voice.
func (v OfflineVoice) Toggle() OfflineVoice {
	if v == VoiceFemale {
		return VoiceMale
	}
	return VoiceFemale
}

// SpeechModel returns the file name of the voice's offline speech model.
func (v OfflineVoice) SpeechModel() string {
	switch v {
	case VoiceFemale:
		return "bd_etts_speech_female.dat"
	case VoiceMale:
		return "bd_etts_speech_male.dat"
	default:
		return ""
	}
}

// ParseVoice parses a voice name, case-insensitively.
func ParseVoice(s string) (OfflineVoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return VoiceMale, nil
	case "female", "f":
		return VoiceFemale, nil
	}
	return 0, fmt.Errorf("invalid offline voice %q: must be one of [male female]", s)
}

// MixMode controls when mixed mode gives up on the remote service.
type MixMode int

const (
	// MixDefault uses online on wifi, offline otherwise; 6s online timeout.
	MixDefault MixMode = iota + 1
	// MixHighSpeedWifi uses online on wifi, offline otherwise; 1.2s timeout.
	MixHighSpeedWifi
	// MixHighSpeedNetwork uses online on 3G/4G/wifi; 1.2s timeout.
	MixHighSpeedNetwork
	// MixHighSpeedSynthesize uses online on 2G/3G/4G/wifi; 1.2s timeout.
	MixHighSpeedSynthesize
)

// String returns the engine's name for the mix mode.
func (m MixMode) String() string {
	switch m {
	case MixDefault:
		return "MIX_MODE_DEFAULT"
	case MixHighSpeedWifi:
		return "MIX_MODE_HIGH_SPEED_SYNTHESIZE_WIFI"
	case MixHighSpeedNetwork:
		return "MIX_MODE_HIGH_SPEED_NETWORK"
	case MixHighSpeedSynthesize:
		return "MIX_MODE_HIGH_SPEED_SYNTHESIZE"
	default:
		return "unknown"
	}
}

// Valid reports whether m is a recognized mix mode.
func (m MixMode) Valid() bool {
	return m >= MixDefault && m <= MixHighSpeedSynthesize
}

// OnlineTimeout is how long mixed mode waits on the remote service before
// switching to the offline model.
func (m MixMode) OnlineTimeout() time.Duration {
	if m == MixDefault {
		return 6 * time.Second
	}
	return 1200 * time.Millisecond
}

// ParseMixMode parses a mix mode, accepting short names and engine names.
func ParseMixMode(s string) (MixMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "mix_mode_default":
		return MixDefault, nil
	case "high_speed_wifi", "mix_mode_high_speed_synthesize_wifi":
		return MixHighSpeedWifi, nil
	case "high_speed_network", "mix_mode_high_speed_network":
		return MixHighSpeedNetwork, nil
	case "high_speed_synthesize", "mix_mode_high_speed_synthesize":
		return MixHighSpeedSynthesize, nil
	}
	return 0, fmt.Errorf("invalid mix mode %q: must be one of [default high_speed_wifi high_speed_network high_speed_synthesize]", s)
}

// Engine parameter names.
const (
	ParamSpeaker = "per"
	ParamVolume  = "vol"
	ParamSpeed   = "spd"
	ParamPitch   = "pit"
	ParamMixMode = "mix_mode"
)

// Credentials identify the application to the engine.
type Credentials struct {
	AppID     string `yaml:"app_id" env:"SPEAKCTL_APP_ID"`
	AppKey    string `yaml:"app_key" env:"SPEAKCTL_APP_KEY"`
	SecretKey string `yaml:"secret_key" env:"SPEAKCTL_SECRET_KEY"`
}

// Params are the tunable synthesis parameters.
type Params struct {
	Speaker int     `yaml:"speaker"` // 0 standard female, 1 standard male, 2 special male, 3 emotional male, 4 emotional child
	Volume  int     `yaml:"volume"`  // 0-9
	Speed   int     `yaml:"speed"`   // 0-9
	Pitch   int     `yaml:"pitch"`   // 0-9
	MixMode MixMode `yaml:"mix_mode"`
}

// Config is the session configuration. It holds no reference types, so the
// copy taken by Initialize cannot be changed by the caller afterwards.
type Config struct {
	Credentials  Credentials  `yaml:"credentials"`
	Mode         Mode         `yaml:"mode"`
	OfflineVoice OfflineVoice `yaml:"offline_voice"`
	Params       Params       `yaml:"params"`
}

// Parameter ranges.
const (
	MaxSpeaker = 4
	MaxLevel   = 9
)

// DefaultParams returns the engine's default parameters.
func DefaultParams() Params {
	return Params{
		Speaker: 0,
		Volume:  5,
		Speed:   5,
		Pitch:   5,
		MixMode: MixDefault,
	}
}

// DefaultConfig returns a Config with defaults and empty credentials.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeMixed,
		OfflineVoice: VoiceMale,
		Params:       DefaultParams(),
	}
}

// Validate checks a configuration. It has no side effects.
func Validate(cfg Config) Outcome {
	if err := cfg.check(); err != nil {
		return Failed(KindValidation, ReasonInvalidConfig, CmdInitialize, err.Error())
	}
	return Ok(CmdInitialize)
}

func (c Config) check() error {
	if strings.TrimSpace(c.Credentials.AppID) == "" {
		return fmt.Errorf("app_id cannot be empty")
	}
	if strings.TrimSpace(c.Credentials.AppKey) == "" {
		return fmt.Errorf("app_key cannot be empty")
	}
	if strings.TrimSpace(c.Credentials.SecretKey) == "" {
		return fmt.Errorf("secret_key cannot be empty")
	}

	if !c.Mode.Valid() {
		return fmt.Errorf("unrecognized mode %d", int(c.Mode))
	}
	if !c.OfflineVoice.Valid() {
		return fmt.Errorf("unrecognized offline voice %d", int(c.OfflineVoice))
	}
	if !c.Params.MixMode.Valid() {
		return fmt.Errorf("unrecognized mix mode %d", int(c.Params.MixMode))
	}

	if c.Params.Speaker < 0 || c.Params.Speaker > MaxSpeaker {
		return fmt.Errorf("speaker must be between 0 and %d, got %d", MaxSpeaker, c.Params.Speaker)
	}
	levels := []struct {
		name  string
		value int
	}{
		{"volume", c.Params.Volume},
		{"speed", c.Params.Speed},
		{"pitch", c.Params.Pitch},
	}
	for _, l := range levels {
		if l.value < 0 || l.value > MaxLevel {
			return fmt.Errorf("%s must be between 0 and %d, got %d", l.name, MaxLevel, l.value)
		}
	}

	return nil
}

// EngineParams renders the parameters as the engine's name to value mapping.
// The mix mode only applies in ModeMixed and is omitted otherwise.
func (c Config) EngineParams() map[string]string {
	params := map[string]string{
		ParamSpeaker: strconv.Itoa(c.Params.Speaker),
		ParamVolume:  strconv.Itoa(c.Params.Volume),
		ParamSpeed:   strconv.Itoa(c.Params.Speed),
		ParamPitch:   strconv.Itoa(c.Params.Pitch),
	}
	if c.Mode == ModeMixed {
		params[ParamMixMode] = c.Params.MixMode.String()
	}
	return params
}

// ToEngineConfig converts the session config to what a Binding receives.
func (c Config) ToEngineConfig() EngineConfig {
	return EngineConfig{
		Credentials:   c.Credentials,
		Mode:          c.Mode,
		Voice:         c.OfflineVoice,
		Params:        c.EngineParams(),
		OnlineTimeout: c.Params.MixMode.OnlineTimeout(),
	}
}
