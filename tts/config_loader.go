package tts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the session configuration from v, starting from
// DefaultConfig and overriding only the keys that are set.
func LoadConfigFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	// Credentials
	if v.IsSet("tts.app_id") {
		cfg.Credentials.AppID = v.GetString("tts.app_id")
	}
	if v.IsSet("tts.app_key") {
		cfg.Credentials.AppKey = v.GetString("tts.app_key")
	}
	if v.IsSet("tts.secret_key") {
		cfg.Credentials.SecretKey = v.GetString("tts.secret_key")
	}

	// Mode and voice
	if v.IsSet("tts.mode") {
		mode, err := ParseMode(v.GetString("tts.mode"))
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if v.IsSet("tts.offline_voice") {
		voice, err := ParseVoice(v.GetString("tts.offline_voice"))
		if err != nil {
			return cfg, err
		}
		cfg.OfflineVoice = voice
	}

	// Synthesis parameters
	if v.IsSet("tts.speaker") {
		cfg.Params.Speaker = v.GetInt("tts.speaker")
	}
	if v.IsSet("tts.volume") {
		cfg.Params.Volume = v.GetInt("tts.volume")
	}
	if v.IsSet("tts.speed") {
		cfg.Params.Speed = v.GetInt("tts.speed")
	}
	if v.IsSet("tts.pitch") {
		cfg.Params.Pitch = v.GetInt("tts.pitch")
	}
	if v.IsSet("tts.mix_mode") {
		mix, err := ParseMixMode(v.GetString("tts.mix_mode"))
		if err != nil {
			return cfg, err
		}
		cfg.Params.MixMode = mix
	}

	return cfg, nil
}

// LoadCredentials reads credentials from the environment. Each existing file
// in envFiles is loaded first as a dotenv file; variables already present in
// the environment are not overwritten.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Credentials{}, fmt.Errorf("unable to load env file %s: %w", f, err)
		}
	}

	creds, err := env.ParseAs[Credentials]()
	if err != nil {
		return Credentials{}, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return creds, nil
}

// Merge returns c with every non-empty field of override applied.
func (c Credentials) Merge(override Credentials) Credentials {
	if override.AppID != "" {
		c.AppID = override.AppID
	}
	if override.AppKey != "" {
		c.AppKey = override.AppKey
	}
	if override.SecretKey != "" {
		c.SecretKey = override.SecretKey
	}
	return c
}
