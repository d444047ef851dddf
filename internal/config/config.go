package config

import (
	"time"

	"github.com/spf13/viper"
)

// Gemini holds the API settings shared by the classifier, the live channel,
// and TTS.
type Gemini struct {
	APIKey    string
	Model     string
	LiveModel string
	TTSModel  string
	Voice     string
}

// App is the resolved application configuration.
type App struct {
	Gemini           Gemini
	PlacesAPIKey     string
	DatabasePath     string
	FrameInterval    time.Duration
	DebounceCount    int
	DebounceInterval time.Duration
	GridSize         int
	DisableLive      bool
}

// Load resolves the application configuration from viper, which has already
// merged the config file, environment, and flags.
func Load() App {
	app := App{
		Gemini: Gemini{
			APIKey:    viper.GetString("gemini.api_key"),
			Model:     viper.GetString("gemini.model"),
			LiveModel: viper.GetString("gemini.live_model"),
			TTSModel:  viper.GetString("gemini.tts_model"),
			Voice:     viper.GetString("gemini.voice"),
		},
		PlacesAPIKey:     viper.GetString("places.api_key"),
		DatabasePath:     viper.GetString("database.path"),
		FrameInterval:    viper.GetDuration("capture.frame_interval"),
		DebounceCount:    viper.GetInt("stabilizer.debounce_count"),
		DebounceInterval: viper.GetDuration("stabilizer.debounce_interval"),
		GridSize:         viper.GetInt("stabilizer.grid_size"),
		DisableLive:      viper.GetBool("live.disabled"),
	}

	if app.DatabasePath == "" {
		app.DatabasePath = "$HOME/.local/share/sayboard/sayboard.db"
	}
	app.DatabasePath = ExpandPath(app.DatabasePath)

	return app
}
