// Package config loads and validates the flat key=value configuration
// record that drives the motion-detection pipeline (configuration.h's
// SysConfig), optionally overlaid with process environment variables
// loaded via godotenv.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/motdec/motiond/internal/motion"
)

// Config mirrors SysConfig field-for-field: detection thresholds,
// output toggles, capture and log paths, GMM parameters and the
// entity filter bounds.
type Config struct {
	ChangePercentThreshold float64 // 0.0 - 1.0
	PixelChangeThreshold   int     // 0 - 255
	RawImgOutput           bool
	DiffImgOutput          bool
	SegmapImgOutput        bool
	MedianImgCount         int // N for the median background model

	LogsPath    string
	LogfilePath string
	VideoDevice string
	FFmpegPath  string
	Resolution  string // "WIDTHxHEIGHT"

	GMMKVal   int     // 1 - 10
	GMMTVal   float64 // 0.0 - 1.0
	GMMAlpha  float64 // 0.0 - 1.0
	GMMInitVar float64 // 0 - 255
	GMMMinVar  float64 // 0 - 255

	DoEntFiltering bool
	EntMinMass     int // -1 means unconstrained
	EntMaxMass     int
	EntMinWidth    int
	EntMaxWidth    int
	EntMinHeight   int
	EntMaxHeight   int
}

// Default returns a Config with the same defaults motdec.c's
// init_config call site uses, widened per the pipeline's own
// documented gmm.K range of 1-10 (configuration.h's comment allows
// 1-10; its hard-coded init_config call narrows it to 1-5 without
// explanation — this module keeps the documented, wider range).
func Default() Config {
	return Config{
		ChangePercentThreshold: 0.01,
		PixelChangeThreshold:   25,
		RawImgOutput:           true,
		DiffImgOutput:          false,
		SegmapImgOutput:        false,
		MedianImgCount:         10,
		LogsPath:               "./logs",
		LogfilePath:            "./motiond.log",
		VideoDevice:            "/dev/video0",
		FFmpegPath:             "/usr/bin/ffmpeg",
		Resolution:             "640x480",
		GMMKVal:                3,
		GMMTVal:                0.7,
		GMMAlpha:               0.05,
		GMMInitVar:             36,
		GMMMinVar:              4,
		DoEntFiltering:         false,
		EntMinMass:             -1,
		EntMaxMass:             -1,
		EntMinWidth:            -1,
		EntMaxWidth:            -1,
		EntMinHeight:           -1,
		EntMaxHeight:           -1,
	}
}

// Validate rejects a Config with any field outside its documented
// range, matching the bounds is_valid_filter_val/str_to_double etc.
// enforce in configuration.h's set().
func (c Config) Validate() error {
	if c.ChangePercentThreshold < 0 || c.ChangePercentThreshold > 1 {
		return fmt.Errorf("changePercentThreshold must be 0.0-1.0: %w", motion.ErrInvalidConfiguration)
	}
	if c.PixelChangeThreshold < 0 || c.PixelChangeThreshold > 255 {
		return fmt.Errorf("pixelChangeThreshold must be 0-255: %w", motion.ErrInvalidConfiguration)
	}
	if c.MedianImgCount < 1 || c.MedianImgCount > 255 {
		return fmt.Errorf("medianImgCount must be 1-255: %w", motion.ErrInvalidConfiguration)
	}
	if c.GMMKVal < 1 || c.GMMKVal > 10 {
		return fmt.Errorf("gmmKVal must be 1-10: %w", motion.ErrInvalidConfiguration)
	}
	if c.GMMTVal < 0 || c.GMMTVal > 1 {
		return fmt.Errorf("gmmTVal must be 0.0-1.0: %w", motion.ErrInvalidConfiguration)
	}
	if c.GMMAlpha < 0 || c.GMMAlpha > 1 {
		return fmt.Errorf("gmmAlpha must be 0.0-1.0: %w", motion.ErrInvalidConfiguration)
	}
	if c.GMMInitVar < 0 || c.GMMInitVar > 255 {
		return fmt.Errorf("gmmInitVar must be 0-255: %w", motion.ErrInvalidConfiguration)
	}
	if c.GMMMinVar < 0 || c.GMMMinVar > 255 {
		return fmt.Errorf("gmmMinVar must be 0-255: %w", motion.ErrInvalidConfiguration)
	}
	for name, v := range map[string]int{
		"entMinMass": c.EntMinMass, "entMaxMass": c.EntMaxMass,
		"entMinWidth": c.EntMinWidth, "entMaxWidth": c.EntMaxWidth,
		"entMinHeight": c.EntMinHeight, "entMaxHeight": c.EntMaxHeight,
	} {
		if v < -1 {
			return fmt.Errorf("%s must be -1 or greater: %w", name, motion.ErrInvalidConfiguration)
		}
	}
	return nil
}

// Load reads a flat "name = value" config file (one setting per line,
// '#' comments, blank lines ignored) into a copy of Default, then
// applies Set for every line. Unknown names are rejected rather than
// silently ignored, the inverse of configuration.h's set() which just
// falls through without touching the struct and returns 0.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return cfg, fmt.Errorf("malformed config line %q", line)
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := cfg.Set(name, value); err != nil {
			return cfg, err
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverlay loads cfgPath, loads an optional .env file into
// the process environment via godotenv (a missing file is ignored),
// and then lets MOTIOND_VIDEO_DEVICE, MOTIOND_FFMPEG_PATH and
// MOTIOND_LOGS_PATH override the matching config-file values, whether
// they came from the process environment or from the .env file. A
// variable already set in the process environment is not replaced by
// the .env file (godotenv.Load does not override variables already in
// the environment, matching terminal_preview.go's usage of it).
func LoadWithEnvOverlay(cfgPath, envPath string) (Config, error) {
	cfg, err := Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	if v, ok := os.LookupEnv("MOTIOND_VIDEO_DEVICE"); ok {
		cfg.VideoDevice = v
	}
	if v, ok := os.LookupEnv("MOTIOND_FFMPEG_PATH"); ok {
		cfg.FFmpegPath = v
	}
	if v, ok := os.LookupEnv("MOTIOND_LOGS_PATH"); ok {
		cfg.LogsPath = v
	}
	return cfg, cfg.Validate()
}

// Set updates a single field by name, matching set()'s name
// abbreviations in configuration.h (e.g. "cpt", "pct", "gmmk").
func (c *Config) Set(name, value string) error {
	switch name {
	case "changePercentThreshold", "cpt":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("cpt: %w", motion.ErrInvalidConfiguration)
		}
		c.ChangePercentThreshold = v
	case "pixelChangeThreshold", "pct":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("pct: %w", motion.ErrInvalidConfiguration)
		}
		c.PixelChangeThreshold = v
	case "rawImgOutput", "rio":
		c.RawImgOutput = value == "1" || value == "true"
	case "diffImgOutput", "dio":
		c.DiffImgOutput = value == "1" || value == "true"
	case "segmapImgOutput", "sio":
		c.SegmapImgOutput = value == "1" || value == "true"
	case "medianImgCount", "mic":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("mic: %w", motion.ErrInvalidConfiguration)
		}
		c.MedianImgCount = v
	case "logsPath", "logs":
		c.LogsPath = value
	case "logfilePath", "logf":
		c.LogfilePath = value
	case "videoDevice", "vdev":
		c.VideoDevice = value
	case "ffmpegPath", "ffmp":
		c.FFmpegPath = value
	case "resolution", "res":
		c.Resolution = value
	case "gmmKVal", "gmmk":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("gmmk: %w", motion.ErrInvalidConfiguration)
		}
		c.GMMKVal = v
	case "gmmTVal", "gmmt":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("gmmt: %w", motion.ErrInvalidConfiguration)
		}
		c.GMMTVal = v
	case "gmmAlpha", "gmma":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("gmma: %w", motion.ErrInvalidConfiguration)
		}
		c.GMMAlpha = v
	case "gmmInitVar", "gmmiv":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("gmmiv: %w", motion.ErrInvalidConfiguration)
		}
		c.GMMInitVar = v
	case "gmmMinVar", "gmmmv":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("gmmmv: %w", motion.ErrInvalidConfiguration)
		}
		c.GMMMinVar = v
	case "doEntFiltering", "def":
		c.DoEntFiltering = value == "1" || value == "true"
	case "entMinMass", "emn":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("emn: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMinMass = v
	case "entMaxMass", "emx":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("emx: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMaxMass = v
	case "entMinWidth", "ewn":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ewn: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMinWidth = v
	case "entMaxWidth", "ewx":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ewx: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMaxWidth = v
	case "entMinHeight", "ehn":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ehn: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMinHeight = v
	case "entMaxHeight", "ehx":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ehx: %w", motion.ErrInvalidConfiguration)
		}
		c.EntMaxHeight = v
	default:
		return fmt.Errorf("unknown config field %q: %w", name, motion.ErrInvalidConfiguration)
	}
	return nil
}

// Save writes the config back out in the same flat format Load reads.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "changePercentThreshold = %v\n", c.ChangePercentThreshold)
	fmt.Fprintf(w, "pixelChangeThreshold = %d\n", c.PixelChangeThreshold)
	fmt.Fprintf(w, "rawImgOutput = %v\n", boolToFlag(c.RawImgOutput))
	fmt.Fprintf(w, "diffImgOutput = %v\n", boolToFlag(c.DiffImgOutput))
	fmt.Fprintf(w, "segmapImgOutput = %v\n", boolToFlag(c.SegmapImgOutput))
	fmt.Fprintf(w, "medianImgCount = %d\n", c.MedianImgCount)
	fmt.Fprintf(w, "logsPath = %s\n", c.LogsPath)
	fmt.Fprintf(w, "logfilePath = %s\n", c.LogfilePath)
	fmt.Fprintf(w, "videoDevice = %s\n", c.VideoDevice)
	fmt.Fprintf(w, "ffmpegPath = %s\n", c.FFmpegPath)
	fmt.Fprintf(w, "resolution = %s\n", c.Resolution)
	fmt.Fprintf(w, "gmmKVal = %d\n", c.GMMKVal)
	fmt.Fprintf(w, "gmmTVal = %v\n", c.GMMTVal)
	fmt.Fprintf(w, "gmmAlpha = %v\n", c.GMMAlpha)
	fmt.Fprintf(w, "gmmInitVar = %v\n", c.GMMInitVar)
	fmt.Fprintf(w, "gmmMinVar = %v\n", c.GMMMinVar)
	fmt.Fprintf(w, "doEntFiltering = %v\n", boolToFlag(c.DoEntFiltering))
	fmt.Fprintf(w, "entMinMass = %d\n", c.EntMinMass)
	fmt.Fprintf(w, "entMaxMass = %d\n", c.EntMaxMass)
	fmt.Fprintf(w, "entMinWidth = %d\n", c.EntMinWidth)
	fmt.Fprintf(w, "entMaxWidth = %d\n", c.EntMaxWidth)
	fmt.Fprintf(w, "entMinHeight = %d\n", c.EntMinHeight)
	fmt.Fprintf(w, "entMaxHeight = %d\n", c.EntMaxHeight)
	return w.Flush()
}

func boolToFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
