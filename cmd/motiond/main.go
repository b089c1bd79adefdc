// Command motiond watches a video device for motion, logging and
// recording events. It is the orchestrator for internal/motion,
// internal/entity, internal/config, internal/capture, internal/eventlog,
// and internal/statusfile, grounded on motdec.c's main/handle_mot_det.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/motdec/motiond/internal/capture"
	"github.com/motdec/motiond/internal/config"
	"github.com/motdec/motiond/internal/entity"
	"github.com/motdec/motiond/internal/eventimage"
	"github.com/motdec/motiond/internal/eventlog"
	"github.com/motdec/motiond/internal/motion"
	"github.com/motdec/motiond/internal/selfupdate"
	"github.com/motdec/motiond/internal/statusfile"
)

func usage() {
	fmt.Println("-- USAGE --")
	fmt.Println("start [cfg]      - Start the motion detection. Optional [cfg] for loading config")
	fmt.Println("set <cfgpath> <name> <val> - Sets the system variable <name> to <val> and saves cfgpath")
	fmt.Println("version          - Print the running version")
	fmt.Println("update           - Check GitHub for a newer release and offer to install it")
	fmt.Println("help             - Display help message.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "start":
		cfgPath := "cfg/default.cfg"
		if len(os.Args) >= 3 {
			cfgPath = os.Args[2]
		}
		if err := runStart(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "motiond: %v\n", err)
			os.Exit(1)
		}
	case "set":
		if len(os.Args) < 5 {
			fmt.Println("Error: expected 3 arguments for 'set'")
			fmt.Println("Usage: set <cfgpath> <name> <value>")
			os.Exit(1)
		}
		if err := runSet(os.Args[2], os.Args[3], os.Args[4]); err != nil {
			fmt.Fprintf(os.Stderr, "motiond: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(selfupdate.Version)
	case "update":
		if err := selfupdate.Check(promptLine); err != nil {
			fmt.Fprintf(os.Stderr, "motiond: %v\n", err)
			os.Exit(1)
		}
	case "help":
		printHelp()
	default:
		usage()
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line, nil
}

func runSet(cfgPath, name, value string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfgPath, err)
	}
	if err := cfg.Set(name, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(cfgPath); err != nil {
		return fmt.Errorf("save %s: %w", cfgPath, err)
	}
	fmt.Printf("Variable '%s' has been set to '%s'\n", name, value)
	return nil
}

func printHelp() {
	usage()
	fmt.Println()
	fmt.Println("-- INFO --")
	fmt.Println("Logs motion events tracked through a video device.")
	fmt.Println("Frames are captured with ffmpeg; events are recorded under the configured logs directory.")
	fmt.Println()
	fmt.Println("-- SYSTEM VARIABLES --")
	fmt.Println("Use 'set <cfgpath> <name> <value>' to change any of:")
	fmt.Println(" changePercentThreshold (0.0-1.0) [cpt]")
	fmt.Println(" pixelChangeThreshold (0-255) [pct]")
	fmt.Println(" rawImgOutput (0-1) [rio]")
	fmt.Println(" diffImgOutput (0-1) [dio]")
	fmt.Println(" segmapImgOutput (0-1) [sio]")
	fmt.Println(" medianImgCount (1-255) [mic]")
	fmt.Println(" logsPath [logs], logfilePath [logf]")
	fmt.Println(" videoDevice [vdev], ffmpegPath [ffmp], resolution [res]")
	fmt.Println(" gmmKVal (1-10) [gmmk], gmmTVal (0.0-1.0) [gmmt]")
	fmt.Println(" gmmAlpha (0.0-1.0) [gmma], gmmInitVar (0-255) [gmmiv], gmmMinVar (0-255) [gmmmv]")
	fmt.Println(" doEntFiltering (0-1) [def]")
	fmt.Println(" entMinMass/entMaxMass/entMinWidth/entMaxWidth/entMinHeight/entMaxHeight [emn/emx/ewn/ewx/ehn/ehx]")
}

const tmpFrame = "/tmp/motdecimg.bmp"

func runStart(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("Error: could not load %s, using defaults.\n", cfgPath)
		cfg = config.Default()
	} else {
		fmt.Printf("Loaded config: %s\n", cfgPath)
	}

	logger := eventlog.New(cfg.LogfilePath)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusfile.Write("/tmp/motdec.info", statusfile.Info{Running: true, LogfilePath: cfg.LogfilePath, LogsDir: cfg.LogsPath})
	logger.Event("Starting motiond...")
	defer func() {
		statusfile.Write("/tmp/motdec.info", statusfile.Info{Running: false, LogfilePath: cfg.LogfilePath, LogsDir: cfg.LogsPath})
		logger.Event("Stopping motiond...")
	}()

	capturer := capture.NewFFmpegCapturer(cfg.FFmpegPath, cfg.VideoDevice, cfg.Resolution)

	filter := entity.Filter{
		MinMass: cfg.EntMinMass, MaxMass: cfg.EntMaxMass,
		MinWidth: cfg.EntMinWidth, MaxWidth: cfg.EntMaxWidth,
		MinHeight: cfg.EntMinHeight, MaxHeight: cfg.EntMaxHeight,
	}

	if err := capturer.Image(ctx, tmpFrame); err != nil {
		logger.Error("Error: Error capturing image.")
		return err
	}
	time.Sleep(1 * time.Second)
	if err := capturer.Image(ctx, tmpFrame); err != nil {
		logger.Error("Error: Error capturing image.")
		return err
	}

	fmt.Println("\nTraining model on background scene...")
	fmt.Println("Keep scene free from foreground objects.")
	time.Sleep(3 * time.Second)

	bg, err := loadFrame(tmpFrame)
	if err != nil {
		logger.Error("Error: Unable to load base image.")
		return err
	}

	model, err := motion.NewGaussianModel(bg, cfg.GMMKVal, cfg.GMMTVal, cfg.GMMAlpha, cfg.GMMInitVar, cfg.GMMMinVar)
	if err != nil {
		return fmt.Errorf("init gaussian model: %w", err)
	}

	exec := motion.NewExecutor(motion.DefaultFanout)
	black := motion.NewImage(bg.Width, bg.Height)

	for i := 0; i < 10; i++ {
		if err := capturer.Image(ctx, tmpFrame); err != nil {
			logger.Error("Error: Error capturing image.")
			return err
		}
		frame, err := loadFrame(tmpFrame)
		if err != nil {
			logger.Error("Error: Unable to load base image.")
			return err
		}
		if err := model.UpdateParallel(black, frame, exec); err != nil {
			return err
		}
		model.NormaliseParallel(exec)
		fmt.Printf("Training: %d%%\n", i*10)
	}
	fmt.Println("Training complete, system is now active.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := runCycle(ctx, cfg, capturer, model, filter, exec, logger); err != nil {
			logger.Error(fmt.Sprintf("Error: %v", err))
			return err
		}
	}
}

func loadFrame(path string) (*motion.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return motion.DecodeBMP(f)
}

func saveFrame(path string, img *motion.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return motion.EncodeBMP(f, img)
}

func runCycle(ctx context.Context, cfg config.Config, capturer *capture.FFmpegCapturer, model *motion.GaussianModel, filter entity.Filter, exec *motion.Executor, logger *eventlog.Logger) error {
	if err := capturer.Image(ctx, tmpFrame); err != nil {
		return fmt.Errorf("capturing image: %w", err)
	}
	frame, err := loadFrame(tmpFrame)
	if err != nil {
		return fmt.Errorf("loading change image: %w", err)
	}

	segmap, err := model.ClassifyParallel(frame, exec)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if cfg.DoEntFiltering {
		if _, err := entity.FilterEntities(segmap, filter, false); err != nil {
			return fmt.Errorf("filter entities: %w", err)
		}
	}

	pixelChangeCount := segmap.CountMatchingParallel(motion.White, exec)
	changePercent := float64(pixelChangeCount) / float64(frame.Width*frame.Height)

	if changePercent > cfg.ChangePercentThreshold {
		if err := recordEvent(ctx, cfg, capturer, model, frame, segmap, pixelChangeCount, changePercent, logger); err != nil {
			return err
		}
	}

	if err := model.UpdateParallel(segmap, frame, exec); err != nil {
		return fmt.Errorf("update model: %w", err)
	}
	model.NormaliseParallel(exec)
	return nil
}

func recordEvent(ctx context.Context, cfg config.Config, capturer *capture.FFmpegCapturer, model *motion.GaussianModel, frame, segmap *motion.Image, pixelChangeCount int, changePercent float64, logger *eventlog.Logger) error {
	now := time.Now()
	fullts := now.Format("2006.01.02-15:04:05")
	dateDir := filepath.Join(cfg.LogsPath, now.Format("2006.01.02"))
	timeDir := filepath.Join(dateDir, now.Format("15:04:05"))

	if err := os.MkdirAll(timeDir, 0o777); err != nil {
		logger.Error("Error: Unable to make new folder for motion event.")
		return fmt.Errorf("mkdir %s: %w", timeDir, err)
	}

	caption := fmt.Sprintf("%s  %.2f%%", fullts, changePercent*100)

	if cfg.RawImgOutput {
		background := model.SynthesiseBackgroundParallel(motion.NewExecutor(motion.DefaultFanout))
		if err := saveFrame(filepath.Join(timeDir, "bg.bmp"), background); err != nil {
			logger.Error("Error: Unable to save raw images.")
			return err
		}
		changeFrame := frame.Clone()
		eventimage.Stamp(changeFrame, caption, 2, 14, motion.White)
		if err := saveFrame(filepath.Join(timeDir, "change.bmp"), changeFrame); err != nil {
			logger.Error("Error: Unable to save raw images.")
			return err
		}
	}

	if cfg.SegmapImgOutput {
		if err := saveFrame(filepath.Join(timeDir, "segmap.bmp"), segmap); err != nil {
			logger.Error("Error: Unable to save segmentation map image.")
			return err
		}
	}

	logger.MotionEvent(fullts, pixelChangeCount, changePercent)

	videoPath := filepath.Join(timeDir, "output.mp4")
	fmt.Println("\nCAPTURING VIDEO PLEASE WAIT 15s")
	if err := capturer.Video(ctx, videoPath, 15); err != nil {
		logger.Error("Error: Error capturing video.")
		return err
	}
	fmt.Printf("Video output to: %s\nResuming system...\n\n", videoPath)
	return nil
}
