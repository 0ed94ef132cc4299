// Command wardrobe-guide is a real-time AI fashion stylist: it streams your
// voice and camera to the Gemini Live API and plays the stylist's spoken
// feedback back, with a one-shot "suggest" mode for a single outfit critique.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/internal/capture"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/internal/config"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/internal/logging"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/internal/metrics"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/gemini"
)

var rootCmd = &cobra.Command{
	Use:   "wardrobe-guide",
	Short: "Real-time AI fashion stylist for your outfit",
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSuggestCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wardrobe-guide: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file, falling back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// apiKey resolves the Gemini API key from the flag or environment. It is
// never read from the config file.
func apiKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}
	return "", errors.New("no API key: set GEMINI_API_KEY or pass --api-key")
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		keyFlag    string
		noVideo    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a live conversation with the stylist",
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if noVideo {
				cfg.Video.Enabled = false
			}
			key, err := apiKey(keyFlag)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
				go serveMetrics(cfg.Metrics.Address, logger)
			}

			speaker, err := capture.NewSpeaker()
			if err != nil {
				return err
			}
			defer speaker.Close()

			adapter := capture.NewAdapter(capture.Options{
				VideoEnabled: cfg.Video.Enabled,
				Camera: capture.CameraOptions{
					FFmpegPath: cfg.Capture.FFmpegPath,
					Device:     cfg.Video.Device,
					Width:      cfg.Video.Width,
					Height:     cfg.Video.Height,
					FrameRate:  cfg.Video.FrameRate,
				},
				Logger: logger,
			})

			sessionCfg := live.DefaultSessionConfig()
			sessionCfg.APIKey = key
			sessionCfg.Model = cfg.Session.Model
			sessionCfg.Voice = cfg.Session.Voice
			sessionCfg.SystemInstruction = cfg.Session.SystemInstruction
			sessionCfg.VideoInterval = cfg.VideoInterval()
			sessionCfg.OnTurn = func(turn live.Turn) {
				fmt.Printf("[%s] %s\n", turn.Speaker, turn.Text)
			}
			sessionCfg.OnStatus = func(st live.Status) {
				logger.Debug().
					Stringer("state", st.State).
					Bool("listening", st.Listening).
					Bool("speaking", st.Speaking).
					Msg("session status")
			}

			ctrl := live.NewController(sessionCfg, live.Deps{
				Media:   adapter,
				Sink:    speaker,
				Dial:    gemini.NewDialer(gemini.WithLogger(logger)),
				Logger:  logger,
				Metrics: m,
			})

			if err := ctrl.Activate(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("Live session open. Talk to your stylist; Ctrl-C to end.")
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			select {
			case <-sig:
			case <-cmd.Context().Done():
			}

			ctrl.Deactivate()

			if turns := ctrl.Turns(); len(turns) > 0 {
				fmt.Println("\nConversation transcript:")
				for _, turn := range turns {
					fmt.Printf("  [%s] %s\n", turn.Speaker, turn.Text)
				}
			}
			if msg := ctrl.Err(); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&keyFlag, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	cmd.Flags().BoolVar(&noVideo, "no-video", false, "disable camera capture")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var (
		configPath string
		keyFlag    string
		imagePath  string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Get a one-shot outfit critique from a camera frame or image file",
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			key, err := apiKey(keyFlag)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			frame, err := grabFrame(cmd.Context(), cfg, imagePath, logger)
			if err != nil {
				return err
			}

			stylist, err := gemini.NewStylist(cmd.Context(), key)
			if err != nil {
				return err
			}
			suggestion, err := stylist.Suggest(cmd.Context(), frame)
			if err != nil {
				return err
			}

			fmt.Println(suggestion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&keyFlag, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "critique a JPEG file instead of the camera")
	return cmd
}

// grabFrame returns a JPEG either from the given file or from the camera.
func grabFrame(ctx context.Context, cfg *config.Config, imagePath string, logger zerolog.Logger) ([]byte, error) {
	if imagePath != "" {
		return os.ReadFile(imagePath)
	}

	adapter := capture.NewAdapter(capture.Options{
		VideoEnabled: true,
		Camera: capture.CameraOptions{
			FFmpegPath: cfg.Capture.FFmpegPath,
			Device:     cfg.Video.Device,
			Width:      cfg.Video.Width,
			Height:     cfg.Video.Height,
			FrameRate:  cfg.Video.FrameRate,
		},
		Logger: logger,
	})
	media, err := adapter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer adapter.Release()
	if media.Camera == nil {
		return nil, errors.New("camera unavailable: " + media.CameraErr)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if frame := media.Camera.Frame(); frame != nil {
			return frame, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, errors.New("no camera frame within 5s")
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint failed")
	}
}
