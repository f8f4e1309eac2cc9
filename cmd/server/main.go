package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/livekit-examples/meet-gateway/pkg/config"
	"github.com/livekit-examples/meet-gateway/pkg/livekit"
	"github.com/livekit-examples/meet-gateway/pkg/logger"
	"github.com/livekit-examples/meet-gateway/pkg/recording"
	"github.com/livekit-examples/meet-gateway/pkg/service"
	"github.com/livekit-examples/meet-gateway/pkg/storage"
	"github.com/livekit-examples/meet-gateway/version"
)

var baseFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to gateway config file",
	},
	&cli.StringFlag{
		Name:    "config-body",
		Usage:   "gateway config in YAML, typically passed in as an environment var in a container",
		EnvVars: []string{"MEET_GATEWAY_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "url",
		Usage:   "URL of the LiveKit deployment",
		EnvVars: []string{"LIVEKIT_URL"},
	},
	&cli.StringFlag{
		Name:    "api-key",
		Usage:   "LiveKit API key",
		EnvVars: []string{"LIVEKIT_API_KEY"},
	},
	&cli.StringFlag{
		Name:    "api-secret",
		Usage:   "LiveKit API secret",
		EnvVars: []string{"LIVEKIT_API_SECRET"},
	},
	&cli.StringFlag{
		Name:    "s3-access-key",
		Usage:   "object storage access key for recordings",
		EnvVars: []string{"S3_KEY_ID"},
	},
	&cli.StringFlag{
		Name:    "s3-secret",
		Usage:   "object storage secret for recordings",
		EnvVars: []string{"S3_KEY_SECRET"},
	},
	&cli.StringFlag{
		Name:    "s3-region",
		Usage:   "object storage region",
		EnvVars: []string{"S3_REGION"},
	},
	&cli.StringFlag{
		Name:    "s3-bucket",
		Usage:   "object storage bucket recordings are written to",
		EnvVars: []string{"S3_BUCKET"},
	},
	&cli.StringFlag{
		Name:    "s3-endpoint",
		Usage:   "object storage endpoint, for S3-compatible stores",
		EnvVars: []string{"S3_ENDPOINT"},
	},
	&cli.BoolFlag{
		Name:    "s3-force-path-style",
		Usage:   "use path-style object storage urls",
		EnvVars: []string{"S3_FORCE_PATH_STYLE"},
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "sets log-level to debug and console formatter. insecure for production",
	},
}

func main() {
	app := &cli.App{
		Name:        "meet-gateway",
		Usage:       "Token and recording gateway for LiveKit Meet",
		Description: "run without subcommands to start the server",
		Flags:       baseFlags,
		Action:      startServer,
		Commands: []*cli.Command{
			{
				Name:   "generate-keys",
				Usage:  "generates an API key and secret pair",
				Action: generateKeys,
			},
			{
				Name:   "create-token",
				Usage:  "create a room join token for development use",
				Action: createToken,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "room",
						Usage:    "name of room to join",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "identity",
						Usage:    "identity of participant",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "recorder",
						Usage: "grant the participant recording permission",
					},
				},
			},
		},
		Version: version.Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := getConfigString(c.String("config"), c.String("config-body"))
	if err != nil {
		return nil, err
	}

	conf, err := config.NewConfig(confString, c)
	if err != nil {
		return nil, err
	}

	if conf.Development {
		logger.InitDevelopment(conf.Logging.Level)
	} else {
		logger.InitProduction(conf.Logging.Level)
	}
	return conf, nil
}

func startServer(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	if err = conf.Validate(); err != nil {
		return err
	}

	client := livekit.NewClient(conf.LiveKit.URL, conf.LiveKit.APIKey, conf.LiveKit.APISecret)
	controller := recording.NewController(conf.S3, client)

	var lister service.RecordingLister
	if conf.S3.HasStorage() {
		s3Client, err := storage.NewS3Client(conf.S3)
		if err != nil {
			return err
		}
		lister = s3Client
	} else {
		logger.Infow("object storage not configured, recording archive disabled")
	}

	recordingService := service.NewRecordingService(conf, controller, lister)
	server := service.NewGatewayServer(conf, recordingService)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.Infow("exit requested, shutting down", "signal", sig)
		server.Stop()
	}()

	return server.Start()
}

func getConfigString(configFile string, inConfigBody string) (string, error) {
	if inConfigBody != "" || configFile == "" {
		return inConfigBody, nil
	}

	outConfigBody, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}

	return string(outConfigBody), nil
}
