package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/gridrace/gridsync/internal/gridsync"
	"github.com/gridrace/gridsync/internal/gridsync/plugins"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Parse()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.DebugLevel)

	logger.Infof("Starting gridSync race server")

	config, err := readConfig()

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	var plugin gridsync.Plugin

	if config.Server.UDPPluginLocalPort > 0 && config.Server.UDPPluginAddress != "" {
		plugin, err = plugins.NewUDPPlugin(config.Server.UDPPluginLocalPort, config.Server.UDPPluginAddress)

		if err != nil {
			logger.WithError(err).Fatal("Could not initialise UDP plugin")
		}
	}

	server, err := gridsync.NewServer(context.Background(), config, logger, plugin)

	if err != nil {
		logger.WithError(err).Fatal("Could not initialise server")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			if err := server.Stop(); err != nil {
				logger.WithError(err).Fatal("Could not stop server")
			}

			os.Exit(0)
		}
	}()

	err = server.Run()

	if err != nil {
		logger.WithError(err).Fatal("could not run server")
	}

	logger.Infof("Server stopped. Exiting")
}

func readConfig() (*gridsync.Config, error) {
	var conf *gridsync.Config

	f, err := os.Open(configPath)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&conf); err != nil {
		return nil, err
	}

	return conf, nil
}
