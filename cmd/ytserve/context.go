package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ytserve/internal/apiclient"
	"ytserve/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// serverAddress prefers --server, then the configured bind address.
func (c *commandContext) serverAddress() (string, error) {
	if c.serverFlag != nil {
		if addr := strings.TrimSpace(*c.serverFlag); addr != "" {
			return addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Server.Bind, nil
}

func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	addr, err := c.serverAddress()
	if err != nil {
		return err
	}
	client, err := apiclient.New(addr)
	if err != nil {
		return fmt.Errorf("server address %q: %w", addr, err)
	}
	if err := fn(client); err != nil {
		return wrapClientError(err, client.BaseURL())
	}
	return nil
}

func wrapClientError(err error, base string) error {
	if apiclient.IsAPIUnavailable(err) {
		return fmt.Errorf("connect to server: nothing is listening at %s; start it with `ytserve serve`", base)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
