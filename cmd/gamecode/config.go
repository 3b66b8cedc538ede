package main

import (
	"github.com/go-go-golems/gamecode/pkg/agent"
	"github.com/go-go-golems/gamecode/pkg/backend"
	"github.com/go-go-golems/gamecode/pkg/backend/openai"
	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// appConfig is everything the chat command needs, read from the config
// file, GAMECODE_* variables and flags.
//
//	agent:
//	  max-context-length: 32000
//	  region: us-east-1
//	  profile: work
//	backend:
//	  model: anthropic.claude-3-7-sonnet-20250219-v1:0
//	  fast-model: anthropic.claude-3-5-haiku-20241022-v1:0
//	retry:
//	  max-retries: 2
//	tools:
//	  allowed-tools: ["read_file", "list_*"]
//	profiles:
//	  work:
//	    api-key: ...
type appConfig struct {
	Agent     agent.Config
	Backend   openai.Settings
	FastModel string
	Retry     backend.RetryConfig
	Tools     tools.ToolConfig
}

func loadAppConfig(v *viper.Viper) (*appConfig, error) {
	ret := &appConfig{
		Agent:   agent.DefaultConfig(),
		Backend: openai.Settings{Model: openai.DefaultModel},
		Retry:   backend.DefaultRetryConfig(),
		Tools:   tools.DefaultToolConfig(),
	}

	if err := v.UnmarshalKey("agent", &ret.Agent); err != nil {
		return nil, errors.Wrap(err, "agent config")
	}
	if err := v.UnmarshalKey("backend", &ret.Backend); err != nil {
		return nil, errors.Wrap(err, "backend config")
	}
	if err := v.UnmarshalKey("retry", &ret.Retry); err != nil {
		return nil, errors.Wrap(err, "retry config")
	}
	toolsConfig, err := loadToolsConfig(v)
	if err != nil {
		return nil, err
	}
	ret.Tools = toolsConfig
	ret.FastModel = v.GetString("backend.fast-model")

	// UnmarshalKey does not see flags bound to nested keys
	if v.IsSet("agent.region") {
		ret.Agent.Region = v.GetString("agent.region")
	}
	if v.IsSet("agent.profile") {
		ret.Agent.Profile = v.GetString("agent.profile")
	}
	if v.IsSet("agent.max-context-length") {
		ret.Agent.MaxContextLength = v.GetInt("agent.max-context-length")
	}
	if v.IsSet("backend.model") {
		ret.Backend.Model = v.GetString("backend.model")
	}

	if ret.Backend.Region == "" {
		ret.Backend.Region = ret.Agent.Region
	}
	if ret.Backend.APIKey == "" {
		key, err := resolveAPIKey(v, ret.Agent.Profile)
		if err != nil {
			return nil, err
		}
		ret.Backend.APIKey = key
	}

	if err := ret.Agent.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// resolveAPIKey looks the key up under profiles.<name>.api-key and falls
// back to the top-level api-key (GAMECODE_API_KEY).
func resolveAPIKey(v *viper.Viper, profile string) (string, error) {
	if profile != "" {
		key := v.GetString("profiles." + profile + ".api-key")
		if key != "" {
			return key, nil
		}
		if !v.IsSet("profiles." + profile) {
			return "", errors.Errorf("unknown profile %q", profile)
		}
	}
	return v.GetString("api-key"), nil
}

// fastSettings derives the summary backend settings from the main ones.
func (c *appConfig) fastSettings() (openai.Settings, bool) {
	if c.FastModel == "" || !c.Agent.UseFastModelForContext {
		return openai.Settings{}, false
	}
	s := c.Backend
	s.Model = c.FastModel
	return s, true
}
