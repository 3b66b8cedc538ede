package main

import (
	"encoding/json"
	"os"

	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type catalogEntry struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty"`
}

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog sent to the backend, as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadToolsConfig(viper.GetViper())
			if err != nil {
				return err
			}
			workdir, _ := cmd.Flags().GetString("workdir")
			ws, err := newWorkspace(workdir)
			if err != nil {
				return err
			}
			registry, err := newWorkspaceRegistry(ws)
			if err != nil {
				return err
			}
			adapter := tools.NewRegistryAdapter(registry, tools.WithToolConfig(cfg))

			entries, err := catalog(adapter.ListToolSchemas())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			return enc.Encode(entries)
		},
	}
	cmd.Flags().String("workdir", ".", "Workspace root the file tools operate in")
	return cmd
}

func loadToolsConfig(v *viper.Viper) (tools.ToolConfig, error) {
	cfg := tools.DefaultToolConfig()
	if err := v.UnmarshalKey("tools", &cfg); err != nil {
		return cfg, errors.Wrap(err, "tools config")
	}
	return cfg, nil
}

func catalog(schemas []tools.Schema) ([]catalogEntry, error) {
	ret := make([]catalogEntry, 0, len(schemas))
	for _, s := range schemas {
		entry := catalogEntry{Name: s.Name, Description: s.Description}
		if s.Parameters != nil {
			b, err := json.Marshal(s.Parameters)
			if err != nil {
				return nil, errors.Wrapf(err, "marshal schema of %s", s.Name)
			}
			if err := json.Unmarshal(b, &entry.Parameters); err != nil {
				return nil, errors.Wrapf(err, "decode schema of %s", s.Name)
			}
		}
		ret = append(ret, entry)
	}
	return ret, nil
}
