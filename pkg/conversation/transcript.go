package conversation

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Transcript is the on-disk form of a conversation.
type Transcript struct {
	SessionID string `yaml:"session_id,omitempty"`
	Turns     Turns  `yaml:"turns"`
}

func (s *Store) ToYAML(sessionID string) ([]byte, error) {
	return yaml.Marshal(Transcript{
		SessionID: sessionID,
		Turns:     s.Turns(),
	})
}

func FromYAML(b []byte) (*Transcript, error) {
	var t Transcript
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, errors.Wrap(err, "decode transcript")
	}
	return &t, nil
}

// SaveToFile writes the current turns as a YAML transcript.
func (s *Store) SaveToFile(path string, sessionID string) error {
	data, err := s.ToYAML(sessionID)
	if err != nil {
		return errors.Wrap(err, "encode transcript")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write transcript %s", path)
	}
	return nil
}

// LoadFromFile reads a YAML transcript written by SaveToFile.
func LoadFromFile(path string) (*Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read transcript %s", path)
	}
	return FromYAML(b)
}
