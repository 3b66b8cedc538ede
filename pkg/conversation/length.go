package conversation

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

// LengthFunc measures a flattened context.
type LengthFunc func(context string) int

func ByteLength(context string) int {
	return len(context)
}

// TokenLength counts tokens with codec. When encoding fails it falls back to
// the byte length so the measure never goes backwards.
func TokenLength(codec tokenizer.Codec) LengthFunc {
	return func(context string) int {
		ids, _, err := codec.Encode(context)
		if err != nil {
			log.Warn().Err(err).Msg("conversation: token count failed, using byte length")
			return len(context)
		}
		return len(ids)
	}
}

// NewTokenLength resolves a codec by model name first, then by encoding name.
func NewTokenLength(model, encoding string) (LengthFunc, error) {
	if model != "" {
		c, err := tokenizer.ForModel(tokenizer.Model(model))
		if err == nil {
			return TokenLength(c), nil
		}
		if encoding == "" {
			return nil, errors.Wrapf(err, "no tokenizer for model %s", model)
		}
	}
	if encoding == "" {
		encoding = string(tokenizer.Cl100kBase)
	}
	c, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, errors.Wrapf(err, "no tokenizer for encoding %s", encoding)
	}
	return TokenLength(c), nil
}
