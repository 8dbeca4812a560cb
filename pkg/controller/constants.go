package controller

import (
	stderrors "errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-stencil/stencil/pkg/errors"
)

// LoadConstantsFile reads a YAML constants file into a map suitable for
// LoadOptions.Constants. A missing file yields an empty map, so projects can
// add constants.yaml later without code changes.
func LoadConstantsFile(path string) (map[string]any, *errors.Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap("controller.LoadConstantsFile", err)
	}

	constants := map[string]any{}
	if err := yaml.Unmarshal(data, &constants); err != nil {
		parseErr := errors.Wrap("controller.LoadConstantsFile", err)
		parseErr.Kind = errors.KindParse
		return nil, parseErr
	}
	return constants, nil
}
