package save

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Marshal encodes v in format. YAML is produced from the JSON encoding so
// custom JSON marshalers shape both formats the same way.
func Marshal(v any, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	if format != FormatYAML {
		return append(data, '\n'), nil
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return out, nil
}

// Unmarshal decodes data in format into v.
func Unmarshal(data []byte, format Format, v any) error {
	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return errors.WrapParse("yaml", "", err)
		}
		data = converted
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}

// Write encodes v to the writer or path in opts. With neither set it
// writes to stdout.
func Write(v any, opts ...Option) error {
	o := Defaults()
	o.Apply(opts...)

	data, err := Marshal(v, o.Format())
	if err != nil {
		return err
	}

	switch {
	case o.Writer() != nil:
		if _, err := o.Writer().Write(data); err != nil {
			return errors.WrapIO("write", "", err)
		}
		return nil
	case o.Path() != "":
		if err := os.MkdirAll(filepath.Dir(o.Path()), constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", filepath.Dir(o.Path()), err)
		}
		return errors.WrapIO("write", o.Path(), os.WriteFile(o.Path(), data, constants.SecureFilePermissions))
	default:
		_, err := os.Stdout.Write(data)
		return errors.WrapIO("write", "stdout", err)
	}
}

// Read decodes the file at path into v, picking the format from the extension.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("file", path)
		}
		return errors.WrapIO("read", path, err)
	}
	if err := Unmarshal(data, FormatFromPath(path), v); err != nil {
		return errors.NewParseError(FormatFromPath(path).String(), path, "invalid saved session", err)
	}
	return nil
}

// ReadFrom decodes r in format into v.
func ReadFrom(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.WrapIO("read", "", err)
	}
	return Unmarshal(data, format, v)
}
