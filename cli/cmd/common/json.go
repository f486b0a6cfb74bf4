package common

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var outputFormat string

// FormatFlags contains the flag selecting the output format of structured values.
var FormatFlags *flag.FlagSet

// PrettyJSONMarshal returns pretty-printed JSON encoding of v.
func PrettyJSONMarshal(v interface{}) ([]byte, error) {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to pretty JSON: %w", err)
	}
	return formatted, nil
}

// MarshalOutput encodes v in the given output format.
//
// Raw JSON values are decoded into their generic representation first.
func MarshalOutput(format string, v interface{}) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("malformed JSON value: %w", err)
		}
		v = generic
	}

	switch format {
	case FormatJSON:
		return PrettyJSONMarshal(v)
	case FormatYAML:
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported output format '%s'", format)
	}
}

// PrintOutput prints v in the user-selected output format.
func PrintOutput(v interface{}) {
	out, err := MarshalOutput(outputFormat, v)
	cobra.CheckErr(err)
	fmt.Fprintln(os.Stdout, string(out))
}

func init() {
	FormatFlags = flag.NewFlagSet("", flag.ContinueOnError)
	FormatFlags.StringVar(&outputFormat, "format", FormatJSON, "output format [json, yaml]")
}
