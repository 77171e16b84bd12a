package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/hierdb/mptree"
)

// configSchema constrains a tree configuration file. Every field has a
// default, so an empty file is a valid configuration for the default
// table layout.
const configSchema = `
#Config: {
	table:         *"nodes" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	pk:            *"id" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	parent:        *"parent_id" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	path_field:    *"mp_path" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	depth_field:   *"mp_depth" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	tree_id_field: *"mp_tree_id" | =~"^[A-Za-z_][A-Za-z0-9_]*$"
	steplen:       *3 | int & >=1 & <=10
	pathlen:       *255 | int & >=1 & <=10000
}
`

// Config is the decoded tree configuration.
type Config struct {
	Table       string `json:"table"`
	PK          string `json:"pk"`
	Parent      string `json:"parent"`
	PathField   string `json:"path_field"`
	DepthField  string `json:"depth_field"`
	TreeIDField string `json:"tree_id_field"`
	StepLen     int    `json:"steplen"`
	PathLen     int    `json:"pathlen"`
}

// LoadError is a configuration load failure with source position when
// the CUE evaluator provides one.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// LoadConfig reads a CUE configuration file, validates it against the
// embedded schema and converts it to tree options. An empty path yields
// the all-defaults configuration.
func LoadConfig(path string) (*mptree.Options, error) {
	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}
	return cfg.Options()
}

func loadConfigFile(path string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, convertCUEError(err)
	}

	value := schema
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("reading config: %v", err)}
		}
		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, convertCUEError(err)
		}
		value = schema.Unify(user)
	}
	if err := value.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, convertCUEError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, convertCUEError(err)
	}
	return &cfg, nil
}

// Options converts the decoded configuration into validated tree options.
func (c *Config) Options() (*mptree.Options, error) {
	return mptree.NewOptions(c.Table, c.PK, c.Parent,
		mptree.WithPathColumn(c.PathField),
		mptree.WithDepthColumn(c.DepthField),
		mptree.WithTreeIDColumn(c.TreeIDField),
		mptree.WithStepLen(c.StepLen),
		mptree.WithPathLen(c.PathLen),
	)
}

func convertCUEError(err error) *LoadError {
	loadErr := &LoadError{Message: cueerrors.Details(err, nil)}
	if positions := cueerrors.Positions(cueerrors.Promote(err, "")); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}
