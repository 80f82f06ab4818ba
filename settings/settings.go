package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/interactive"
	"github.com/joshyorko/swarmdash/keyinput"
	"github.com/joshyorko/swarmdash/pretty"
)

const (
	ConfigName = `swarmdash`

	DefaultCommand = `node packages/orchestrator/dist/main.js`
	maxHz          = 60
)

// Keys, as used in the config file, in SWARMDASH_* variables (upper case,
// dashes as underscores) and as flag names.
const (
	KeyAgents           = `agents`
	KeyFeatures         = `features`
	KeyHz               = `hz`
	KeyCostRate         = `cost-rate`
	KeyActivityCapacity = `activity-capacity`
	KeyBatchSize        = `batch-size`
	KeyVisibleLevels    = `visible-levels`
	KeyLeftWidth        = `left-width`
	KeyScrollStep       = `scroll-step`
	KeyEscapeTimeout    = `escape-timeout`
	KeyEscapePoll       = `escape-poll`
	KeyCommand          = `command`
	KeyWorkdir          = `workdir`
	KeyLinger           = `linger`
	KeyLogFile          = `log-file`
)

// Settings is the effective configuration of one dashboard run.
type Settings struct {
	Agents           int           `mapstructure:"agents"`
	Features         int           `mapstructure:"features"`
	Hz               int           `mapstructure:"hz"`
	CostRate         float64       `mapstructure:"cost-rate"`
	ActivityCapacity int           `mapstructure:"activity-capacity"`
	BatchSize        int           `mapstructure:"batch-size"`
	VisibleLevels    int           `mapstructure:"visible-levels"`
	LeftWidth        int           `mapstructure:"left-width"`
	ScrollStep       int           `mapstructure:"scroll-step"`
	EscapeTimeout    time.Duration `mapstructure:"escape-timeout"`
	EscapePoll       time.Duration `mapstructure:"escape-poll"`
	Command          string        `mapstructure:"command"`
	Workdir          string        `mapstructure:"workdir"`
	Linger           bool          `mapstructure:"linger"`
	LogFile          string        `mapstructure:"log-file"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	dashboardDefaults := dashboard.DefaultConfig()
	return Settings{
		Agents:           dashboardDefaults.MaxAgents,
		Features:         dashboardDefaults.TotalFeatures,
		Hz:               interactive.DefaultHz,
		CostRate:         dashboardDefaults.CostRate,
		ActivityCapacity: dashboardDefaults.ActivityCapacity,
		BatchSize:        interactive.DefaultBatchSize,
		VisibleLevels:    dashboardDefaults.VisibleLevels,
		LeftWidth:        pretty.LeftWidth,
		ScrollStep:       interactive.DefaultScrollStep,
		EscapeTimeout:    keyinput.DefaultEscapeWindow,
		EscapePoll:       keyinput.DefaultPollSlice,
		Command:          DefaultCommand,
		Workdir:          "",
		Linger:           false,
		LogFile:          "",
	}
}

// NewViper returns a viper instance with defaults and environment lookup
// in place. Callers bind their flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range Defaults().asMap() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(common.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves settings from v: flags over environment over config file
// over defaults. An explicit configFile must exist; otherwise swarmdash.yaml
// (or any other extension viper reads) is looked up in the working
// directory and the user config directory.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, common.Product))
		}
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		common.Debug("settings read from %s", v.ConfigFileUsed())
	case configFile == "" && errors.As(err, &notFound):
		common.Trace("no %s.yaml found, using defaults and environment", ConfigName)
	default:
		return nil, fmt.Errorf("read config %q: %w", configFile, err)
	}

	result := Defaults()
	if err := v.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	result.ConfigFile = v.ConfigFileUsed()
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate reports every out of range value at once.
func (it *Settings) Validate() error {
	problems := []error{}
	positive := []struct {
		key   string
		value int
	}{
		{KeyAgents, it.Agents},
		{KeyFeatures, it.Features},
		{KeyActivityCapacity, it.ActivityCapacity},
		{KeyBatchSize, it.BatchSize},
		{KeyVisibleLevels, it.VisibleLevels},
		{KeyScrollStep, it.ScrollStep},
	}
	for _, check := range positive {
		if check.value < 1 {
			problems = append(problems, fmt.Errorf("%s must be at least 1, got %d", check.key, check.value))
		}
	}
	if it.Hz < 1 || it.Hz > maxHz {
		problems = append(problems, fmt.Errorf("%s must be between 1 and %d, got %d", KeyHz, maxHz, it.Hz))
	}
	if it.CostRate < 0 {
		problems = append(problems, fmt.Errorf("%s cannot be negative, got %v", KeyCostRate, it.CostRate))
	}
	if it.LeftWidth < 10 {
		problems = append(problems, fmt.Errorf("%s must be at least 10, got %d", KeyLeftWidth, it.LeftWidth))
	}
	if it.EscapeTimeout <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive, got %v", KeyEscapeTimeout, it.EscapeTimeout))
	}
	if it.EscapePoll <= 0 || it.EscapePoll > it.EscapeTimeout {
		problems = append(problems, fmt.Errorf("%s must be positive and at most %s, got %v", KeyEscapePoll, KeyEscapeTimeout, it.EscapePoll))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(problems...))
	}
	return nil
}

func (it Settings) asMap() map[string]interface{} {
	result := make(map[string]interface{})
	for _, item := range it.ordered() {
		result[item.Key.(string)] = item.Value
	}
	return result
}

func (it Settings) ordered() yaml.MapSlice {
	return yaml.MapSlice{
		{Key: KeyAgents, Value: it.Agents},
		{Key: KeyFeatures, Value: it.Features},
		{Key: KeyHz, Value: it.Hz},
		{Key: KeyCostRate, Value: it.CostRate},
		{Key: KeyActivityCapacity, Value: it.ActivityCapacity},
		{Key: KeyBatchSize, Value: it.BatchSize},
		{Key: KeyVisibleLevels, Value: it.VisibleLevels},
		{Key: KeyLeftWidth, Value: it.LeftWidth},
		{Key: KeyScrollStep, Value: it.ScrollStep},
		{Key: KeyEscapeTimeout, Value: it.EscapeTimeout.String()},
		{Key: KeyEscapePoll, Value: it.EscapePoll.String()},
		{Key: KeyCommand, Value: it.Command},
		{Key: KeyWorkdir, Value: it.Workdir},
		{Key: KeyLinger, Value: it.Linger},
		{Key: KeyLogFile, Value: it.LogFile},
	}
}

// AsYAML renders the settings in config file form, keys in a fixed order.
func (it *Settings) AsYAML() ([]byte, error) {
	blob, err := yaml.Marshal(it.ordered())
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return blob, nil
}

// DashboardConfig is the state engine configuration these settings imply.
func (it *Settings) DashboardConfig() dashboard.Config {
	config := dashboard.DefaultConfig()
	config.ActivityCapacity = it.ActivityCapacity
	config.MaxAgents = it.Agents
	config.TotalFeatures = it.Features
	config.CostRate = it.CostRate
	config.VisibleLevels = it.VisibleLevels
	return config
}

// AppOptions are the render loop options these settings imply.
func (it *Settings) AppOptions() interactive.Options {
	return interactive.Options{
		Hz:         it.Hz,
		BatchSize:  it.BatchSize,
		ScrollStep: it.ScrollStep,
		LeftWidth:  it.LeftWidth,
		Linger:     it.Linger,
	}
}
