package mac

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Station configuration.
 *
 * Description:	Configuration comes from a YAML document.  Anything
 *		not mentioned keeps the value from DefaultConfig for
 *		the selected mode, so a file can be as short as
 *
 *			mode: edca
 *			address: 02:00:00:00:00:01
 *
 *		Durations are written the Go way, e.g. "20us", "3.264ms".
 *		Bit rates are in Mb/s.
 *
 *		Example with everything:
 *
 *			mode: edca
 *			address: 02:00:00:00:00:01
 *			retryLimit: 7
 *			rtsThresholdBytes: 1000
 *			cwMulticast: 31
 *			slotTime: 20us
 *			sifsTime: 10us
 *			preamble: 192us
 *			rates: [1, 2, 5.5, 11]
 *			basicRate: 1
 *			defaultCategory: best_effort
 *			edca:
 *			  voice: {cwMin: 7, cwMax: 15, aifsSlots: 2, txopLimit: 3.264ms, maxQueueSize: 100}
 *			rateControl:
 *			  mode: aarf
 *			  successThreshold: 10
 *			  timerThreshold: 15
 *			  maxSuccessThreshold: 60
 *			  successFactor: 2
 *			  timerFactor: 2
 *			duplicateDetectionEnabled: true
 *			duplicateTimeout: 10s
 *			multicastPriorityEnabled: false
 *			promiscuous: false
 *
 *------------------------------------------------------------------*/

const (
	ModeDCF  = "dcf"
	ModeEDCA = "edca"
)

const maxCW = 32767

type CategoryConfig struct {
	CWMin        int           `yaml:"cwMin"`
	CWMax        int           `yaml:"cwMax"`
	AIFS         int           `yaml:"aifsSlots"`
	TXOPLimit    time.Duration `yaml:"txopLimit"`    /* 0 means one frame per access. */
	MaxQueueSize int           `yaml:"maxQueueSize"` /* 0 means unlimited. */
}

type EDCAConfig struct {
	Background CategoryConfig `yaml:"background"`
	BestEffort CategoryConfig `yaml:"best_effort"`
	Video      CategoryConfig `yaml:"video"`
	Voice      CategoryConfig `yaml:"voice"`
}

type RateControlConfig struct {
	Mode        string  `yaml:"mode"`        /* constant, arf, aarf */
	InitialRate float64 `yaml:"initialRate"` /* Mb/s.  0 picks the top rate for constant, bottom otherwise. */

	SuccessThreshold    int     `yaml:"successThreshold"`
	TimerThreshold      int     `yaml:"timerThreshold"`
	MaxSuccessThreshold int     `yaml:"maxSuccessThreshold"` /* AARF ceiling; also the run of successes that resets the thresholds. */
	SuccessFactor       float64 `yaml:"successFactor"`
	TimerFactor         float64 `yaml:"timerFactor"`
}

type Config struct {
	Mode    string `yaml:"mode"`
	Address string `yaml:"address"`

	RetryLimit   int `yaml:"retryLimit"`
	RTSThreshold int `yaml:"rtsThresholdBytes"`
	CWMulticast  int `yaml:"cwMulticast"`

	SlotTime time.Duration `yaml:"slotTime"`
	SIFSTime time.Duration `yaml:"sifsTime"`
	Preamble time.Duration `yaml:"preamble"`

	Rates     []float64 `yaml:"rates"`
	BasicRate float64   `yaml:"basicRate"`

	DCF             CategoryConfig `yaml:"dcf"`
	EDCA            EDCAConfig     `yaml:"edca"`
	DefaultCategory string         `yaml:"defaultCategory"`

	RateControl RateControlConfig `yaml:"rateControl"`

	DuplicateDetection bool          `yaml:"duplicateDetectionEnabled"`
	DuplicateTimeout   time.Duration `yaml:"duplicateTimeout"`
	MulticastPriority  bool          `yaml:"multicastPriorityEnabled"`
	Promiscuous        bool          `yaml:"promiscuous"`
}

/*------------------------------------------------------------------
 *
 * Name:	DefaultConfig
 *
 * Purpose:	802.11b timing with the 802.11e default parameter set.
 *
 *		Category	CWmin	CWmax	AIFSN	TXOP
 *		background	31	1023	7	0
 *		best_effort	31	1023	3	0
 *		video		15	31	2	6.016 ms
 *		voice		7	15	2	3.264 ms
 *
 *		DCF uses CWmin 31, CWmax 1023 and DIFS (AIFSN 2).
 *
 *------------------------------------------------------------------*/

func DefaultConfig(mode string) Config {
	const queueSize = 100

	return Config{
		Mode:         mode,
		RetryLimit:   7,
		RTSThreshold: 2347,
		CWMulticast:  31,
		SlotTime:     20 * time.Microsecond,
		SIFSTime:     10 * time.Microsecond,
		Preamble:     192 * time.Microsecond,
		Rates:        []float64{1, 2, 5.5, 11},
		BasicRate:    1,
		DCF:          CategoryConfig{CWMin: 31, CWMax: 1023, AIFS: 2, MaxQueueSize: queueSize},
		EDCA: EDCAConfig{
			Background: CategoryConfig{CWMin: 31, CWMax: 1023, AIFS: 7, MaxQueueSize: queueSize},
			BestEffort: CategoryConfig{CWMin: 31, CWMax: 1023, AIFS: 3, MaxQueueSize: queueSize},
			Video:      CategoryConfig{CWMin: 15, CWMax: 31, AIFS: 2, TXOPLimit: 6016 * time.Microsecond, MaxQueueSize: queueSize},
			Voice:      CategoryConfig{CWMin: 7, CWMax: 15, AIFS: 2, TXOPLimit: 3264 * time.Microsecond, MaxQueueSize: queueSize},
		},
		DefaultCategory: "best_effort",
		RateControl: RateControlConfig{
			Mode:                RateConstant,
			SuccessThreshold:    10,
			TimerThreshold:      15,
			MaxSuccessThreshold: 60,
			SuccessFactor:       2,
			TimerFactor:         2,
		},
		DuplicateDetection: true,
		DuplicateTimeout:   10 * time.Second,
	}
}

// ParseConfig reads a YAML document on top of the defaults for the
// mode it names (EDCA if it doesn't say).
func ParseConfig(data []byte) (Config, error) {
	var cfg, err = unmarshalConfig(data)
	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// DecodeConfig is ParseConfig for a node that is part of a bigger document.
func DecodeConfig(node *yaml.Node) (Config, error) {
	var cfg, err = decodeConfigNode(node)
	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func decodeConfigNode(node *yaml.Node) (Config, error) {
	if node == nil || node.Kind == 0 {
		return unmarshalConfig(nil)
	}

	var data, err = yaml.Marshal(node)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return unmarshalConfig(data)
}

// unmarshalConfig applies defaults but doesn't validate.
func unmarshalConfig(data []byte) (Config, error) {
	var probe struct {
		Mode string `yaml:"mode"`
	}

	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if probe.Mode == "" {
		probe.Mode = ModeEDCA
	}

	var cfg = DefaultConfig(probe.Mode)

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	var data, err = os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg, parseErr = ParseConfig(data)
	if parseErr != nil {
		return cfg, fmt.Errorf("%s: %w", path, parseErr)
	}

	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

func (p CategoryConfig) validate(name string) error {
	var errs []error

	if p.CWMin < 0 || p.CWMin > p.CWMax || p.CWMax > maxCW {
		errs = append(errs, invalid("%s: need 0 <= cwMin (%d) <= cwMax (%d) <= %d", name, p.CWMin, p.CWMax, maxCW))
	}

	if p.AIFS < 0 || p.AIFS >= 16 {
		errs = append(errs, invalid("%s: aifsSlots %d not in 0..15", name, p.AIFS))
	}

	if p.TXOPLimit < 0 {
		errs = append(errs, invalid("%s: negative txopLimit", name))
	}

	if p.MaxQueueSize < 0 {
		errs = append(errs, invalid("%s: negative maxQueueSize", name))
	}

	return errors.Join(errs...)
}

// Validate checks everything which can be checked without building a station.
func (c *Config) Validate() error {
	var errs []error

	if c.Mode != ModeDCF && c.Mode != ModeEDCA {
		errs = append(errs, invalid("mode must be %q or %q, not %q", ModeDCF, ModeEDCA, c.Mode))
	}

	if _, err := ParseAddress(c.Address); err != nil {
		errs = append(errs, invalid("address: %v", err))
	}

	if c.RetryLimit < 1 {
		errs = append(errs, invalid("retryLimit must be at least 1"))
	}

	if c.RTSThreshold < 0 {
		errs = append(errs, invalid("negative rtsThresholdBytes"))
	}

	if c.CWMulticast < 0 || c.CWMulticast > maxCW {
		errs = append(errs, invalid("cwMulticast %d not in 0..%d", c.CWMulticast, maxCW))
	}

	if c.SlotTime <= 0 || c.SIFSTime <= 0 || c.Preamble < 0 {
		errs = append(errs, invalid("slotTime and sifsTime must be positive"))
	}

	if len(c.Rates) == 0 {
		errs = append(errs, invalid("no bit rates"))
	}

	for i, r := range c.Rates {
		if r <= 0 || (i > 0 && r <= c.Rates[i-1]) {
			errs = append(errs, invalid("rates must be positive and increasing"))
			break
		}
	}

	if c.BasicRate <= 0 {
		errs = append(errs, invalid("basicRate must be positive"))
	}

	if c.Mode == ModeDCF {
		errs = append(errs, c.DCF.validate("dcf"))
	} else {
		for _, s := range c.categorySettings() {
			errs = append(errs, s.params.validate(s.id.String()))
		}
	}

	if _, err := ParseCategory(c.DefaultCategory); err != nil {
		errs = append(errs, invalid("defaultCategory: %v", err))
	}

	if c.DuplicateTimeout < 0 {
		errs = append(errs, invalid("negative duplicateTimeout"))
	}

	return errors.Join(errs...)
}

type categorySetting struct {
	id     Category
	params CategoryConfig
}

// categorySettings lists the categories a station has, lowest priority
// first.  DCF has just the one, labelled best effort.
func (c *Config) categorySettings() []categorySetting {
	if c.Mode == ModeDCF {
		return []categorySetting{{id: BestEffort, params: c.DCF}}
	}

	return []categorySetting{
		{id: Background, params: c.EDCA.Background},
		{id: BestEffort, params: c.EDCA.BestEffort},
		{id: Video, params: c.EDCA.Video},
		{id: Voice, params: c.EDCA.Voice},
	}
}

func (c *Config) timing() Timing {
	return Timing{
		Slot:      c.SlotTime,
		SIFS:      c.SIFSTime,
		Preamble:  c.Preamble,
		BasicRate: RateFromMbps(c.BasicRate),
	}
}

func (c *Config) rates() []Rate {
	var out = make([]Rate, 0, len(c.Rates))

	for _, r := range c.Rates {
		out = append(out, RateFromMbps(r))
	}

	return out
}

/* end config.go */
