package cmd

// LogConfig holds the logging flags shared by every command.
type LogConfig struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)" default:"info" env:"GUITARCORE_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"GUITARCORE_LOG_FILE"`
	Format  string `help:"Log format" enum:"text,json" default:"text" env:"GUITARCORE_LOG_FORMAT"`
	RawFile string `help:"Write hex dumps of USB frames to this file" env:"GUITARCORE_LOG_RAW_FILE"`
}

// CLI is the root command tree.
type CLI struct {
	ConfigFile string    `name:"config" help:"Configuration file (json, yaml or toml)" env:"GUITARCORE_CONFIG"`
	Log        LogConfig `embed:"" prefix:"log."`

	Emulate Emulate        `cmd:"" help:"Run the controller core on simulated hardware"`
	Profile ProfileCommand `cmd:"" help:"Inspect and edit the stored profile"`
	Mode    ModeCommand    `cmd:"" help:"Inspect and change the stored USB personality"`
	Console Console        `cmd:"" help:"Send a console command to a controller over serial"`
	Config  ConfigCommand  `cmd:"" help:"Configuration file helpers"`
}
