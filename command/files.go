package command

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/bumblegum/guitarcore/profile"
)

const (
	// ConfigFile is backed by the profile store.
	ConfigFile = "config.json"

	MaxFileContent    = 8192
	MaxFilenameLength = 32
	MaxFiles          = 8
)

type presetMetadata struct {
	Version    string `json:"version"`
	DeviceType string `json:"device_type"`
	Created    string `json:"created"`
}

type preset struct {
	Name   string            `json:"name"`
	Colors map[string]string `json:"colors"`
}

type presetsFile struct {
	Metadata presetMetadata    `json:"_metadata"`
	Presets  map[string]preset `json:"presets"`
}

type userPresetsFile struct {
	UserPresets map[string]preset `json:"user_presets"`
}

func defaultPresets() []byte {
	out, _ := json.MarshalIndent(presetsFile{
		Metadata: presetMetadata{Version: "4.0", DeviceType: "bgg_xinput", Created: "2025-08-21"},
		Presets: map[string]preset{
			"default": {
				Name: "Default Colors",
				Colors: map[string]string{
					"strum-up-active":     "#ffffff",
					"strum-down-active":   "#ffffff",
					"orange-fret-pressed": "#ff8000",
					"blue-fret-pressed":   "#0080ff",
					"yellow-fret-pressed": "#ffff00",
					"red-fret-pressed":    "#ff0000",
					"green-fret-pressed":  "#00ff00",
				},
			},
		},
	}, "", "  ")
	return out
}

func defaultUserPresets() []byte {
	out, _ := json.MarshalIndent(userPresetsFile{UserPresets: map[string]preset{}}, "", "  ")
	return out
}

// ConfigSource is the part of the device the config file is backed by.
type ConfigSource interface {
	ConfigText() []byte
	UpdateConfig(text []byte) ([]profile.ParseWarning, error)
}

// Files is the small set of named documents the configurator reads and
// writes. Everything except config.json lives in RAM and is lost on reset.
type Files struct {
	mu     sync.Mutex
	config ConfigSource
	names  []string
	data   map[string][]byte
}

func NewFiles(config ConfigSource) *Files {
	f := &Files{config: config, data: map[string][]byte{}}
	f.names = []string{ConfigFile}
	f.put("presets.json", defaultPresets())
	f.put("user_presets.json", defaultUserPresets())
	return f
}

func (f *Files) put(name string, content []byte) {
	if _, ok := f.data[name]; !ok {
		f.names = append(f.names, name)
	}
	f.data[name] = content
}

// Names lists the files in creation order.
func (f *Files) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.names)
}

// Read returns the content of name.
func (f *Files) Read(name string) ([]byte, bool) {
	if name == ConfigFile {
		return f.config.ConfigText(), true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.data[name]
	return slices.Clone(content), ok
}

// Write replaces or creates name. Writing config.json updates the active
// profile; its parse warnings are returned.
func (f *Files) Write(name string, content []byte) ([]profile.ParseWarning, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if len(content) >= MaxFileContent {
		return nil, ErrBadRequest(fmt.Sprintf("file %s too large (%d bytes, max %d)", name, len(content), MaxFileContent-1))
	}
	if name == ConfigFile {
		return f.config.UpdateConfig(content)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[name]; !ok && len(f.names) >= MaxFiles {
		return nil, ErrBadRequest(fmt.Sprintf("no space for file %s", name))
	}
	f.put(name, slices.Clone(content))
	return nil, nil
}

func checkName(name string) error {
	if name == "" {
		return ErrBadRequest("missing file name")
	}
	if len(name) >= MaxFilenameLength {
		return ErrBadRequest(fmt.Sprintf("file name longer than %d characters", MaxFilenameLength-1))
	}
	return nil
}
