package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var data = `
a: Easy!
b:
  c: 2
  d: [3, 4]
`

type conf struct {
	A string
	B struct {
		C int
		D []int `yaml:",flow"`
	}
}

func TestLoadYAML(t *testing.T) {
	config := conf{}
	err := LoadYAML([]byte(data), &config)
	assert.NoError(t, err)
	assert.Equal(t, "Easy!", config.A)
	assert.Equal(t, 2, config.B.C)
	assert.Equal(t, []int{3, 4}, config.B.D)

	assert.Error(t, LoadYAML(nil, &config))
}

type testAppConfig struct {
	AppConfig `yaml:",inline"`
	Name      string `yaml:"name" env:"DAYSTAT_TEST_NAME"`
	parsed    bool
}

func (p *testAppConfig) Parse() error {
	if err := p.AppConfig.Parse(); err != nil {
		return err
	}
	p.parsed = true
	return nil
}

var appConfigData = `
log:
  env: development
  level: debug
  no_caller: true
runtime:
  maxprocs: 0
name: from-yaml
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conf.yaml"), []byte(appConfigData), 0644))

	config := &testAppConfig{}
	err := LoadConfig(config, "", dir, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", config.Name)
	assert.NotNil(t, config.LogConfig)
	assert.Equal(t, "debug", config.LogConfig.Level)

	assert.NoError(t, config.Parse())
	assert.True(t, config.parsed)
	assert.True(t, DebugEnabled())

	t.Setenv("DAYSTAT_TEST_NAME", "from-env")
	config = &testAppConfig{}
	err = LoadConfig(config, "", dir, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Name)

	assert.Equal(t, errInvalidConf, LoadConfig(config, "", dir))
}

func TestLoadConfigAddon(t *testing.T) {
	config := &testAppConfig{}
	err := LoadConfig(config, "name: addon", "")
	require.NoError(t, err)
	assert.Equal(t, "addon", config.Name)
}

func TestConfigFileLoaderExist(t *testing.T) {
	dir := t.TempDir()
	exist, err := FileLoader.Exist(filepath.Join(dir, "none.yaml"))
	assert.NoError(t, err)
	assert.False(t, exist)

	exist, err = FileLoader.Exist(dir)
	assert.NoError(t, err)
	assert.False(t, exist)
}
