package container_image

import "github.com/AnotherFullstackDev/fargatectl/internal/lib"

const DefaultTag = "{{ git.commit | short(12) }}"

type Config struct {
	Dir        string            `mapstructure:"dir"`
	Dockerfile string            `mapstructure:"dockerfile"`
	Platform   lib.Platform      `mapstructure:"platform"`
	BuildArgs  map[string]string `mapstructure:"build_args"`
	Tag        string            `mapstructure:"tag"`
}

// WithDefaults fills the unset fields. dir is the stack's build.docker_dir.
func (c Config) WithDefaults(dir string) Config {
	if c.Dir == "" {
		c.Dir = dir
	}
	if c.Dockerfile == "" {
		c.Dockerfile = "Dockerfile"
	}
	if c.Platform == "" {
		c.Platform = lib.PlatformLinuxAmd64
	}
	if c.Tag == "" {
		c.Tag = DefaultTag
	}
	return c
}
