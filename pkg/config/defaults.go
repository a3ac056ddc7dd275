package config

import "github.com/spf13/viper"

// Default values applied before the config file and environment are read.
// A bare `docstored` with no file runs a memory object backend and no
// archive against ./data/storage.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")

	v.SetDefault("storage.root", "./data/storage")

	v.SetDefault("objects.type", "memory")
	v.SetDefault("objects.badger.path", "./data/objects")

	v.SetDefault("archive.type", "none")
}
