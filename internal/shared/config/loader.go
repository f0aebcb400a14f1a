package config

import (
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads the file at configPath into out and keeps watching it,
// re-unmarshalling on change. Supports yaml and json (viper decides by
// extension). Panics on a missing or malformed file: configuration is a
// startup precondition, not a runtime failure.
func Load(configPath string, out any) {
	if !FileExist(configPath) {
		panic(fmt.Sprintf("config file not exist, configPath=%v", configPath))
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Println("config file changed:", e.Name)
		if err := v.Unmarshal(out); err != nil {
			log.Printf("reload config failed, keeping previous values: %v", err)
		}
	})
	v.WatchConfig()

	if err := v.ReadInConfig(); err != nil {
		panic(err)
	}
	if err := v.Unmarshal(out); err != nil {
		panic(err)
	}
}

func FileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
